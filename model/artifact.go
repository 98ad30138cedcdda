package model

type PublishedArtifactInformation struct {
	Id                   int                `json:"id" validate:"required"`
	ProjectId            int                `json:"projectId" validate:"required"`
	Name                 string             `json:"name"`
	PredefinedType       int                `json:"predefinedType"`
	ItemTypeId           int                `json:"itemTypeId"`
	IsFirstTimePublished bool               `json:"isFirstTimePublished"`
	ModifiedProperties   []ModifiedProperty `json:"modifiedProperties"`
}

type ModifiedProperty struct {
	PropertyTypeId int `json:"propertyTypeId"`
	PredefinedType int `json:"predefinedType"`
}

// ArtifactInfo is the artifact version the triggers of one processing pass run against.
type ArtifactInfo struct {
	Id             int
	ProjectId      int
	ProjectName    string
	Name           string
	ItemTypeId     int
	PredefinedType int
}

type WorkflowState struct {
	WorkflowId int
	StateId    int
	StateName  string
}

type ProjectNameIdPair struct {
	Id   int
	Name string
}

// predefined item types the handler cares about
const PREDEFINED_PROCESS = 4114
const PREDEFINED_TEXTUAL_REQUIREMENT = 4101
