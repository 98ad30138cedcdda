package model

type NotificationMessage struct {
	To                     []string `json:"to" validate:"required,min=1,dive,required"`
	From                   string   `json:"from"`
	Subject                string   `json:"subject"`
	Header                 string   `json:"header"`
	Message                string   `json:"message"`
	ArtifactId             int      `json:"artifactId"`
	ArtifactName           string   `json:"artifactName"`
	ProjectId              int      `json:"projectId"`
	ProjectName            string   `json:"projectName"`
	ArtifactUrl            string   `json:"artifactUrl"`
	ArtifactTypeId         int      `json:"artifactTypeId"`
	ArtifactTypePredefined int      `json:"artifactTypePredefined"`
}
