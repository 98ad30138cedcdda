package action

import (
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/validation"
)

// ExecutionParameters is the context actions are validated and executed against.
type ExecutionParameters struct {
	UserId              int
	UserName            string
	RevisionId          int
	PreviousStateId     int
	Artifact            *model.ArtifactInfo
	CustomPropertyTypes map[int]*model.WorkflowPropertyType
	Validators          *validation.Validators
	ValidationContext   *model.ValidationContext
}

func NewExecutionParameters(userId int, revisionId int, artifact *model.ArtifactInfo, propertyTypes []*model.WorkflowPropertyType, validators *validation.Validators, vctx *model.ValidationContext) *ExecutionParameters {
	types := make(map[int]*model.WorkflowPropertyType, len(propertyTypes))
	for _, pt := range propertyTypes {
		types[pt.InstancePropertyTypeId] = pt
	}
	if validators == nil {
		validators = validation.NewValidators()
	}
	if vctx == nil {
		vctx = &model.ValidationContext{}
	}
	return &ExecutionParameters{
		UserId:              userId,
		RevisionId:          revisionId,
		Artifact:            artifact,
		CustomPropertyTypes: types,
		Validators:          validators,
		ValidationContext:   vctx,
	}
}

func (p *ExecutionParameters) PropertyType(instancePropertyTypeId int) (*model.WorkflowPropertyType, bool) {
	pt, ok := p.CustomPropertyTypes[instancePropertyTypeId]
	return pt, ok
}
