package action

import (
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/validation"
)

var _ SynchronousAction = new(PropertyChangeUserGroupsAction)

type PropertyChangeUserGroupsAction struct {
	synchronousAction
	InstancePropertyTypeId int
	UserGroups             []model.UserGroup
	PropertyLiteValue      *model.PropertyLite
}

func NewPropertyChangeUserGroupsAction(instancePropertyTypeId int, userGroups []model.UserGroup) *PropertyChangeUserGroupsAction {
	return &PropertyChangeUserGroupsAction{
		synchronousAction:      synchronousAction{baseAction{actType: ACTION_TYPE_PROPERTY_CHANGE_USER_GROUPS}},
		InstancePropertyTypeId: instancePropertyTypeId,
		UserGroups:             userGroups,
	}
}

func (a *PropertyChangeUserGroupsAction) ValidateAction(params *ExecutionParameters) *model.PropertySetResult {
	pt, ok := params.PropertyType(a.InstancePropertyTypeId)
	if !ok {
		return propertyTypeNotFound(a.InstancePropertyTypeId)
	}
	if pt.PrimitiveType != model.PRIMITIVE_USER {
		return model.NewPropertySetResult(pt.InstancePropertyTypeId, model.ERROR_INVALID_ARTIFACT_PROPERTY,
			fmt.Sprintf("Property %s is no longer a user property", pt.Name))
	}
	lite, res := params.Validators.Validate(pt, validation.PropertyValue{UsersGroups: a.UserGroups}, params.ValidationContext)
	if res != nil {
		return res
	}
	a.PropertyLiteValue = lite
	return nil
}
