package action

import (
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/validation"
)

var _ SynchronousAction = new(PropertyChangeAction)

type PropertyChangeAction struct {
	synchronousAction
	InstancePropertyTypeId int
	PropertyValue          string
	ValidValues            []int
	PropertyLiteValue      *model.PropertyLite
}

func NewPropertyChangeAction(instancePropertyTypeId int, value string, validValues []int) *PropertyChangeAction {
	return &PropertyChangeAction{
		synchronousAction:      synchronousAction{baseAction{actType: ACTION_TYPE_PROPERTY_CHANGE}},
		InstancePropertyTypeId: instancePropertyTypeId,
		PropertyValue:          value,
		ValidValues:            validValues,
	}
}

func (a *PropertyChangeAction) ValidateAction(params *ExecutionParameters) *model.PropertySetResult {
	pt, ok := params.PropertyType(a.InstancePropertyTypeId)
	if !ok {
		return propertyTypeNotFound(a.InstancePropertyTypeId)
	}
	if pt.PrimitiveType == model.PRIMITIVE_USER {
		// the property type was changed to a user property after the trigger was saved
		return model.NewPropertySetResult(pt.InstancePropertyTypeId, model.ERROR_INVALID_ARTIFACT_PROPERTY,
			fmt.Sprintf("Property %s is no longer a text property, the property change action is invalid", pt.Name))
	}
	lite, res := params.Validators.Validate(pt, validation.PropertyValue{Text: a.PropertyValue, ValidValueIds: a.ValidValues}, params.ValidationContext)
	if res != nil {
		return res
	}
	a.PropertyLiteValue = lite
	return nil
}

func propertyTypeNotFound(id int) *model.PropertySetResult {
	return model.NewPropertySetResult(id, model.ERROR_PROPERTY_TYPE_NOT_FOUND,
		fmt.Sprintf("Property type %d is not available for the artifact", id))
}
