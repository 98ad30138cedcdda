package validation

import (
	"fmt"
	"strings"

	"github.com/mohitkumar/actionhandler/model"
)

const MSG_VALUE_EMPTY = "Property value cannot be empty"

// PropertyValue is the raw value a workflow action proposes for a property.
type PropertyValue struct {
	Text          string
	ValidValueIds []int
	UsersGroups   []model.UserGroup
}

// PropertyValueValidator converts a raw value into a PropertyLite for one
// primitive type. Domain failures are reported through the PropertySetResult.
type PropertyValueValidator interface {
	Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, vctx *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult)
	IsEmpty(value PropertyValue) bool
}

type Validators struct {
	validators map[model.PrimitiveType]PropertyValueValidator
}

func NewValidators() *Validators {
	return &Validators{
		validators: map[model.PrimitiveType]PropertyValueValidator{
			model.PRIMITIVE_TEXT:   &textValidator{},
			model.PRIMITIVE_NUMBER: &numberValidator{},
			model.PRIMITIVE_DATE:   &dateValidator{},
			model.PRIMITIVE_CHOICE: &choiceValidator{},
			model.PRIMITIVE_USER:   &userValidator{},
		},
	}
}

// Validate applies the required field rule and then the validator of the
// property primitive type.
func (v *Validators) Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, vctx *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult) {
	validator, ok := v.validators[propertyType.PrimitiveType]
	if !ok {
		return nil, invalid(propertyType, fmt.Sprintf("Property type %s is not supported", propertyType.PrimitiveType))
	}
	if propertyType.IsRequired && validator.IsEmpty(value) {
		return nil, invalid(propertyType, MSG_VALUE_EMPTY)
	}
	return validator.Validate(propertyType, value, vctx)
}

func invalid(propertyType *model.WorkflowPropertyType, message string) *model.PropertySetResult {
	return model.NewPropertySetResult(propertyType.InstancePropertyTypeId, model.ERROR_INVALID_ARTIFACT_PROPERTY, message)
}

func blank(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

func newLite(propertyType *model.WorkflowPropertyType) *model.PropertyLite {
	return &model.PropertyLite{PropertyTypeId: propertyType.InstancePropertyTypeId}
}
