package validation

import "github.com/mohitkumar/actionhandler/model"

type textValidator struct{}

func (tv *textValidator) IsEmpty(value PropertyValue) bool {
	return value.Text == ""
}

func (tv *textValidator) Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, _ *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult) {
	lite := newLite(propertyType)
	lite.TextOrChoiceValue = value.Text
	return lite, nil
}
