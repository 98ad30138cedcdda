package validation

import (
	"fmt"
	"strings"

	"github.com/mohitkumar/actionhandler/model"
)

type choiceValidator struct{}

func (cv *choiceValidator) IsEmpty(value PropertyValue) bool {
	return len(value.ValidValueIds) == 0 && blank(value.Text)
}

func (cv *choiceValidator) Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, _ *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult) {
	lite := newLite(propertyType)
	ids := value.ValidValueIds
	if len(ids) == 0 {
		if !propertyType.IsValidate {
			lite.TextOrChoiceValue = value.Text
			return lite, nil
		}
		if blank(value.Text) {
			return lite, nil
		}
		id, ok := cv.lookup(propertyType, value.Text)
		if !ok {
			return nil, invalid(propertyType, fmt.Sprintf("Value %q is not a valid choice of property %s", value.Text, propertyType.Name))
		}
		ids = []int{id}
	}
	if !propertyType.AllowMultiple && len(ids) > 1 {
		return nil, invalid(propertyType, fmt.Sprintf("Property %s accepts a single choice", propertyType.Name))
	}
	for _, id := range ids {
		if !propertyType.HasValidValue(id) {
			return nil, invalid(propertyType, fmt.Sprintf("Choice id %d does not exist in property %s", id, propertyType.Name))
		}
	}
	lite.ChoiceIds = append([]int(nil), ids...)
	return lite, nil
}

func (cv *choiceValidator) lookup(propertyType *model.WorkflowPropertyType, text string) (int, bool) {
	text = strings.TrimSpace(text)
	for _, v := range propertyType.ValidValues {
		if strings.EqualFold(v.Value, text) {
			return v.Id, true
		}
	}
	return 0, false
}
