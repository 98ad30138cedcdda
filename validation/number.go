package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/shopspring/decimal"
)

// invariant format: optional sign, digits, optional decimal point
var numberFormat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

const MSG_NUMBER_MAX = "Number value must be less than max value"
const MSG_NUMBER_MIN = "Number value must be greater than min value"

type numberValidator struct{}

func (nv *numberValidator) IsEmpty(value PropertyValue) bool {
	return blank(value.Text)
}

func (nv *numberValidator) Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, _ *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult) {
	lite := newLite(propertyType)
	text := strings.TrimSpace(value.Text)
	if text == "" {
		return lite, nil
	}
	if !numberFormat.MatchString(text) {
		return nil, invalid(propertyType, fmt.Sprintf("Value %q of property %s is not a valid number", value.Text, propertyType.Name))
	}
	number, err := decimal.NewFromString(text)
	if err != nil {
		return nil, invalid(propertyType, fmt.Sprintf("Value %q of property %s is not a valid number", value.Text, propertyType.Name))
	}
	if propertyType.IsValidate {
		if res := nv.checkRange(propertyType, number); res != nil {
			return nil, res
		}
	}
	lite.NumberValue = &number
	return lite, nil
}

func (nv *numberValidator) checkRange(propertyType *model.WorkflowPropertyType, number decimal.Decimal) *model.PropertySetResult {
	rng := propertyType.NumberRange
	if rng.End != nil && number.GreaterThan(*rng.End) {
		return invalid(propertyType, MSG_NUMBER_MAX)
	}
	if rng.Start != nil && number.LessThan(*rng.Start) {
		return invalid(propertyType, MSG_NUMBER_MIN)
	}
	places := int32(propertyType.DecimalPlaces)
	if !number.Equal(number.Round(places)) {
		return invalid(propertyType, fmt.Sprintf("Number value can have at most %d decimal places", places))
	}
	return nil
}
