package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mohitkumar/actionhandler/model"
)

const MSG_DATE_MAX = "Date value must be less than max value"
const MSG_DATE_MIN = "Date value must be greater than min value"

type dateValidator struct{}

func (dv *dateValidator) IsEmpty(value PropertyValue) bool {
	return blank(value.Text)
}

func (dv *dateValidator) Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, _ *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult) {
	lite := newLite(propertyType)
	text := strings.TrimSpace(value.Text)
	if text == "" {
		return lite, nil
	}
	parsed, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return nil, invalid(propertyType, fmt.Sprintf("Value %q of property %s is not a valid date: %v", value.Text, propertyType.Name, err))
	}
	date := truncateToDay(parsed)
	if propertyType.IsValidate {
		rng := propertyType.DateRange
		if rng.End != nil && date.After(truncateToDay(*rng.End)) {
			return nil, invalid(propertyType, MSG_DATE_MAX)
		}
		if rng.Start != nil && date.Before(truncateToDay(*rng.Start)) {
			return nil, invalid(propertyType, MSG_DATE_MIN)
		}
	}
	lite.DateValue = &date
	return lite, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
