package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PrimitiveType int

const PRIMITIVE_TEXT PrimitiveType = 0
const PRIMITIVE_NUMBER PrimitiveType = 1
const PRIMITIVE_DATE PrimitiveType = 2
const PRIMITIVE_USER PrimitiveType = 3
const PRIMITIVE_CHOICE PrimitiveType = 4

func (p PrimitiveType) String() string {
	switch p {
	case PRIMITIVE_TEXT:
		return "text"
	case PRIMITIVE_NUMBER:
		return "number"
	case PRIMITIVE_DATE:
		return "date"
	case PRIMITIVE_USER:
		return "user"
	case PRIMITIVE_CHOICE:
		return "choice"
	}
	return "unknown"
}

type ErrorCode int

const ERROR_INVALID_ARTIFACT_PROPERTY ErrorCode = 127
const ERROR_PROPERTY_TYPE_NOT_FOUND ErrorCode = 128
const ERROR_ACTION_EVALUATION_FAILED ErrorCode = 129

// PropertySetResult describes why a property change or action can not be applied.
// A nil result means success.
type PropertySetResult struct {
	PropertyTypeId int       `json:"propertyTypeId"`
	ErrorCode      ErrorCode `json:"errorCode"`
	Message        string    `json:"message"`
}

func NewPropertySetResult(propertyTypeId int, code ErrorCode, message string) *PropertySetResult {
	return &PropertySetResult{
		PropertyTypeId: propertyTypeId,
		ErrorCode:      code,
		Message:        message,
	}
}

type NumberRange struct {
	Start *decimal.Decimal
	End   *decimal.Decimal
}

type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type ValidValue struct {
	Id    int
	Value string
}

type WorkflowPropertyType struct {
	InstancePropertyTypeId int
	PropertyTypeId         int
	Name                   string
	PrimitiveType          PrimitiveType
	IsRequired             bool
	IsValidate             bool
	NumberRange            NumberRange
	DateRange              DateRange
	DecimalPlaces          int
	ValidValues            []ValidValue
	AllowMultiple          bool
}

func (pt *WorkflowPropertyType) HasValidValue(id int) bool {
	for _, v := range pt.ValidValues {
		if v.Id == id {
			return true
		}
	}
	return false
}

// PropertyLite is the normalized value of a property change. Only the field
// matching the property primitive type is meaningful.
type PropertyLite struct {
	PropertyTypeId    int              `json:"propertyTypeId"`
	TextOrChoiceValue string           `json:"textOrChoiceValue,omitempty"`
	NumberValue       *decimal.Decimal `json:"numberValue,omitempty"`
	DateValue         *time.Time       `json:"dateValue,omitempty"`
	UsersAndGroups    []UserGroup      `json:"usersAndGroups,omitempty"`
	ChoiceIds         []int            `json:"choiceIds,omitempty"`
}

type UserGroup struct {
	Id          int    `json:"id"`
	IsGroup     bool   `json:"isGroup"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

type ValidationContext struct {
	Users  []UserGroup
	Groups []UserGroup
}

func (vc *ValidationContext) Resolve(ref UserGroup) (UserGroup, bool) {
	if vc == nil {
		return UserGroup{}, false
	}
	list := vc.Users
	if ref.IsGroup {
		list = vc.Groups
	}
	for _, ug := range list {
		if ug.Id == ref.Id {
			return ug, true
		}
	}
	return UserGroup{}, false
}
