package validation

import "github.com/mohitkumar/actionhandler/model"

const MSG_USER_NOT_FOUND = "User or group id does not exist"

type userValidator struct{}

func (uv *userValidator) IsEmpty(value PropertyValue) bool {
	return len(value.UsersGroups) == 0
}

// Validate resolves every user or group reference against the validation
// context. One unresolved reference fails the whole property.
func (uv *userValidator) Validate(propertyType *model.WorkflowPropertyType, value PropertyValue, vctx *model.ValidationContext) (*model.PropertyLite, *model.PropertySetResult) {
	lite := newLite(propertyType)
	resolved := make([]model.UserGroup, 0, len(value.UsersGroups))
	for _, ref := range value.UsersGroups {
		ug, ok := vctx.Resolve(ref)
		if !ok {
			return nil, invalid(propertyType, MSG_USER_NOT_FOUND)
		}
		ug.IsGroup = ref.IsGroup
		resolved = append(resolved, ug)
	}
	lite.UsersAndGroups = resolved
	return lite, nil
}
