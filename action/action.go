package action

import (
	"fmt"
	"strings"

	"github.com/mohitkumar/actionhandler/model"
)

type ActionType string

const ACTION_TYPE_PROPERTY_CHANGE ActionType = "PropertyChange"
const ACTION_TYPE_PROPERTY_CHANGE_USER_GROUPS ActionType = "PropertyChangeUserGroups"
const ACTION_TYPE_EMAIL_NOTIFICATION ActionType = "EmailNotification"
const ACTION_TYPE_WEBHOOK ActionType = "Webhook"
const ACTION_TYPE_GENERATE_CHILDREN ActionType = "GenerateChildren"
const ACTION_TYPE_GENERATE_TEST_CASES ActionType = "GenerateTestCases"
const ACTION_TYPE_GENERATE_USER_STORIES ActionType = "GenerateUserStories"

func ToActionType(at string) (ActionType, error) {
	for _, t := range []ActionType{
		ACTION_TYPE_PROPERTY_CHANGE,
		ACTION_TYPE_PROPERTY_CHANGE_USER_GROUPS,
		ACTION_TYPE_EMAIL_NOTIFICATION,
		ACTION_TYPE_WEBHOOK,
		ACTION_TYPE_GENERATE_CHILDREN,
		ACTION_TYPE_GENERATE_TEST_CASES,
		ACTION_TYPE_GENERATE_USER_STORIES,
	} {
		if strings.EqualFold(at, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid action type %s", at)
}

// Action is the effect of a workflow event trigger. The set of implementations
// is closed, callers switch on the concrete type to execute one.
type Action interface {
	GetActionType() ActionType
	ValidateAction(params *ExecutionParameters) *model.PropertySetResult
	sealed()
}

// SynchronousAction must complete before the workflow event finishes.
type SynchronousAction interface {
	Action
	synchronous()
}

// AsynchronousAction is handed off to the transport and executed later.
type AsynchronousAction interface {
	Action
	asynchronous()
}

type baseAction struct {
	actType ActionType
}

func (ba *baseAction) GetActionType() ActionType {
	return ba.actType
}

func (ba *baseAction) sealed() {}

type synchronousAction struct {
	baseAction
}

func (sa *synchronousAction) synchronous() {}

type asynchronousAction struct {
	baseAction
}

func (aa *asynchronousAction) asynchronous() {}

func IsSynchronous(act Action) bool {
	_, ok := act.(SynchronousAction)
	return ok
}
