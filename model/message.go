package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type ActionType string

const ACTION_ARTIFACTS_PUBLISHED ActionType = "ArtifactsPublished"
const ACTION_ARTIFACTS_CHANGED ActionType = "ArtifactsChanged"
const ACTION_STATE_CHANGE ActionType = "StateChange"
const ACTION_PROPERTY_ITEM_TYPES_CHANGED ActionType = "PropertyItemTypesChanged"
const ACTION_WEBHOOK ActionType = "Webhook"
const ACTION_NOTIFICATION ActionType = "Notification"
const ACTION_GENERATE_DESCENDANTS ActionType = "GenerateDescendants"
const ACTION_GENERATE_TESTS ActionType = "GenerateTests"
const ACTION_GENERATE_USER_STORIES ActionType = "GenerateUserStories"
const ACTION_WORKFLOWS_CHANGED ActionType = "WorkflowsChanged"
const ACTION_USERS_GROUPS_CHANGED ActionType = "UsersGroupsChanged"
const ACTION_STATUS_CHECK ActionType = "StatusCheck"

var ActionTypes = []ActionType{
	ACTION_ARTIFACTS_PUBLISHED,
	ACTION_ARTIFACTS_CHANGED,
	ACTION_STATE_CHANGE,
	ACTION_PROPERTY_ITEM_TYPES_CHANGED,
	ACTION_WEBHOOK,
	ACTION_NOTIFICATION,
	ACTION_GENERATE_DESCENDANTS,
	ACTION_GENERATE_TESTS,
	ACTION_GENERATE_USER_STORIES,
	ACTION_WORKFLOWS_CHANGED,
	ACTION_USERS_GROUPS_CHANGED,
	ACTION_STATUS_CHECK,
}

func (at ActionType) Valid() bool {
	for _, t := range ActionTypes {
		if t == at {
			return true
		}
	}
	return false
}

// ActionMessage is the envelope carried by the transport. Payload holds the
// kind specific body selected by ActionType.
type ActionMessage struct {
	MessageId  string          `json:"messageId" validate:"required"`
	TenantId   string          `json:"tenantId"`
	ActionType ActionType      `json:"actionType" validate:"required"`
	UserId     int             `json:"userId"`
	UserName   string          `json:"userName"`
	RevisionId int             `json:"revisionId"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

func NewActionMessage(id string, tenantId string, actionType ActionType, userId int, revisionId int, payload any) (*ActionMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", actionType, err)
	}
	return &ActionMessage{
		MessageId:  id,
		TenantId:   tenantId,
		ActionType: actionType,
		UserId:     userId,
		RevisionId: revisionId,
		Timestamp:  time.Now().UTC(),
		Payload:    data,
	}, nil
}

// DecodePayload unmarshals and validates the payload of msg into T.
func DecodePayload[T any](msg *ActionMessage) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return nil, MalformedMessageError{Message: fmt.Sprintf("%s message has no payload", msg.ActionType)}
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, MalformedMessageError{Message: fmt.Sprintf("decode %s payload", msg.ActionType), Err: err}
	}
	if err := Validate(&payload); err != nil {
		return nil, MalformedMessageError{Message: fmt.Sprintf("invalid %s payload", msg.ActionType), Err: err}
	}
	return &payload, nil
}

type ArtifactsPublishedMessage struct {
	Artifacts []PublishedArtifactInformation `json:"artifacts" validate:"required,min=1,dive"`
}

type ArtifactsChangedMessage struct {
	ArtifactIds []int  `json:"artifactIds" validate:"required,min=1"`
	ChangeType  string `json:"changeType"`
}

type StateChangeMessage struct {
	ArtifactId  int    `json:"artifactId" validate:"required"`
	ProjectId   int    `json:"projectId" validate:"required"`
	ProjectName string `json:"projectName"`
	WorkflowId  int    `json:"workflowId" validate:"required"`
	FromStateId int    `json:"fromStateId"`
	ToStateId   int    `json:"toStateId" validate:"required"`
	ToStateName string `json:"toStateName"`
}

type PropertyItemTypesChangedMessage struct {
	ItemTypeIds     []int `json:"itemTypeIds"`
	PropertyTypeIds []int `json:"propertyTypeIds"`
	IsStandard      bool  `json:"isStandard"`
}

type GenerateDescendantsMessage struct {
	ArtifactId        int    `json:"artifactId" validate:"required"`
	ProjectId         int    `json:"projectId" validate:"required"`
	ChildCount        int    `json:"childCount" validate:"min=1"`
	DesiredItemTypeId int    `json:"desiredItemTypeId" validate:"required"`
	TypePredefined    string `json:"typePredefined"`
}

type GenerateTestsMessage struct {
	ArtifactId int `json:"artifactId" validate:"required"`
	ProjectId  int `json:"projectId" validate:"required"`
}

type GenerateUserStoriesMessage struct {
	ArtifactId int `json:"artifactId" validate:"required"`
	ProjectId  int `json:"projectId" validate:"required"`
}

type WorkflowsChangedMessage struct {
	WorkflowIds []int `json:"workflowIds" validate:"required,min=1"`
}

type UsersGroupsChangedMessage struct {
	UserIds  []int `json:"userIds"`
	GroupIds []int `json:"groupIds"`
}

type StatusCheckMessage struct {
	RequestedBy string `json:"requestedBy"`
}
