package action

import (
	"encoding/json"
	"fmt"

	"github.com/mohitkumar/actionhandler/model"
)

// Definition is the stored form of an action, one JSON document per trigger.
type Definition struct {
	Type                        string                   `json:"type"`
	PropertyTypeId              int                      `json:"propertyTypeId,omitempty"`
	PropertyValue               string                   `json:"propertyValue,omitempty"`
	ValidValues                 []int                    `json:"validValues,omitempty"`
	UserGroups                  []model.UserGroup        `json:"userGroups,omitempty"`
	Emails                      []string                 `json:"emails,omitempty"`
	Subject                     string                   `json:"subject,omitempty"`
	Header                      string                   `json:"header,omitempty"`
	Message                     string                   `json:"message,omitempty"`
	WebhookId                   int                      `json:"webhookId,omitempty"`
	Url                         string                   `json:"url,omitempty"`
	IgnoreInvalidSSLCertificate bool                     `json:"ignoreInvalidSslCertificate,omitempty"`
	HttpHeaders                 []string                 `json:"httpHeaders,omitempty"`
	BasicAuthUsername           string                   `json:"basicAuthUsername,omitempty"`
	BasicAuthPassword           string                   `json:"basicAuthPassword,omitempty"`
	SignatureSecretToken        string                   `json:"signatureSecretToken,omitempty"`
	SignatureAlgorithm          model.SignatureAlgorithm `json:"signatureAlgorithm,omitempty"`
	ChildCount                  int                      `json:"childCount,omitempty"`
	ArtifactTypeId              int                      `json:"artifactTypeId,omitempty"`
}

func ParseDefinition(data []byte) (Action, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode action definition: %w", err)
	}
	return FromDefinition(def)
}

func FromDefinition(def Definition) (Action, error) {
	actionType, err := ToActionType(def.Type)
	if err != nil {
		return nil, err
	}
	switch actionType {
	case ACTION_TYPE_PROPERTY_CHANGE:
		return NewPropertyChangeAction(def.PropertyTypeId, def.PropertyValue, def.ValidValues), nil
	case ACTION_TYPE_PROPERTY_CHANGE_USER_GROUPS:
		return NewPropertyChangeUserGroupsAction(def.PropertyTypeId, def.UserGroups), nil
	case ACTION_TYPE_EMAIL_NOTIFICATION:
		return NewEmailNotificationAction(def.Emails, def.UserGroups, def.Subject, def.Header, def.Message), nil
	case ACTION_TYPE_WEBHOOK:
		wa := NewWebhookAction(def.WebhookId, def.Url)
		wa.IgnoreInvalidSSLCertificate = def.IgnoreInvalidSSLCertificate
		wa.HttpHeaders = def.HttpHeaders
		wa.BasicAuthUsername = def.BasicAuthUsername
		wa.BasicAuthPassword = def.BasicAuthPassword
		wa.SignatureSecretToken = def.SignatureSecretToken
		if def.SignatureAlgorithm != "" {
			wa.SignatureAlgorithm = def.SignatureAlgorithm
		}
		return wa, nil
	case ACTION_TYPE_GENERATE_CHILDREN:
		return NewGenerateChildrenAction(def.ChildCount, def.ArtifactTypeId), nil
	case ACTION_TYPE_GENERATE_TEST_CASES:
		return NewGenerateTestCasesAction(), nil
	case ACTION_TYPE_GENERATE_USER_STORIES:
		return NewGenerateUserStoriesAction(), nil
	}
	return nil, fmt.Errorf("action %s implementation not found", def.Type)
}
