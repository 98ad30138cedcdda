package action

import (
	"testing"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/validation"
	"github.com/stretchr/testify/require"
)

func testParams() *ExecutionParameters {
	propertyTypes := []*model.WorkflowPropertyType{
		{InstancePropertyTypeId: 1, Name: "Title", PrimitiveType: model.PRIMITIVE_TEXT, IsRequired: true},
		{InstancePropertyTypeId: 2, Name: "Owner", PrimitiveType: model.PRIMITIVE_USER},
		{InstancePropertyTypeId: 3, Name: "Estimate", PrimitiveType: model.PRIMITIVE_NUMBER},
	}
	vctx := &model.ValidationContext{
		Users:  []model.UserGroup{{Id: 7, DisplayName: "Ada", Email: "ada@example.com"}},
		Groups: []model.UserGroup{{Id: 8, DisplayName: "QA", IsGroup: true}},
	}
	artifact := &model.ArtifactInfo{Id: 100, ProjectId: 1, Name: "Checkout", PredefinedType: model.PREDEFINED_PROCESS}
	return NewExecutionParameters(5, 12, artifact, propertyTypes, validation.NewValidators(), vctx)
}

func TestPropertyChangeAction(t *testing.T) {
	params := testParams()

	act := NewPropertyChangeAction(3, "4.5", nil)
	require.Nil(t, act.ValidateAction(params))
	require.Equal(t, "4.5", act.PropertyLiteValue.NumberValue.String())

	res := NewPropertyChangeAction(1, "", nil).ValidateAction(params)
	require.NotNil(t, res)
	require.Equal(t, validation.MSG_VALUE_EMPTY, res.Message)

	res = NewPropertyChangeAction(99, "x", nil).ValidateAction(params)
	require.NotNil(t, res)
	require.Equal(t, model.ERROR_PROPERTY_TYPE_NOT_FOUND, res.ErrorCode)

	res = NewPropertyChangeAction(2, "ada", nil).ValidateAction(params)
	require.NotNil(t, res)
	require.Equal(t, model.ERROR_INVALID_ARTIFACT_PROPERTY, res.ErrorCode)
	require.Contains(t, res.Message, "no longer a text property")
}

func TestPropertyChangeUserGroupsAction(t *testing.T) {
	params := testParams()

	act := NewPropertyChangeUserGroupsAction(2, []model.UserGroup{{Id: 7}, {Id: 8, IsGroup: true}})
	require.Nil(t, act.ValidateAction(params))
	require.Len(t, act.PropertyLiteValue.UsersAndGroups, 2)

	res := NewPropertyChangeUserGroupsAction(2, []model.UserGroup{{Id: 8}}).ValidateAction(params)
	require.NotNil(t, res)
	require.Equal(t, validation.MSG_USER_NOT_FOUND, res.Message)

	res = NewPropertyChangeUserGroupsAction(1, []model.UserGroup{{Id: 7}}).ValidateAction(params)
	require.NotNil(t, res)
}

func TestEmailNotificationAction(t *testing.T) {
	params := testParams()

	act := NewEmailNotificationAction([]string{"ops@example.com", "ada@example.com"}, []model.UserGroup{{Id: 7}}, "s", "h", "m")
	require.Nil(t, act.ValidateAction(params))
	require.Equal(t, []string{"ops@example.com", "ada@example.com"}, act.Recipients())

	require.NotNil(t, NewEmailNotificationAction(nil, nil, "s", "h", "m").ValidateAction(params))
	require.NotNil(t, NewEmailNotificationAction([]string{"not-an-email"}, nil, "s", "h", "m").ValidateAction(params))
	require.NotNil(t, NewEmailNotificationAction(nil, []model.UserGroup{{Id: 70}}, "s", "h", "m").ValidateAction(params))
}

func TestSynchronousPartition(t *testing.T) {
	require.True(t, IsSynchronous(NewPropertyChangeAction(1, "x", nil)))
	require.True(t, IsSynchronous(NewPropertyChangeUserGroupsAction(2, nil)))
	require.False(t, IsSynchronous(NewWebhookAction(1, "https://example.com")))
	require.False(t, IsSynchronous(NewEmailNotificationAction(nil, nil, "", "", "")))
	require.False(t, IsSynchronous(NewGenerateChildrenAction(1, 2)))
}

func TestGenerateActions(t *testing.T) {
	params := testParams()
	require.Nil(t, NewGenerateChildrenAction(3, 44).ValidateAction(params))
	require.NotNil(t, NewGenerateChildrenAction(0, 44).ValidateAction(params))
	require.NotNil(t, NewGenerateChildrenAction(11, 44).ValidateAction(params))
	require.Nil(t, NewGenerateTestCasesAction().ValidateAction(params))

	params.Artifact.PredefinedType = model.PREDEFINED_TEXTUAL_REQUIREMENT
	require.NotNil(t, NewGenerateUserStoriesAction().ValidateAction(params))
}

func TestParseDefinition(t *testing.T) {
	act, err := ParseDefinition([]byte(`{"type":"webhook","webhookId":3,"url":"https://hooks.example.com/x","signatureAlgorithm":"HMACSHA1"}`))
	require.NoError(t, err)
	wa, ok := act.(*WebhookAction)
	require.True(t, ok)
	require.Equal(t, model.SIGNATURE_HMACSHA1, wa.SignatureAlgorithm)
	require.Nil(t, wa.ValidateAction(nil))

	act, err = ParseDefinition([]byte(`{"type":"PropertyChange","propertyTypeId":3,"propertyValue":"2"}`))
	require.NoError(t, err)
	require.Equal(t, ACTION_TYPE_PROPERTY_CHANGE, act.GetActionType())

	_, err = ParseDefinition([]byte(`{"type":"javascript"}`))
	require.Error(t, err)

	wa = NewWebhookAction(4, "ftp://example.com")
	require.NotNil(t, wa.ValidateAction(nil))
}
