package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mohitkumar/actionhandler/action"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/trigger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo      *fakeRepo
	publisher *fakePublisher
	webhooks  *fakeWebhooks
	notifier  *fakeNotifier
	jobs      *fakeJobs
	status    *StatusBoard
	helpers   map[model.ActionType]ActionHelper
	tenant    *model.Tenant
}

func newFixture() *fixture {
	start, end := decimal.NewFromInt(1), decimal.NewFromInt(5)
	f := &fixture{
		repo: &fakeRepo{
			artifacts: map[int]*model.ArtifactInfo{
				42: {Id: 42, ProjectId: 1, Name: "Login", ItemTypeId: 7, PredefinedType: model.PREDEFINED_TEXTUAL_REQUIREMENT},
			},
			projects: []model.ProjectNameIdPair{{Id: 1, Name: "Mobile"}},
			states:   map[int]model.WorkflowState{42: {WorkflowId: 5, StateId: 10, StateName: "Draft"}},
			propertyTypes: []*model.WorkflowPropertyType{
				{
					InstancePropertyTypeId: 2,
					Name:                   "Priority",
					PrimitiveType:          model.PRIMITIVE_NUMBER,
					IsRequired:             true,
					IsValidate:             true,
					NumberRange:            model.NumberRange{Start: &start, End: &end},
				},
			},
		},
		publisher: &fakePublisher{},
		webhooks:  &fakeWebhooks{},
		notifier:  &fakeNotifier{},
		jobs:      &fakeJobs{},
		status:    NewStatusBoard(),
		tenant:    &model.Tenant{TenantId: "t1", Settings: model.TenantSettings{BaseUrl: "https://bp.example.com/"}},
	}
	f.helpers = NewHelpers(Config{
		Publisher: f.publisher,
		Webhooks:  f.webhooks,
		Notifier:  f.notifier,
		Jobs:      f.jobs,
		Status:    f.status,
	})
	return f
}

func (f *fixture) handle(t *testing.T, ctx context.Context, actionType model.ActionType, payload any) error {
	msg, err := model.NewActionMessage("m1", "t1", actionType, 3, 9, payload)
	require.NoError(t, err)
	return f.helpers[actionType].HandleAction(ctx, f.tenant, msg, f.repo)
}

func named(name string, artifactId int, act action.Action) *trigger.WorkflowEventTrigger {
	t := trigger.NewWorkflowEventTrigger(name, act)
	t.ArtifactId = artifactId
	return t
}

func decodeFollowUp[T any](t *testing.T, msg *model.ActionMessage) *T {
	payload, err := model.DecodePayload[T](msg)
	require.NoError(t, err)
	return payload
}

func TestNewHelpersCoversEveryActionType(t *testing.T) {
	helpers := newFixture().helpers
	for _, at := range model.ActionTypes {
		require.Contains(t, helpers, at)
	}
}

func TestArtifactsPublished(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, f *fixture){
		"new artifact triggers run":       testNewArtifactTriggers,
		"invalid priority is not applied": testInvalidPriority,
		"change triggers follow artifact": testChangeTriggersPerArtifact,
		"no triggers":                     testNoTriggers,
		"follow up ids are stable":        testStableFollowUpIds,
		"write failure is returned":       testWriteFailure,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newFixture())
		})
	}
}

func published(id int, firstTime bool, modified ...int) *model.ArtifactsPublishedMessage {
	info := model.PublishedArtifactInformation{Id: id, ProjectId: 1, IsFirstTimePublished: firstTime}
	for _, m := range modified {
		info.ModifiedProperties = append(info.ModifiedProperties, model.ModifiedProperty{PropertyTypeId: m})
	}
	return &model.ArtifactsPublishedMessage{Artifacts: []model.PublishedArtifactInformation{info}}
}

func testNewArtifactTriggers(t *testing.T, f *fixture) {
	f.repo.newArtifactTriggers = trigger.NewWorkflowTriggersContainer(
		named("SetPriority", 42, action.NewPropertyChangeAction(2, "3", nil)),
		named("Notify", 42, action.NewEmailNotificationAction([]string{"qa@example.com"}, nil, "Created", "", "")),
		named("Hook", 0, action.NewWebhookAction(11, "https://hooks.example.com/in")),
		named("OtherArtifact", 43, action.NewPropertyChangeAction(2, "4", nil)),
	)
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, published(42, true)))

	require.Len(t, f.repo.writes, 1)
	require.Equal(t, 42, f.repo.writes[0].artifactId)
	require.True(t, f.repo.writes[0].value.NumberValue.Equal(decimal.NewFromInt(3)))

	require.Len(t, f.publisher.published, 2)
	notification := f.publisher.published[0]
	require.Equal(t, model.ACTION_NOTIFICATION, notification.ActionType)
	require.Equal(t, "t1", notification.TenantId)
	n := decodeFollowUp[model.NotificationMessage](t, notification)
	require.Equal(t, []string{"qa@example.com"}, n.To)
	require.Equal(t, "Mobile", n.ProjectName)
	require.Equal(t, "https://bp.example.com/Web/#/Main/42", n.ArtifactUrl)
	require.Equal(t, model.PREDEFINED_TEXTUAL_REQUIREMENT, n.ArtifactTypePredefined)

	hook := decodeFollowUp[model.WebhookMessage](t, f.publisher.published[1])
	require.Equal(t, 11, hook.WebhookId)
	var body model.WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(hook.PayloadContent), &body))
	require.Equal(t, EVENT_ARTIFACT_CREATED, body.EventType)
	require.Equal(t, "Draft", body.State)
	require.Equal(t, 9, body.RevisionId)
}

func testInvalidPriority(t *testing.T, f *fixture) {
	f.repo.instanceMap = map[int][]int{200: {2}}
	f.repo.changeTriggers = trigger.NewWorkflowTriggersContainer(
		named("NotifyOnPriorityChange", 42, action.NewPropertyChangeAction(2, "6", nil)),
		named("NotifyOnPriorityChange", 42, action.NewEmailNotificationAction([]string{"qa@example.com"}, nil, "Priority changed", "", "")),
	)
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, published(42, false, 200)))
	require.Equal(t, []int{2}, f.repo.requestedInstances)
	require.Empty(t, f.repo.writes)
	require.Empty(t, f.publisher.published)
}

func testChangeTriggersPerArtifact(t *testing.T, f *fixture) {
	f.repo.artifacts[43] = &model.ArtifactInfo{Id: 43, ProjectId: 1, Name: "Logout", ItemTypeId: 7}
	f.repo.states[43] = model.WorkflowState{WorkflowId: 5, StateId: 10, StateName: "Draft"}
	f.repo.instanceMap = map[int][]int{200: {21}, 300: {22}}

	own := named("OnTitle", 42, action.NewWebhookAction(11, "https://hooks.example.com/title"))
	own.EventPropertyTypeId = 21
	foreign := named("OnOwner", 42, action.NewWebhookAction(12, "https://hooks.example.com/owner"))
	foreign.EventPropertyTypeId = 22
	peer := named("OnOwner", 43, action.NewWebhookAction(13, "https://hooks.example.com/owner"))
	peer.EventPropertyTypeId = 22
	f.repo.changeTriggers = trigger.NewWorkflowTriggersContainer(own, foreign, peer)

	msg := published(42, false, 200)
	msg.Artifacts = append(msg.Artifacts, published(43, false, 300).Artifacts...)
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, msg))

	require.ElementsMatch(t, []int{21, 22}, f.repo.requestedInstances)
	var hooks []int
	for _, m := range f.publisher.published {
		hooks = append(hooks, decodeFollowUp[model.WebhookMessage](t, m).WebhookId)
	}
	require.Equal(t, []int{11, 13}, hooks)
}

func testNoTriggers(t *testing.T, f *fixture) {
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, published(42, true)))
	require.Empty(t, f.repo.writes)
	require.Empty(t, f.publisher.published)
}

func testStableFollowUpIds(t *testing.T, f *fixture) {
	f.repo.newArtifactTriggers = trigger.NewWorkflowTriggersContainer(
		named("Hook", 42, action.NewWebhookAction(11, "https://hooks.example.com/in")),
	)
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, published(42, true)))
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, published(42, true)))
	require.Len(t, f.publisher.published, 2)
	require.Equal(t, f.publisher.published[0].MessageId, f.publisher.published[1].MessageId)
}

func testWriteFailure(t *testing.T, f *fixture) {
	f.repo.writeErr = errors.New("deadlock")
	f.repo.newArtifactTriggers = trigger.NewWorkflowTriggersContainer(
		named("SetPriority", 42, action.NewPropertyChangeAction(2, "3", nil)),
		named("Hook", 42, action.NewWebhookAction(11, "https://hooks.example.com/in")),
	)
	require.Error(t, f.handle(t, context.Background(), model.ACTION_ARTIFACTS_PUBLISHED, published(42, true)))
	require.Empty(t, f.publisher.published)
}

func TestStateChange(t *testing.T) {
	transition := &model.StateChangeMessage{ArtifactId: 42, ProjectId: 1, WorkflowId: 5, FromStateId: 10, ToStateId: 11, ToStateName: "Review"}

	for scenario, fn := range map[string]func(t *testing.T, f *fixture){
		"condition met": func(t *testing.T, f *fixture) {
			hook := named("Hook", 42, action.NewWebhookAction(11, "https://hooks.example.com/in"))
			hook.Condition = &trigger.PreviousStateCondition{StateId: 10}
			f.repo.transitionTriggers = trigger.NewWorkflowTriggersContainer(hook)
			require.NoError(t, f.handle(t, context.Background(), model.ACTION_STATE_CHANGE, transition))
			require.Len(t, f.publisher.published, 1)
			msg := decodeFollowUp[model.WebhookMessage](t, f.publisher.published[0])
			var body model.WebhookPayload
			require.NoError(t, json.Unmarshal([]byte(msg.PayloadContent), &body))
			require.Equal(t, EVENT_STATE_CHANGED, body.EventType)
			require.Equal(t, "Review", body.State)
			require.Equal(t, "Mobile", body.ProjectName)
		},
		"condition not met": func(t *testing.T, f *fixture) {
			hook := named("Hook", 42, action.NewWebhookAction(11, "https://hooks.example.com/in"))
			hook.Condition = &trigger.PreviousStateCondition{StateId: 99}
			f.repo.transitionTriggers = trigger.NewWorkflowTriggersContainer(hook)
			require.NoError(t, f.handle(t, context.Background(), model.ACTION_STATE_CHANGE, transition))
			require.Empty(t, f.publisher.published)
		},
		"user groups resolved": func(t *testing.T, f *fixture) {
			f.repo.validationContext = &model.ValidationContext{Groups: []model.UserGroup{{Id: 4, IsGroup: true, Email: "team@example.com"}}}
			f.repo.transitionTriggers = trigger.NewWorkflowTriggersContainer(
				named("NotifyTeam", 42, action.NewEmailNotificationAction(nil, []model.UserGroup{{Id: 4, IsGroup: true}}, "", "", "")),
			)
			require.NoError(t, f.handle(t, context.Background(), model.ACTION_STATE_CHANGE, transition))
			require.Len(t, f.publisher.published, 1)
			n := decodeFollowUp[model.NotificationMessage](t, f.publisher.published[0])
			require.Equal(t, []string{"team@example.com"}, n.To)
		},
		"missing artifact": func(t *testing.T, f *fixture) {
			f.repo.artifacts = nil
			f.repo.transitionTriggers = trigger.NewWorkflowTriggersContainer(
				named("Hook", 42, action.NewWebhookAction(11, "https://hooks.example.com/in")),
			)
			err := f.handle(t, context.Background(), model.ACTION_STATE_CHANGE, transition)
			var doNotRetry model.DoNotRetryError
			require.True(t, errors.As(err, &doNotRetry))
		},
		"malformed payload": func(t *testing.T, f *fixture) {
			err := f.handle(t, context.Background(), model.ACTION_STATE_CHANGE, map[string]any{"artifactId": "x"})
			var malformed model.MalformedMessageError
			require.True(t, errors.As(err, &malformed))
		},
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newFixture())
		})
	}
}

func TestDeliveryHelpers(t *testing.T) {
	f := newFixture()
	ctx := WithRetryNumber(context.Background(), 2)

	require.NoError(t, f.handle(t, ctx, model.ACTION_WEBHOOK, &model.WebhookMessage{Url: "https://hooks.example.com", PayloadContent: "{}"}))
	require.Equal(t, "m1", f.webhooks.messageId)
	require.Equal(t, 2, f.webhooks.retryNumber)

	f.webhooks.err = model.DoNotRetryError{Message: "gone"}
	require.Error(t, f.handle(t, ctx, model.ACTION_WEBHOOK, &model.WebhookMessage{Url: "https://hooks.example.com", PayloadContent: "{}"}))

	require.NoError(t, f.handle(t, ctx, model.ACTION_NOTIFICATION, &model.NotificationMessage{To: []string{"a@example.com"}}))
	require.Len(t, f.notifier.sent, 1)

	require.NoError(t, f.handle(t, ctx, model.ACTION_GENERATE_DESCENDANTS, &model.GenerateDescendantsMessage{ArtifactId: 1, ProjectId: 1, ChildCount: 2, DesiredItemTypeId: 3}))
	require.NoError(t, f.handle(t, ctx, model.ACTION_GENERATE_TESTS, &model.GenerateTestsMessage{ArtifactId: 1, ProjectId: 1}))
	require.NoError(t, f.handle(t, ctx, model.ACTION_GENERATE_USER_STORIES, &model.GenerateUserStoriesMessage{ArtifactId: 1, ProjectId: 1}))
	require.NoError(t, f.handle(t, ctx, model.ACTION_ARTIFACTS_CHANGED, &model.ArtifactsChangedMessage{ArtifactIds: []int{1}}))
	require.Equal(t, []string{"descendants", "tests", "userStories", "index"}, f.jobs.calls)

	require.Equal(t, 0, RetryNumber(context.Background()))
}

func TestMaintenanceHelpers(t *testing.T) {
	f := newFixture()
	f.repo.affected = []int{42, 43}

	require.NoError(t, f.handle(t, context.Background(), model.ACTION_WORKFLOWS_CHANGED, &model.WorkflowsChangedMessage{WorkflowIds: []int{5}}))
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_USERS_GROUPS_CHANGED, &model.UsersGroupsChangedMessage{UserIds: []int{3}}))
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_PROPERTY_ITEM_TYPES_CHANGED, &model.PropertyItemTypesChangedMessage{ItemTypeIds: []int{7}}))
	require.Len(t, f.publisher.published, 3)
	for i, changeType := range []string{CHANGE_TYPE_WORKFLOWS, CHANGE_TYPE_USERS_GROUPS, CHANGE_TYPE_PROPERTY_ITEM_TYPES} {
		msg := f.publisher.published[i]
		require.Equal(t, model.ACTION_ARTIFACTS_CHANGED, msg.ActionType)
		changed := decodeFollowUp[model.ArtifactsChangedMessage](t, msg)
		require.Equal(t, []int{42, 43}, changed.ArtifactIds)
		require.Equal(t, changeType, changed.ChangeType)
	}

	f.repo.affected = nil
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_WORKFLOWS_CHANGED, &model.WorkflowsChangedMessage{WorkflowIds: []int{5}}))
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_USERS_GROUPS_CHANGED, &model.UsersGroupsChangedMessage{}))
	require.Len(t, f.publisher.published, 3)
}

func TestStatusCheck(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_STATUS_CHECK, &model.StatusCheckMessage{RequestedBy: "ops"}))
	statuses := f.status.Snapshot()
	require.Len(t, statuses, 1)
	require.True(t, statuses[0].Healthy)
	require.Equal(t, "ops", statuses[0].RequestedBy)

	f.repo.pingErr = errors.New("connection refused")
	require.NoError(t, f.handle(t, context.Background(), model.ACTION_STATUS_CHECK, &model.StatusCheckMessage{}))
	statuses = f.status.Snapshot()
	require.False(t, statuses[0].Healthy)
	require.Equal(t, "connection refused", statuses[0].Error)
}

func TestArtifactUrl(t *testing.T) {
	require.Equal(t, "", ArtifactUrl("", 1))
	require.Equal(t, "https://x.example.com/Web/#/Main/1", ArtifactUrl("https://x.example.com", 1))
}
