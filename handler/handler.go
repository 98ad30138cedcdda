package handler

import (
	"context"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/transport"
	"github.com/mohitkumar/actionhandler/validation"
)

// ActionHelper handles one kind of action message for a resolved tenant.
type ActionHelper interface {
	HandleAction(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, repo persistence.Repository) error
}

type ActionHelperFunc func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, repo persistence.Repository) error

func (f ActionHelperFunc) HandleAction(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, repo persistence.Repository) error {
	return f(ctx, tenant, msg, repo)
}

// decoding wraps a payload handler with envelope decoding, a bad payload
// surfaces as model.MalformedMessageError.
func decoding[T any](fn func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *T, repo persistence.Repository) error) ActionHelper {
	return ActionHelperFunc(func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, repo persistence.Repository) error {
		payload, err := model.DecodePayload[T](msg)
		if err != nil {
			return err
		}
		return fn(ctx, tenant, msg, payload, repo)
	})
}

type WebhookSender interface {
	Deliver(ctx context.Context, msg *model.WebhookMessage, messageId string, retryNumber int) error
}

type NotificationSender interface {
	Send(ctx context.Context, tenant *model.Tenant, msg *model.NotificationMessage) error
}

type JobDispatcher interface {
	GenerateDescendants(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateDescendantsMessage) error
	GenerateTests(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateTestsMessage) error
	GenerateUserStories(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateUserStoriesMessage) error
	IndexArtifacts(ctx context.Context, msg *model.ActionMessage, payload *model.ArtifactsChangedMessage) error
}

type Config struct {
	Publisher  transport.Publisher
	Webhooks   WebhookSender
	Notifier   NotificationSender
	Jobs       JobDispatcher
	Validators *validation.Validators
	Status     *StatusBoard
}

// NewHelpers returns the helper of every action type.
func NewHelpers(conf Config) map[model.ActionType]ActionHelper {
	if conf.Validators == nil {
		conf.Validators = validation.NewValidators()
	}
	if conf.Status == nil {
		conf.Status = NewStatusBoard()
	}
	p := &pipeline{publisher: conf.Publisher, validators: conf.Validators}
	return map[model.ActionType]ActionHelper{
		model.ACTION_ARTIFACTS_PUBLISHED:         decoding(newArtifactsPublishedHelper(p).handle),
		model.ACTION_STATE_CHANGE:                decoding(newStateChangeHelper(p).handle),
		model.ACTION_NOTIFICATION:                decoding(notificationHelper(conf.Notifier)),
		model.ACTION_WEBHOOK:                     decoding(webhookHelper(conf.Webhooks)),
		model.ACTION_GENERATE_DESCENDANTS:        decoding(generateDescendantsHelper(conf.Jobs)),
		model.ACTION_GENERATE_TESTS:              decoding(generateTestsHelper(conf.Jobs)),
		model.ACTION_GENERATE_USER_STORIES:       decoding(generateUserStoriesHelper(conf.Jobs)),
		model.ACTION_ARTIFACTS_CHANGED:           decoding(artifactsChangedHelper(conf.Jobs)),
		model.ACTION_WORKFLOWS_CHANGED:           decoding(workflowsChangedHelper(conf.Publisher)),
		model.ACTION_USERS_GROUPS_CHANGED:        decoding(usersGroupsChangedHelper(conf.Publisher)),
		model.ACTION_PROPERTY_ITEM_TYPES_CHANGED: decoding(propertyItemTypesChangedHelper(conf.Publisher)),
		model.ACTION_STATUS_CHECK:                decoding(statusCheckHelper(conf.Status)),
	}
}

type retryNumberKey struct{}

// WithRetryNumber stores how many times the current message was redelivered.
func WithRetryNumber(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, retryNumberKey{}, n)
}

func RetryNumber(ctx context.Context) int {
	n, _ := ctx.Value(retryNumberKey{}).(int)
	return n
}
