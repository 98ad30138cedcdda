package handler

import (
	"context"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
)

func notificationHelper(notifier NotificationSender) func(context.Context, *model.Tenant, *model.ActionMessage, *model.NotificationMessage, persistence.Repository) error {
	return func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.NotificationMessage, _ persistence.Repository) error {
		return notifier.Send(ctx, tenant, payload)
	}
}

func webhookHelper(webhooks WebhookSender) func(context.Context, *model.Tenant, *model.ActionMessage, *model.WebhookMessage, persistence.Repository) error {
	return func(ctx context.Context, _ *model.Tenant, msg *model.ActionMessage, payload *model.WebhookMessage, _ persistence.Repository) error {
		return webhooks.Deliver(ctx, payload, msg.MessageId, RetryNumber(ctx))
	}
}

func generateDescendantsHelper(jobs JobDispatcher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.GenerateDescendantsMessage, persistence.Repository) error {
	return func(ctx context.Context, _ *model.Tenant, msg *model.ActionMessage, payload *model.GenerateDescendantsMessage, _ persistence.Repository) error {
		return jobs.GenerateDescendants(ctx, msg, payload)
	}
}

func generateTestsHelper(jobs JobDispatcher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.GenerateTestsMessage, persistence.Repository) error {
	return func(ctx context.Context, _ *model.Tenant, msg *model.ActionMessage, payload *model.GenerateTestsMessage, _ persistence.Repository) error {
		return jobs.GenerateTests(ctx, msg, payload)
	}
}

func generateUserStoriesHelper(jobs JobDispatcher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.GenerateUserStoriesMessage, persistence.Repository) error {
	return func(ctx context.Context, _ *model.Tenant, msg *model.ActionMessage, payload *model.GenerateUserStoriesMessage, _ persistence.Repository) error {
		return jobs.GenerateUserStories(ctx, msg, payload)
	}
}

func artifactsChangedHelper(jobs JobDispatcher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.ArtifactsChangedMessage, persistence.Repository) error {
	return func(ctx context.Context, _ *model.Tenant, msg *model.ActionMessage, payload *model.ArtifactsChangedMessage, _ persistence.Repository) error {
		return jobs.IndexArtifacts(ctx, msg, payload)
	}
}
