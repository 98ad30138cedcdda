package handler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/transport"
	"go.uber.org/zap"
)

const CHANGE_TYPE_WORKFLOWS = "Workflows"
const CHANGE_TYPE_USERS_GROUPS = "UsersGroups"
const CHANGE_TYPE_PROPERTY_ITEM_TYPES = "PropertyItemTypes"

func workflowsChangedHelper(publisher transport.Publisher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.WorkflowsChangedMessage, persistence.Repository) error {
	return func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.WorkflowsChangedMessage, repo persistence.Repository) error {
		ids, err := repo.GetArtifactIdsForWorkflows(ctx, payload.WorkflowIds)
		if err != nil {
			return err
		}
		return publishArtifactsChanged(ctx, publisher, tenant, msg, ids, CHANGE_TYPE_WORKFLOWS)
	}
}

func usersGroupsChangedHelper(publisher transport.Publisher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.UsersGroupsChangedMessage, persistence.Repository) error {
	return func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.UsersGroupsChangedMessage, repo persistence.Repository) error {
		if len(payload.UserIds)+len(payload.GroupIds) == 0 {
			return nil
		}
		ids, err := repo.GetArtifactIdsForUsersGroups(ctx, payload.UserIds, payload.GroupIds)
		if err != nil {
			return err
		}
		return publishArtifactsChanged(ctx, publisher, tenant, msg, ids, CHANGE_TYPE_USERS_GROUPS)
	}
}

func propertyItemTypesChangedHelper(publisher transport.Publisher) func(context.Context, *model.Tenant, *model.ActionMessage, *model.PropertyItemTypesChangedMessage, persistence.Repository) error {
	return func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.PropertyItemTypesChangedMessage, repo persistence.Repository) error {
		if len(payload.ItemTypeIds)+len(payload.PropertyTypeIds) == 0 {
			return nil
		}
		ids, err := repo.GetArtifactIdsForItemTypes(ctx, payload.ItemTypeIds, payload.PropertyTypeIds)
		if err != nil {
			return err
		}
		return publishArtifactsChanged(ctx, publisher, tenant, msg, ids, CHANGE_TYPE_PROPERTY_ITEM_TYPES)
	}
}

func publishArtifactsChanged(ctx context.Context, publisher transport.Publisher, tenant *model.Tenant, parent *model.ActionMessage, artifactIds []int, changeType string) error {
	if len(artifactIds) == 0 {
		logger.Info("change affects no artifacts", zap.String("message", parent.MessageId), zap.String("changeType", changeType))
		return nil
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%s", parent.MessageId, changeType))).String()
	msg, err := model.NewActionMessage(id, tenant.TenantId, model.ACTION_ARTIFACTS_CHANGED, parent.UserId, parent.RevisionId, &model.ArtifactsChangedMessage{
		ArtifactIds: artifactIds,
		ChangeType:  changeType,
	})
	if err != nil {
		return err
	}
	msg.UserName = parent.UserName
	if err := publisher.Publish(ctx, msg); err != nil {
		return err
	}
	logger.Info("artifacts changed message published", zap.String("parent", parent.MessageId), zap.String("changeType", changeType), zap.Int("artifacts", len(artifactIds)))
	return nil
}

func statusCheckHelper(board *StatusBoard) func(context.Context, *model.Tenant, *model.ActionMessage, *model.StatusCheckMessage, persistence.Repository) error {
	return func(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.StatusCheckMessage, repo persistence.Repository) error {
		err := repo.Ping(ctx)
		board.Record(tenant.TenantId, payload.RequestedBy, err)
		if err != nil {
			logger.Error("tenant database is not reachable", zap.String("tenant", tenant.TenantId), zap.Error(err))
		}
		return nil
	}
}
