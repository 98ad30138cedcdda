package handler

import (
	"context"

	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"go.uber.org/zap"
)

type stateChangeHelper struct {
	pipeline *pipeline
}

func newStateChangeHelper(p *pipeline) *stateChangeHelper {
	return &stateChangeHelper{pipeline: p}
}

func (h *stateChangeHelper) handle(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.StateChangeMessage, repo persistence.Repository) error {
	container, err := repo.GetWorkflowEventTriggersForTransition(ctx, msg.UserId, payload.ArtifactId, payload.WorkflowId, payload.FromStateId, payload.ToStateId)
	if err != nil {
		return err
	}
	if container.IsEmpty() {
		logger.Info("no triggers configured for transition", zap.Int("artifact", payload.ArtifactId), zap.Int("workflow", payload.WorkflowId),
			zap.Int("from", payload.FromStateId), zap.Int("to", payload.ToStateId))
		return nil
	}

	infos, err := repo.GetArtifactsInfo(ctx, []int{payload.ArtifactId}, msg.RevisionId)
	if err != nil {
		return err
	}
	info, ok := infos[payload.ArtifactId]
	if !ok {
		return model.DoNotRetryError{Message: "artifact of the state change does not exist"}
	}
	if info.ProjectName == "" {
		info.ProjectName = payload.ProjectName
	}
	if info.ProjectName == "" {
		if err := fillProjectNames(ctx, repo, infos, []int{info.ProjectId}); err != nil {
			return err
		}
	}

	ev := event{eventType: EVENT_STATE_CHANGED, stateName: payload.ToStateName}
	res, err := h.pipeline.run(ctx, tenant, msg, repo, info, container, payload.FromStateId, ev)
	if err != nil {
		return err
	}
	if !res.HasActions() {
		logger.Info("no transition trigger produced an action", zap.Int("artifact", payload.ArtifactId), zap.Int("to", payload.ToStateId), zap.Int("invalid", len(res.Errors)))
		return nil
	}
	logger.Info("transition triggers processed", zap.Int("artifact", payload.ArtifactId), zap.Int("to", payload.ToStateId),
		zap.Int("sync", len(res.SyncActions)), zap.Int("async", len(res.AsyncActions)), zap.Int("invalid", len(res.Errors)))
	return nil
}
