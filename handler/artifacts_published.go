package handler

import (
	"context"

	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/trigger"
	"github.com/mohitkumar/actionhandler/util"
	"go.uber.org/zap"
)

// artifactsPublishedHelper runs new artifact triggers for artifacts published
// for the first time and property change triggers for modified properties.
type artifactsPublishedHelper struct {
	pipeline *pipeline
}

func newArtifactsPublishedHelper(p *pipeline) *artifactsPublishedHelper {
	return &artifactsPublishedHelper{pipeline: p}
}

func (h *artifactsPublishedHelper) handle(ctx context.Context, tenant *model.Tenant, msg *model.ActionMessage, payload *model.ArtifactsPublishedMessage, repo persistence.Repository) error {
	var newIds, modifiedIds, customPropertyTypeIds, projectIds []int
	for _, a := range payload.Artifacts {
		projectIds = append(projectIds, a.ProjectId)
		if a.IsFirstTimePublished {
			newIds = append(newIds, a.Id)
			continue
		}
		if len(a.ModifiedProperties) > 0 {
			modifiedIds = append(modifiedIds, a.Id)
			for _, p := range a.ModifiedProperties {
				customPropertyTypeIds = append(customPropertyTypeIds, p.PropertyTypeId)
			}
		}
	}
	if len(newIds)+len(modifiedIds) == 0 {
		logger.Debug("no published artifact needs trigger evaluation", zap.String("message", msg.MessageId))
		return nil
	}

	newTriggers, err := h.newArtifactTriggers(ctx, msg, repo, newIds)
	if err != nil {
		return err
	}
	changeTriggers, instanceMap, err := h.propertyChangeTriggers(ctx, msg, repo, modifiedIds, customPropertyTypeIds)
	if err != nil {
		return err
	}
	ids := append(append([]int{}, newIds...), modifiedIds...)
	if newTriggers.IsEmpty() && changeTriggers.IsEmpty() {
		logger.Info("no triggers configured for published artifacts", zap.String("message", msg.MessageId), zap.Ints("artifacts", ids))
		return nil
	}

	infos, err := repo.GetArtifactsInfo(ctx, ids, msg.RevisionId)
	if err != nil {
		return err
	}
	if err := fillProjectNames(ctx, repo, infos, util.Unique(projectIds)); err != nil {
		return err
	}
	states, err := repo.GetWorkflowStatesForArtifacts(ctx, msg.UserId, ids, msg.RevisionId)
	if err != nil {
		return err
	}

	for _, a := range payload.Artifacts {
		container, eventType := changeTriggers.ForPropertyChange(a.Id, changedInstances(a, instanceMap)), EVENT_PROPERTY_CHANGED
		if a.IsFirstTimePublished {
			container, eventType = newTriggers.ForArtifact(a.Id), EVENT_ARTIFACT_CREATED
		}
		if container.IsEmpty() {
			continue
		}
		info, ok := infos[a.Id]
		if !ok {
			logger.Warn("published artifact not found, skipping its triggers", zap.Int("artifact", a.Id), zap.Int("revision", msg.RevisionId))
			continue
		}
		ev := event{eventType: eventType, stateName: states[a.Id].StateName}
		res, err := h.pipeline.run(ctx, tenant, msg, repo, info, container, states[a.Id].StateId, ev)
		if err != nil {
			return err
		}
		logger.Info("published artifact triggers processed", zap.Int("artifact", a.Id), zap.String("event", eventType),
			zap.Int("sync", len(res.SyncActions)), zap.Int("async", len(res.AsyncActions)), zap.Int("invalid", len(res.Errors)))
	}
	return nil
}

func (h *artifactsPublishedHelper) newArtifactTriggers(ctx context.Context, msg *model.ActionMessage, repo persistence.Repository, ids []int) (*trigger.WorkflowTriggersContainer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return repo.GetWorkflowEventTriggersForNewArtifactEvent(ctx, msg.UserId, ids, msg.RevisionId)
}

// propertyChangeTriggers loads the triggers of every modified artifact in one
// query, they are narrowed per artifact with changedInstances afterwards.
func (h *artifactsPublishedHelper) propertyChangeTriggers(ctx context.Context, msg *model.ActionMessage, repo persistence.Repository, ids []int, customPropertyTypeIds []int) (*trigger.WorkflowTriggersContainer, map[int][]int, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	instanceMap, err := repo.GetInstancePropertyTypeIdsMap(ctx, util.Unique(customPropertyTypeIds))
	if err != nil {
		return nil, nil, err
	}
	var instanceIds []int
	for _, custom := range util.Unique(customPropertyTypeIds) {
		instanceIds = append(instanceIds, instanceMap[custom]...)
	}
	if len(instanceIds) == 0 {
		return nil, instanceMap, nil
	}
	triggers, err := repo.GetWorkflowEventTriggersForPropertyChange(ctx, msg.UserId, ids, msg.RevisionId, util.Unique(instanceIds))
	return triggers, instanceMap, err
}

// changedInstances maps the properties one artifact modified to their instance property type ids.
func changedInstances(a model.PublishedArtifactInformation, instanceMap map[int][]int) []int {
	var ids []int
	for _, p := range a.ModifiedProperties {
		ids = append(ids, instanceMap[p.PropertyTypeId]...)
	}
	return ids
}

func fillProjectNames(ctx context.Context, repo persistence.Repository, infos map[int]*model.ArtifactInfo, projectIds []int) error {
	if len(projectIds) == 0 {
		return nil
	}
	pairs, err := repo.GetProjectNameByIds(ctx, projectIds)
	if err != nil {
		return err
	}
	names := make(map[int]string, len(pairs))
	for _, p := range pairs {
		names[p.Id] = p.Name
	}
	for _, info := range infos {
		if name, ok := names[info.ProjectId]; ok && info.ProjectName == "" {
			info.ProjectName = name
		}
	}
	return nil
}
