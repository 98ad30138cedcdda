package handler

import (
	"context"
	"sync"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/trigger"
)

var _ persistence.Repository = new(fakeRepo)

type propertyWrite struct {
	artifactId int
	value      *model.PropertyLite
}

type fakeRepo struct {
	transitionTriggers  *trigger.WorkflowTriggersContainer
	newArtifactTriggers *trigger.WorkflowTriggersContainer
	changeTriggers      *trigger.WorkflowTriggersContainer
	instanceMap         map[int][]int
	requestedInstances  []int
	artifacts           map[int]*model.ArtifactInfo
	projects            []model.ProjectNameIdPair
	states              map[int]model.WorkflowState
	propertyTypes       []*model.WorkflowPropertyType
	validationContext   *model.ValidationContext
	affected            []int
	pingErr             error
	writeErr            error
	writes              []propertyWrite
}

func (r *fakeRepo) GetWorkflowEventTriggersForTransition(ctx context.Context, userId int, artifactId int, workflowId int, fromStateId int, toStateId int) (*trigger.WorkflowTriggersContainer, error) {
	return r.transitionTriggers, nil
}

func (r *fakeRepo) GetWorkflowEventTriggersForNewArtifactEvent(ctx context.Context, userId int, artifactIds []int, revisionId int) (*trigger.WorkflowTriggersContainer, error) {
	return r.newArtifactTriggers, nil
}

func (r *fakeRepo) GetWorkflowEventTriggersForPropertyChange(ctx context.Context, userId int, artifactIds []int, revisionId int, instancePropertyTypeIds []int) (*trigger.WorkflowTriggersContainer, error) {
	r.requestedInstances = instancePropertyTypeIds
	return r.changeTriggers, nil
}

func (r *fakeRepo) GetWorkflowStatesForArtifacts(ctx context.Context, userId int, artifactIds []int, revisionId int) (map[int]model.WorkflowState, error) {
	return r.states, nil
}

func (r *fakeRepo) GetInstancePropertyTypeIdsMap(ctx context.Context, customPropertyTypeIds []int) (map[int][]int, error) {
	return r.instanceMap, nil
}

func (r *fakeRepo) GetProjectNameByIds(ctx context.Context, projectIds []int) ([]model.ProjectNameIdPair, error) {
	return r.projects, nil
}

func (r *fakeRepo) GetPropertyTypesForArtifact(ctx context.Context, artifactId int, revisionId int) ([]*model.WorkflowPropertyType, error) {
	return r.propertyTypes, nil
}

func (r *fakeRepo) GetArtifactsInfo(ctx context.Context, artifactIds []int, revisionId int) (map[int]*model.ArtifactInfo, error) {
	out := make(map[int]*model.ArtifactInfo)
	for _, id := range artifactIds {
		if a, ok := r.artifacts[id]; ok {
			copied := *a
			out[id] = &copied
		}
	}
	return out, nil
}

func (r *fakeRepo) GetValidationContext(ctx context.Context, userIds []int, groupIds []int) (*model.ValidationContext, error) {
	if r.validationContext == nil {
		return &model.ValidationContext{}, nil
	}
	return r.validationContext, nil
}

func (r *fakeRepo) UpdateArtifactProperty(ctx context.Context, userId int, artifactId int, revisionId int, value *model.PropertyLite) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.writes = append(r.writes, propertyWrite{artifactId: artifactId, value: value})
	return nil
}

func (r *fakeRepo) GetArtifactIdsForWorkflows(ctx context.Context, workflowIds []int) ([]int, error) {
	return r.affected, nil
}

func (r *fakeRepo) GetArtifactIdsForUsersGroups(ctx context.Context, userIds []int, groupIds []int) ([]int, error) {
	return r.affected, nil
}

func (r *fakeRepo) GetArtifactIdsForItemTypes(ctx context.Context, itemTypeIds []int, propertyTypeIds []int) ([]int, error) {
	return r.affected, nil
}

func (r *fakeRepo) Ping(ctx context.Context) error {
	return r.pingErr
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*model.ActionMessage
}

func (p *fakePublisher) Publish(ctx context.Context, msg *model.ActionMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
	return nil
}

type fakeWebhooks struct {
	messageId   string
	retryNumber int
	err         error
}

func (w *fakeWebhooks) Deliver(ctx context.Context, msg *model.WebhookMessage, messageId string, retryNumber int) error {
	w.messageId = messageId
	w.retryNumber = retryNumber
	return w.err
}

type fakeNotifier struct {
	sent []*model.NotificationMessage
}

func (n *fakeNotifier) Send(ctx context.Context, tenant *model.Tenant, msg *model.NotificationMessage) error {
	n.sent = append(n.sent, msg)
	return nil
}

type fakeJobs struct {
	calls []string
}

func (j *fakeJobs) GenerateDescendants(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateDescendantsMessage) error {
	j.calls = append(j.calls, "descendants")
	return nil
}

func (j *fakeJobs) GenerateTests(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateTestsMessage) error {
	j.calls = append(j.calls, "tests")
	return nil
}

func (j *fakeJobs) GenerateUserStories(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateUserStoriesMessage) error {
	j.calls = append(j.calls, "userStories")
	return nil
}

func (j *fakeJobs) IndexArtifacts(ctx context.Context, msg *model.ActionMessage, payload *model.ArtifactsChangedMessage) error {
	j.calls = append(j.calls, "index")
	return nil
}
