package dispatch

import (
	"context"
	"fmt"

	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"go.uber.org/zap"
)

type JobQueue interface {
	AddJob(ctx context.Context, job *model.GenerationJob) error
}

// GenerateDispatcher turns generation and indexing requests into jobs for
// the services that own them.
type GenerateDispatcher struct {
	queue JobQueue
}

func NewGenerateDispatcher(queue JobQueue) *GenerateDispatcher {
	return &GenerateDispatcher{queue: queue}
}

func (d *GenerateDispatcher) GenerateDescendants(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateDescendantsMessage) error {
	return d.enqueue(ctx, msg, model.JOB_GENERATE_DESCENDANTS, payload.ArtifactId, payload.ProjectId, map[string]any{
		"childCount":        payload.ChildCount,
		"desiredItemTypeId": payload.DesiredItemTypeId,
		"typePredefined":    payload.TypePredefined,
	})
}

func (d *GenerateDispatcher) GenerateTests(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateTestsMessage) error {
	return d.enqueue(ctx, msg, model.JOB_GENERATE_TESTS, payload.ArtifactId, payload.ProjectId, nil)
}

func (d *GenerateDispatcher) GenerateUserStories(ctx context.Context, msg *model.ActionMessage, payload *model.GenerateUserStoriesMessage) error {
	return d.enqueue(ctx, msg, model.JOB_GENERATE_USER_STORIES, payload.ArtifactId, payload.ProjectId, nil)
}

// IndexArtifacts asks the search service to reindex the given artifacts.
func (d *GenerateDispatcher) IndexArtifacts(ctx context.Context, msg *model.ActionMessage, payload *model.ArtifactsChangedMessage) error {
	return d.enqueue(ctx, msg, model.JOB_SEARCH_INDEX, 0, 0, map[string]any{
		"artifactIds": payload.ArtifactIds,
		"changeType":  payload.ChangeType,
	})
}

func (d *GenerateDispatcher) enqueue(ctx context.Context, msg *model.ActionMessage, jobType model.JobType, artifactId int, projectId int, params map[string]any) error {
	job := &model.GenerationJob{
		JobType:    jobType,
		TenantId:   msg.TenantId,
		UserId:     msg.UserId,
		UserName:   msg.UserName,
		ArtifactId: artifactId,
		ProjectId:  projectId,
		Parameters: params,
	}
	if err := d.queue.AddJob(ctx, job); err != nil {
		return fmt.Errorf("add %s job: %w", jobType, err)
	}
	logger.Info("job queued", zap.String("job", job.JobId), zap.String("type", string(jobType)), zap.String("tenant", msg.TenantId), zap.Int("artifact", artifactId))
	return nil
}
