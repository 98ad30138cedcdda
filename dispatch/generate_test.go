package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/mohitkumar/actionhandler/model"
	"github.com/stretchr/testify/require"
)

type fakeJobQueue struct {
	jobs []*model.GenerationJob
	err  error
}

func (q *fakeJobQueue) AddJob(ctx context.Context, job *model.GenerationJob) error {
	if q.err != nil {
		return q.err
	}
	job.JobId = "job-1"
	q.jobs = append(q.jobs, job)
	return nil
}

func TestGenerateDispatcher(t *testing.T) {
	queue := &fakeJobQueue{}
	d := NewGenerateDispatcher(queue)
	msg := &model.ActionMessage{TenantId: "t1", UserId: 5, UserName: "ada"}

	require.NoError(t, d.GenerateDescendants(context.Background(), msg, &model.GenerateDescendantsMessage{ArtifactId: 1, ProjectId: 2, ChildCount: 3, DesiredItemTypeId: 9}))
	require.NoError(t, d.GenerateTests(context.Background(), msg, &model.GenerateTestsMessage{ArtifactId: 4, ProjectId: 2}))
	require.NoError(t, d.GenerateUserStories(context.Background(), msg, &model.GenerateUserStoriesMessage{ArtifactId: 4, ProjectId: 2}))
	require.NoError(t, d.IndexArtifacts(context.Background(), msg, &model.ArtifactsChangedMessage{ArtifactIds: []int{1, 4}}))

	require.Len(t, queue.jobs, 4)
	require.Equal(t, model.JOB_GENERATE_DESCENDANTS, queue.jobs[0].JobType)
	require.Equal(t, 3, queue.jobs[0].Parameters["childCount"])
	require.Equal(t, "t1", queue.jobs[0].TenantId)
	require.Equal(t, 5, queue.jobs[0].UserId)
	require.Equal(t, model.JOB_GENERATE_TESTS, queue.jobs[1].JobType)
	require.Equal(t, model.JOB_GENERATE_USER_STORIES, queue.jobs[2].JobType)
	require.Equal(t, model.JOB_SEARCH_INDEX, queue.jobs[3].JobType)
	require.Equal(t, []int{1, 4}, queue.jobs[3].Parameters["artifactIds"])

	queue.err = errors.New("redis down")
	require.Error(t, d.GenerateTests(context.Background(), msg, &model.GenerateTestsMessage{ArtifactId: 4, ProjectId: 2}))
}
