package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/util"
	"go.uber.org/zap"
)

const JOB_QUEUE_KEY = "jobs"

// redisJobQueue keeps one list of pending jobs per tenant, consumed by the
// generation services.
type redisJobQueue struct {
	*baseDao
	encDec util.EncoderDecoder[model.GenerationJob]
}

var _ persistence.JobQueue = new(redisJobQueue)

func NewRedisJobQueue(config Config) *redisJobQueue {
	return &redisJobQueue{
		baseDao: newBaseDao(config),
		encDec:  util.NewJsonEncoderDecoder[model.GenerationJob](),
	}
}

func (jq *redisJobQueue) AddJob(ctx context.Context, job *model.GenerationJob) error {
	if job.JobId == "" {
		job.JobId = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	data, err := jq.encDec.Encode(*job)
	if err != nil {
		return err
	}
	key := jq.getNamespaceKey(JOB_QUEUE_KEY, job.TenantId)
	if err := jq.redisClient.LPush(ctx, key, data).Err(); err != nil {
		logger.Error("error while adding job", zap.String("queue", key), zap.String("jobType", string(job.JobType)), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

// PendingJobs lists the queued jobs of a tenant, oldest first.
func (jq *redisJobQueue) PendingJobs(ctx context.Context, tenantId string) ([]*model.GenerationJob, error) {
	key := jq.getNamespaceKey(JOB_QUEUE_KEY, tenantId)
	values, err := jq.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	jobs := make([]*model.GenerationJob, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		job, err := jq.encDec.Decode([]byte(values[i]))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
