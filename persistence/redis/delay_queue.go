package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/persistence"
	"go.uber.org/zap"
)

// redisDelayQueue is a sorted set scored by the time a member becomes due.
type redisDelayQueue struct {
	*baseDao
}

func newRedisDelayQueue(baseDao *baseDao) *redisDelayQueue {
	return &redisDelayQueue{
		baseDao: baseDao,
	}
}

func (rq *redisDelayQueue) PushWithDelay(ctx context.Context, queueName string, delay time.Duration, message []byte) error {
	queueName = rq.getNamespaceKey(queueName)
	member := rd.Z{
		Score:  float64(time.Now().Add(delay).UnixMilli()),
		Member: message,
	}
	err := rq.redisClient.ZAdd(ctx, queueName, member).Err()
	if err != nil {
		logger.Error("error while push to redis delay queue", zap.String("queue", queueName), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

// Pop removes and returns every member that is due.
func (rq *redisDelayQueue) Pop(ctx context.Context, queueName string) ([]string, error) {
	queueName = rq.getNamespaceKey(queueName)
	currentTime := strconv.FormatInt(time.Now().UnixMilli(), 10)
	pipe := rq.redisClient.TxPipeline()

	opt := &rd.ZRangeBy{
		Min: strconv.Itoa(0),
		Max: currentTime,
	}
	zr := pipe.ZRangeByScore(ctx, queueName, opt)
	pipe.ZRemRangeByScore(ctx, queueName, strconv.Itoa(0), currentTime)

	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, rd.Nil) {
		logger.Error("error while pop from redis delay queue", zap.String("queue", queueName), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}

	res, err := zr.Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []string{}, nil
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return res, nil
}
