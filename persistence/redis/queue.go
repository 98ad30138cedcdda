package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/transport"
	"github.com/mohitkumar/actionhandler/util"
	"go.uber.org/zap"
)

const RETRY_QUEUE_SUFFIX = "retry"
const PROCESSING_QUEUE_SUFFIX = "processing"
const CONSUMER_HEARTBEAT_SUFFIX = "consumer"
const DEFAULT_CONSUMER_TIMEOUT = 30 * time.Second

// record is the list element, the envelope travels untouched in Body.
type record struct {
	Id         string `json:"id"`
	RetryCount int    `json:"retryCount"`
	Body       string `json:"body"`
	Reason     string `json:"reason,omitempty"`
}

// redisQueue moves every received message into a per consumer processing
// list until it is settled, retries wait in a delay queue. Every started
// consumer keeps a heartbeat key alive; the processing list of a consumer
// whose heartbeat expired is moved back to the main queue by its peers.
type redisQueue struct {
	*baseDao
	conf       QueueConfig
	delayQueue *redisDelayQueue
	encDec     util.EncoderDecoder[record]
	promoter   *util.TickWorker
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

var _ transport.Transport = new(redisQueue)

func NewRedisQueue(config Config, queueConfig QueueConfig) *redisQueue {
	if queueConfig.PollInterval <= 0 {
		queueConfig.PollInterval = time.Second
	}
	if queueConfig.ConsumerName == "" {
		queueConfig.ConsumerName = uuid.NewString()
	}
	if queueConfig.ConsumerTimeout <= 0 {
		queueConfig.ConsumerTimeout = DEFAULT_CONSUMER_TIMEOUT
	}
	if queueConfig.ConsumerTimeout < 3*queueConfig.PollInterval {
		queueConfig.ConsumerTimeout = 3 * queueConfig.PollInterval
	}
	bd := newBaseDao(config)
	rq := &redisQueue{
		baseDao:    bd,
		conf:       queueConfig,
		delayQueue: newRedisDelayQueue(bd),
		encDec:     util.NewJsonEncoderDecoder[record](),
	}
	rq.promoter = util.NewTickWorker("redis-queue-maintenance", queueConfig.PollInterval, rq.maintain, &rq.wg)
	return rq
}

// Start re-queues messages left in this consumer's processing list by a
// previous crash, claims the lists of consumers that stopped heartbeating
// and starts moving due retries back to the main queue.
func (rq *redisQueue) Start(ctx context.Context) error {
	recovered, err := rq.requeue(ctx, rq.processingKey())
	if err != nil {
		return err
	}
	if recovered > 0 {
		logger.Warn("recovered in-flight messages", zap.String("consumer", rq.conf.ConsumerName), zap.Int("count", recovered))
	}
	if err := rq.heartbeat(ctx); err != nil {
		return err
	}
	if _, err := rq.reclaimOrphans(ctx); err != nil {
		return err
	}
	rq.promoter.Start()
	return nil
}

func (rq *redisQueue) maintain() {
	ctx := context.Background()
	if err := rq.heartbeat(ctx); err != nil {
		logger.Error("error refreshing consumer heartbeat", zap.String("consumer", rq.conf.ConsumerName), zap.Error(err))
	}
	rq.promoteDue()
	if _, err := rq.reclaimOrphans(ctx); err != nil {
		logger.Error("error reclaiming orphaned messages", zap.Error(err))
	}
}

func (rq *redisQueue) heartbeat(ctx context.Context) error {
	err := rq.redisClient.Set(ctx, rq.heartbeatKey(rq.conf.ConsumerName), time.Now().UTC().Format(time.RFC3339), rq.conf.ConsumerTimeout).Err()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

// reclaimOrphans moves the processing lists of consumers without a live
// heartbeat back to the main queue.
func (rq *redisQueue) reclaimOrphans(ctx context.Context) (int, error) {
	prefix := rq.processingKeyOf("")
	total := 0
	iter := rq.redisClient.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		consumer := strings.TrimPrefix(key, prefix)
		if consumer == rq.conf.ConsumerName {
			continue
		}
		alive, err := rq.redisClient.Exists(ctx, rq.heartbeatKey(consumer)).Result()
		if err != nil {
			return total, persistence.StorageLayerError{Message: err.Error()}
		}
		if alive > 0 {
			continue
		}
		moved, err := rq.requeue(ctx, key)
		total += moved
		if err != nil {
			return total, err
		}
		if moved > 0 {
			logger.Warn("reclaimed in-flight messages of a dead consumer", zap.String("consumer", consumer), zap.Int("count", moved))
		}
	}
	if err := iter.Err(); err != nil {
		return total, persistence.StorageLayerError{Message: err.Error()}
	}
	return total, nil
}

func (rq *redisQueue) requeue(ctx context.Context, processingKey string) (int, error) {
	moved := 0
	for {
		err := rq.redisClient.LMove(ctx, processingKey, rq.mainKey(), "RIGHT", "LEFT").Err()
		if errors.Is(err, rd.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, persistence.StorageLayerError{Message: err.Error()}
		}
		moved++
	}
}

func (rq *redisQueue) mainKey() string {
	return rq.getNamespaceKey(rq.conf.MessageQueue)
}

func (rq *redisQueue) errorKey() string {
	return rq.getNamespaceKey(rq.conf.ErrorQueue)
}

func (rq *redisQueue) processingKey() string {
	return rq.processingKeyOf(rq.conf.ConsumerName)
}

func (rq *redisQueue) processingKeyOf(consumer string) string {
	return rq.getNamespaceKey(rq.conf.MessageQueue, PROCESSING_QUEUE_SUFFIX, consumer)
}

func (rq *redisQueue) heartbeatKey(consumer string) string {
	return rq.getNamespaceKey(rq.conf.MessageQueue, CONSUMER_HEARTBEAT_SUFFIX, consumer)
}

func (rq *redisQueue) retryQueueName() string {
	return rq.conf.MessageQueue + ":" + RETRY_QUEUE_SUFFIX
}

func (rq *redisQueue) Publish(ctx context.Context, msg *model.ActionMessage) error {
	if msg.MessageId == "" {
		msg.MessageId = uuid.NewString()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode action message: %w", err)
	}
	data, err := rq.encDec.Encode(record{Id: msg.MessageId, Body: string(body)})
	if err != nil {
		return err
	}
	if err := rq.redisClient.LPush(ctx, rq.mainKey(), data).Err(); err != nil {
		logger.Error("error while push to redis list", zap.String("queue", rq.mainKey()), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisQueue) Receive(ctx context.Context) (*transport.Delivery, error) {
	raw, err := rq.redisClient.LMove(ctx, rq.mainKey(), rq.processingKey(), "RIGHT", "LEFT").Result()
	if errors.Is(err, rd.Nil) {
		select {
		case <-ctx.Done():
		case <-time.After(rq.conf.PollInterval):
		}
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		logger.Error("error while pop from redis list", zap.String("queue", rq.mainKey()), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	rec, err := rq.encDec.Decode([]byte(raw))
	if err != nil {
		// not one of ours, hand the raw element over so it gets dead-lettered
		return transport.NewDelivery("", []byte(raw), 0, raw), nil
	}
	return transport.NewDelivery(rec.Id, []byte(rec.Body), rec.RetryCount, raw), nil
}

func (rq *redisQueue) Ack(ctx context.Context, d *transport.Delivery) error {
	raw, err := rawOf(d)
	if err != nil {
		return err
	}
	if err := rq.redisClient.LRem(ctx, rq.processingKey(), 1, raw).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisQueue) Retry(ctx context.Context, d *transport.Delivery, delay time.Duration) error {
	raw, err := rawOf(d)
	if err != nil {
		return err
	}
	data, err := rq.encDec.Encode(record{Id: d.Id, RetryCount: d.RetryCount + 1, Body: string(d.Body)})
	if err != nil {
		return err
	}
	if err := rq.delayQueue.PushWithDelay(ctx, rq.retryQueueName(), delay, data); err != nil {
		return err
	}
	if err := rq.redisClient.LRem(ctx, rq.processingKey(), 1, raw).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisQueue) DeadLetter(ctx context.Context, d *transport.Delivery, reason string) error {
	raw, err := rawOf(d)
	if err != nil {
		return err
	}
	data, err := rq.encDec.Encode(record{Id: d.Id, RetryCount: d.RetryCount, Body: string(d.Body), Reason: reason})
	if err != nil {
		return err
	}
	_, err = rq.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.LPush(ctx, rq.errorKey(), data)
		pipe.LRem(ctx, rq.processingKey(), 1, raw)
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisQueue) promoteDue() {
	ctx := context.Background()
	due, err := rq.delayQueue.Pop(ctx, rq.retryQueueName())
	if err != nil {
		logger.Error("error polling retry queue", zap.Error(err))
		return
	}
	for _, msg := range due {
		if err := rq.redisClient.LPush(ctx, rq.mainKey(), msg).Err(); err != nil {
			logger.Error("error re-queueing retried message", zap.String("queue", rq.mainKey()), zap.Error(err))
		}
	}
}

func (rq *redisQueue) Close() error {
	var err error
	rq.closeOnce.Do(func() {
		if rq.promoter.IsRunning() {
			rq.promoter.Stop()
		}
		rq.wg.Wait()
		// unsettled messages become claimable by the other consumers right away
		if delErr := rq.redisClient.Del(context.Background(), rq.heartbeatKey(rq.conf.ConsumerName)).Err(); delErr != nil {
			logger.Warn("error removing consumer heartbeat", zap.String("consumer", rq.conf.ConsumerName), zap.Error(delErr))
		}
		err = rq.baseDao.Close()
	})
	return err
}

func rawOf(d *transport.Delivery) (string, error) {
	raw, ok := d.Handle().(string)
	if !ok {
		return "", fmt.Errorf("delivery %s was not received from redis", d.Id)
	}
	return raw, nil
}
