package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/actionhandler/analytics"
	"github.com/mohitkumar/actionhandler/handler"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/metrics"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/persistence"
	"github.com/mohitkumar/actionhandler/transport"
	"github.com/mohitkumar/actionhandler/util"
	"go.uber.org/zap"
)

const UNKNOWN_ACTION_TYPE = "unknown"

type TenantResolver interface {
	GetTenant(ctx context.Context, tenantId string) (*model.Tenant, error)
}

type Config struct {
	Transport      transport.Transport
	Tenants        TenantResolver
	Repositories   persistence.RepositoryFactory
	Helpers        map[model.ActionType]handler.ActionHelper
	Collector      analytics.DataCollector
	MaxConcurrency int
	// MaxRetryCount bounds the deliveries of a failing message, zero retries forever.
	MaxRetryCount int
	// RetryInterval is the delay of failures that do not carry their own.
	RetryInterval time.Duration
}

// Host consumes the transport and settles every delivery with ack, retry or
// dead-letter depending on the outcome of its action helper.
type Host struct {
	conf          Config
	encDec        util.EncoderDecoder[model.ActionMessage]
	worker        *util.Worker
	wg            sync.WaitGroup
	stop          chan struct{}
	cancelReceive context.CancelFunc
}

func NewHost(conf Config) *Host {
	if conf.Collector == nil {
		conf.Collector, _ = analytics.NewDataCollector(analytics.DataCollectorConfig{})
	}
	if conf.RetryInterval <= 0 {
		conf.RetryInterval = time.Minute
	}
	return &Host{
		conf:   conf,
		encDec: util.NewJsonEncoderDecoder[model.ActionMessage](),
		stop:   make(chan struct{}),
	}
}

func (h *Host) Start() {
	h.worker = util.NewWorker("action-message", &h.wg, func(a util.Action) error {
		h.Process(context.Background(), a.(*transport.Delivery))
		return nil
	}, h.conf.MaxConcurrency)
	h.worker.Start()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancelReceive = cancel
	h.wg.Add(1)
	go h.receive(ctx)
	logger.Info("message host started", zap.Int("concurrency", h.conf.MaxConcurrency), zap.Int("maxRetryCount", h.conf.MaxRetryCount))
}

func (h *Host) receive(ctx context.Context) {
	defer h.wg.Done()
	for {
		select {
		case <-h.stop:
			return
		default:
		}
		d, err := h.conf.Transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("error receiving message", zap.Error(err))
			select {
			case <-time.After(time.Second):
			case <-h.stop:
				return
			}
			continue
		}
		if d == nil {
			continue
		}
		select {
		case h.worker.Sender() <- d:
		case <-h.stop:
			// left unsettled, the transport redelivers it
			return
		}
	}
}

// Stop waits for in-flight messages to be settled.
func (h *Host) Stop() {
	logger.Info("stopping message host")
	close(h.stop)
	if h.cancelReceive != nil {
		h.cancelReceive()
	}
	if h.worker != nil {
		h.worker.Stop()
	}
	h.wg.Wait()
}

// Process handles one delivery and returns the outcome it was settled with.
func (h *Host) Process(ctx context.Context, d *transport.Delivery) string {
	start := time.Now()
	msg, err := h.decode(d.Body)
	if err != nil {
		return h.settle(ctx, d, &model.ActionMessage{MessageId: d.Id}, err)
	}
	err = h.dispatch(ctx, d, msg)
	metrics.MessageDuration.WithLabelValues(string(msg.ActionType)).Observe(time.Since(start).Seconds())
	return h.settle(ctx, d, msg, err)
}

func (h *Host) decode(body []byte) (*model.ActionMessage, error) {
	msg, err := h.encDec.Decode(body)
	if err != nil {
		return nil, model.MalformedMessageError{Message: "decode envelope", Err: err}
	}
	if err := model.Validate(msg); err != nil {
		return nil, model.MalformedMessageError{Message: "invalid envelope", Err: err}
	}
	if !msg.ActionType.Valid() {
		return nil, model.MalformedMessageError{Message: fmt.Sprintf("unknown action type %s", msg.ActionType)}
	}
	return msg, nil
}

func (h *Host) dispatch(ctx context.Context, d *transport.Delivery, msg *model.ActionMessage) (err error) {
	helper, ok := h.conf.Helpers[msg.ActionType]
	if !ok {
		return model.MalformedMessageError{Message: fmt.Sprintf("no helper handles %s", msg.ActionType)}
	}
	tenant, err := h.conf.Tenants.GetTenant(ctx, msg.TenantId)
	if err != nil {
		return err
	}
	if msg.TenantId == "" {
		msg.TenantId = tenant.TenantId
	}
	repo, err := h.conf.Repositories.ForTenant(ctx, tenant)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("action helper panicked", zap.String("message", msg.MessageId), zap.String("actionType", string(msg.ActionType)), zap.Any("panic", r))
			err = fmt.Errorf("%s helper panicked: %v", msg.ActionType, r)
		}
	}()
	return helper.HandleAction(handler.WithRetryNumber(ctx, d.RetryCount), tenant, msg, repo)
}

func (h *Host) settle(ctx context.Context, d *transport.Delivery, msg *model.ActionMessage, err error) string {
	outcome, reason := metrics.OUTCOME_SUCCEEDED, ""
	if err == nil {
		if ackErr := h.conf.Transport.Ack(ctx, d); ackErr != nil {
			logger.Error("error acknowledging message", zap.String("message", msg.MessageId), zap.Error(ackErr))
		}
	} else {
		reason = err.Error()
		delay, retryable := h.classify(err)
		if retryable && h.conf.MaxRetryCount > 0 && d.RetryCount+1 >= h.conf.MaxRetryCount {
			retryable = false
			reason = fmt.Sprintf("retry limit %d reached: %s", h.conf.MaxRetryCount, reason)
		}
		if retryable {
			outcome = metrics.OUTCOME_RETRY_SCHEDULED
			logger.Error("message failed, retry scheduled", zap.String("message", msg.MessageId), zap.String("actionType", string(msg.ActionType)),
				zap.Int("retryCount", d.RetryCount), zap.Duration("retryInterval", delay), zap.Error(err))
			if retryErr := h.conf.Transport.Retry(ctx, d, delay); retryErr != nil {
				logger.Error("error scheduling retry", zap.String("message", msg.MessageId), zap.Error(retryErr))
			}
		} else {
			outcome = metrics.OUTCOME_DEAD_LETTERED
			logger.Error("message dead lettered", zap.String("message", msg.MessageId), zap.String("actionType", string(msg.ActionType)),
				zap.Int("retryCount", d.RetryCount), zap.String("reason", reason))
			if dlErr := h.conf.Transport.DeadLetter(ctx, d, reason); dlErr != nil {
				logger.Error("error dead lettering message", zap.String("message", msg.MessageId), zap.Error(dlErr))
			}
		}
	}

	actionType := string(msg.ActionType)
	if actionType == "" {
		actionType = UNKNOWN_ACTION_TYPE
	}
	metrics.MessagesProcessed.WithLabelValues(actionType, outcome).Inc()
	h.conf.Collector.RecordOutcome(analytics.Outcome{
		TenantId:   msg.TenantId,
		MessageId:  msg.MessageId,
		ActionType: actionType,
		Result:     outcome,
		RetryCount: d.RetryCount,
		Reason:     reason,
	})
	return outcome
}

// classify reports whether err is worth another delivery and after which delay.
func (h *Host) classify(err error) (time.Duration, bool) {
	var retry model.RetryPolicyError
	var doNotRetry model.DoNotRetryError
	var notFound model.TenantNotFoundError
	var malformed model.MalformedMessageError
	switch {
	case errors.As(err, &retry):
		if retry.RetryInterval > 0 {
			return retry.RetryInterval, true
		}
		return h.conf.RetryInterval, true
	case errors.As(err, &doNotRetry), errors.As(err, &notFound), errors.As(err, &malformed):
		return 0, false
	}
	return h.conf.RetryInterval, true
}
