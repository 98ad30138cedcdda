package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/mohitkumar/actionhandler/logger"
	"github.com/mohitkumar/actionhandler/model"
	"github.com/mohitkumar/actionhandler/transport"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const HEADER_DEAD_LETTER_REASON = "X-Dead-Letter-Reason"

type Config struct {
	Url          string
	StreamName   string
	Subject      string
	ErrorSubject string
	ConsumerName string
	FetchWait    time.Duration
	AckWait      time.Duration
}

type natsTransport struct {
	conf     Config
	conn     *nc.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
}

var _ transport.Transport = new(natsTransport)

// Connect dials the server, retrying for a short while, and makes sure the
// stream and the durable consumer exist.
func Connect(ctx context.Context, conf Config) (*natsTransport, error) {
	if conf.FetchWait <= 0 {
		conf.FetchWait = 5 * time.Second
	}
	if conf.AckWait <= 0 {
		conf.AckWait = 5 * time.Minute
	}
	if conf.ConsumerName == "" {
		conf.ConsumerName = "actionhandler"
	}
	var conn *nc.Conn
	connect := func() error {
		var err error
		conn, err = nc.Connect(conf.Url, nc.Name("actionhandler-"+uuid.NewString()))
		if err != nil {
			logger.Warn("nats connect failed, retrying", zap.String("url", conf.Url), zap.Error(err))
		}
		return err
	}
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 5), ctx)); err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", conf.Url, err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("get jetstream: %w", err)
	}
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     conf.StreamName,
		Subjects: []string{conf.Subject, conf.ErrorSubject},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create stream %s: %w", conf.StreamName, err)
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       conf.ConsumerName,
		FilterSubject: conf.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       conf.AckWait,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	logger.Info("connected to nats", zap.String("stream", conf.StreamName), zap.String("subject", conf.Subject), zap.String("consumer", conf.ConsumerName))
	return &natsTransport{
		conf:     conf,
		conn:     conn,
		js:       js,
		consumer: consumer,
	}, nil
}

func (t *natsTransport) Publish(ctx context.Context, msg *model.ActionMessage) error {
	if msg.MessageId == "" {
		msg.MessageId = uuid.NewString()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode action message: %w", err)
	}
	if _, err := t.js.Publish(ctx, t.conf.Subject, data, jetstream.WithMsgID(msg.MessageId)); err != nil {
		return fmt.Errorf("publish %s: %w", msg.MessageId, err)
	}
	return nil
}

func (t *natsTransport) Receive(ctx context.Context) (*transport.Delivery, error) {
	batch, err := t.consumer.Fetch(1, jetstream.FetchMaxWait(t.conf.FetchWait))
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch from %s: %w", t.conf.Subject, err)
	}
	if msg, ok := <-batch.Messages(); ok {
		retryCount := 0
		if md, err := msg.Metadata(); err == nil && md.NumDelivered > 0 {
			retryCount = int(md.NumDelivered) - 1
		}
		return transport.NewDelivery(msg.Headers().Get(nc.MsgIdHdr), msg.Data(), retryCount, msg), nil
	}
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, nc.ErrTimeout) {
		logger.Warn("message fetch error", zap.Error(err))
	}
	return nil, nil
}

func (t *natsTransport) Ack(_ context.Context, d *transport.Delivery) error {
	msg, err := msgOf(d)
	if err != nil {
		return err
	}
	return msg.Ack()
}

func (t *natsTransport) Retry(_ context.Context, d *transport.Delivery, delay time.Duration) error {
	msg, err := msgOf(d)
	if err != nil {
		return err
	}
	return msg.NakWithDelay(delay)
}

func (t *natsTransport) DeadLetter(ctx context.Context, d *transport.Delivery, reason string) error {
	msg, err := msgOf(d)
	if err != nil {
		return err
	}
	out := nc.NewMsg(t.conf.ErrorSubject)
	out.Data = d.Body
	out.Header.Set(HEADER_DEAD_LETTER_REASON, reason)
	if d.Id != "" {
		out.Header.Set(nc.MsgIdHdr, d.Id+"-dead")
	}
	if _, err := t.js.PublishMsg(ctx, out); err != nil {
		return fmt.Errorf("publish to %s: %w", t.conf.ErrorSubject, err)
	}
	return msg.Term()
}

func (t *natsTransport) Close() error {
	return t.conn.Drain()
}

func msgOf(d *transport.Delivery) (jetstream.Msg, error) {
	msg, ok := d.Handle().(jetstream.Msg)
	if !ok {
		return nil, fmt.Errorf("delivery %s was not received from nats", d.Id)
	}
	return msg, nil
}
