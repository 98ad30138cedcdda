package transport

import (
	"context"
	"time"

	"github.com/mohitkumar/actionhandler/model"
)

// Delivery is one received message. Body is the raw envelope, it is decoded
// by the consumer so a malformed body can still be dead-lettered.
type Delivery struct {
	Id         string
	Body       []byte
	RetryCount int
	handle     any
}

func NewDelivery(id string, body []byte, retryCount int, handle any) *Delivery {
	return &Delivery{
		Id:         id,
		Body:       body,
		RetryCount: retryCount,
		handle:     handle,
	}
}

// Handle is the implementation specific value needed to settle the delivery.
func (d *Delivery) Handle() any {
	return d.handle
}

type Publisher interface {
	Publish(ctx context.Context, msg *model.ActionMessage) error
}

// Transport is an at-least-once queue. Every received delivery must be
// settled with exactly one of Ack, Retry or DeadLetter.
type Transport interface {
	Publisher
	// Receive returns nil without error when no message arrived within the poll window.
	Receive(ctx context.Context) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	Retry(ctx context.Context, d *Delivery, delay time.Duration) error
	DeadLetter(ctx context.Context, d *Delivery, reason string) error
	Close() error
}
