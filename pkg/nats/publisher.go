package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type NatsPublisher struct {
	js jetstream.JetStream
}

var _ messaging.Publisher = (*NatsPublisher)(nil)

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

// Publish sends the event payload as JSON to the event's subject and waits for the stream ack.
func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	msg := nats.NewMsg(event.Subject())
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = data
	if _, err = p.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	return nil
}
