// Package subscriber consumes cart notification events from JetStream and delivers them to a Sink.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/abgdnv/shopcart/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"
)

var errInvalidEvent = errors.New("invalid notification event")

// Sink delivers a notification to the shopper.
type Sink interface {
	Deliver(ctx context.Context, event events.CartNotificationEvent) error
}

// LogSink renders notifications as toast lines in the log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Deliver(ctx context.Context, event events.CartNotificationEvent) error {
	s.Logger.InfoContext(ctx, "toast: "+event.Message,
		slog.String("kind", event.Kind),
		slog.String("op", event.Op),
		slog.Int("product_id", event.ProductID),
		slog.String("raised_at", event.RaisedAt.Format(time.RFC3339)))
	return nil
}

// ackableMsg is the part of jetstream.Msg the handler uses.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// Start creates the durable consumer on stream and runs the configured number of workers
// until ctx is cancelled. ready, if not nil, is called once the consumer exists.
func Start(ctx context.Context, js jetstream.JetStream, stream string, subscriberCfg config.SubscriberConfig,
	sink Sink, logger *slog.Logger, ready func()) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    subscriberCfg.MaxDeliver,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer %s on stream %s: %w", subscriberCfg.Consumer, stream, err)
	}
	if ready != nil {
		ready()
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := range subscriberCfg.Workers {
		workerLogger := logger.With("worker", i)
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg, sink, workerLogger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and handles every message in them.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, sink Sink, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(cfg.Interval):
				}
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, sink, logger)
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
				logger.Warn("batch ended with error", "error", err)
			}
		}
	}
}

// handleMessage delivers one notification. Undecodable or invalid events are terminated,
// sink failures are nak'ed for redelivery.
func handleMessage(ctx context.Context, msg ackableMsg, sink Sink, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	event, err := decode(msg.Data())
	if err != nil {
		logger.Error("dropping notification", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(event.Carrier))
	if err := sink.Deliver(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to deliver notification", "error", err, "product_id", event.ProductID)
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

func decode(data []byte) (events.CartNotificationEvent, error) {
	var event events.CartNotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("%w: %v", errInvalidEvent, err)
	}
	if event.Message == "" || event.ProductID < 1 {
		return event, fmt.Errorf("%w: missing message or product id", errInvalidEvent)
	}
	return event, nil
}
