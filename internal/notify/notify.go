// Package notify delivers cart notifications to users and operators.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/abgdnv/shopcart/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Log writes each notification as a WARN line.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger.With("component", "notify")}
}

func (l *Log) Notify(ctx context.Context, n cart.Notification) {
	l.logger.WarnContext(ctx, n.Message,
		"kind", n.Kind,
		"op", n.Op,
		"product_id", n.ProductID,
	)
}

// Events publishes each notification as a CartNotificationEvent.
type Events struct {
	publisher messaging.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewEvents(publisher messaging.Publisher, logger *slog.Logger) *Events {
	return &Events{
		publisher: publisher,
		logger:    logger.With("component", "notify"),
		now:       time.Now,
	}
}

func (e *Events) Notify(ctx context.Context, n cart.Notification) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.CartNotificationEvent{
		Carrier:   carrier,
		Kind:      string(n.Kind),
		Op:        string(n.Op),
		ProductID: n.ProductID,
		Message:   n.Message,
		RaisedAt:  e.now().UTC(),
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish CartNotificationEvent", "error", err, "kind", n.Kind)
	}
}

// Fanout forwards each notification to every notifier in order.
type Fanout []cart.Notifier

func (f Fanout) Notify(ctx context.Context, n cart.Notification) {
	for _, notifier := range f {
		notifier.Notify(ctx, n)
	}
}

type collectorKey struct{}

// Collector buffers the notifications raised while serving one request.
type Collector struct {
	mu            sync.Mutex
	notifications []cart.Notification
}

// WithCollector returns a context carrying a fresh Collector.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// Notifications returns the collected notifications in the order they were raised.
func (c *Collector) Notifications() []cart.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cart.Notification(nil), c.notifications...)
}

func (c *Collector) add(n cart.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
}

// ContextCollector records notifications into the Collector carried by ctx, if any.
type ContextCollector struct{}

func (ContextCollector) Notify(ctx context.Context, n cart.Notification) {
	if c, ok := ctx.Value(collectorKey{}).(*Collector); ok {
		c.add(n)
	}
}
