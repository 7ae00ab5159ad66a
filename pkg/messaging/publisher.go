package messaging

import (
	"context"
)

const (
	// CartUpdatedSubject carries one event per successful cart mutation.
	CartUpdatedSubject = "cart.updated"
	// CartNotificationsSubject carries user-facing cart notifications.
	CartNotificationsSubject = "cart.notifications"
	// CartSubjects matches every cart subject; used as the stream filter.
	CartSubjects = "cart.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
