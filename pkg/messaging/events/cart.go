// Package events defines the messages exchanged over the cart subjects.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/shopspring/decimal"
)

// CartUpdatedEvent describes a mutation that was persisted.
type CartUpdatedEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	Op        string            `json:"op"`
	ProductID int               `json:"product_id"`
	// Amount is the product's amount after the mutation, 0 when it was removed.
	Amount    int             `json:"amount"`
	Items     int             `json:"items"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (e CartUpdatedEvent) Subject() string {
	return messaging.CartUpdatedSubject
}

func (e CartUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// CartNotificationEvent is a user-facing message raised by a cart operation.
type CartNotificationEvent struct {
	Carrier   map[string]string `json:"carrier,omitempty"`
	Kind      string            `json:"kind"`
	Op        string            `json:"op"`
	ProductID int               `json:"product_id"`
	Message   string            `json:"message"`
	RaisedAt  time.Time         `json:"raised_at"`
}

func (e CartNotificationEvent) Subject() string {
	return messaging.CartNotificationsSubject
}

func (e CartNotificationEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
