package cart

import "context"

// StockSource returns the current stock of a product.
type StockSource interface {
	Stock(ctx context.Context, productID int) (Stock, error)
}

// ProductSource returns the catalog details of a product.
type ProductSource interface {
	Product(ctx context.Context, productID int) (Product, error)
}

// Storage is a string key-value store.
type Storage interface {
	// Get returns the value stored under key.
	// Returns ErrKeyNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Notifier receives the user-facing outcome of failed operations.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}
