package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/abgdnv/shopcart/pkg/logger"
	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/abgdnv/shopcart/pkg/messaging/events"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/abgdnv/shopcart/internal/cart"

// Dependencies are the collaborators of a Manager.
// Stock, Products and Storage are required.
type Dependencies struct {
	Stock     StockSource
	Products  ProductSource
	Storage   Storage
	Notifier  Notifier
	Publisher messaging.Publisher
	Logger    *slog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the cart. Mutations are serialized, so the stock check and the write it
// guards are never interleaved with another mutation.
type Manager struct {
	stock     StockSource
	products  ProductSource
	storage   Storage
	notifier  Notifier
	publisher messaging.Publisher
	logger    *slog.Logger
	key       string
	now       func() time.Time

	// sem is a one-slot semaphore held for the whole read-validate-persist sequence.
	sem chan struct{}

	mu      sync.RWMutex
	entries []Entry

	tracer     trace.Tracer
	operations metric.Int64Counter
}

// NewManager creates a Manager and loads the saved cart. An absent or malformed saved cart
// yields an empty cart; a storage read error is returned.
func NewManager(ctx context.Context, deps Dependencies, opts ...Option) (*Manager, error) {
	if deps.Stock == nil || deps.Products == nil || deps.Storage == nil {
		return nil, errors.New("cart: stock source, product source and storage are required")
	}
	m := &Manager{
		stock:     deps.Stock,
		products:  deps.Products,
		storage:   deps.Storage,
		notifier:  deps.Notifier,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		key:       DefaultStorageKey,
		now:       time.Now,
		sem:       make(chan struct{}, 1),
		entries:   []Entry{},
		tracer:    otel.Tracer(instrumentationName),
	}
	if m.notifier == nil {
		m.notifier = NotifierFunc(func(context.Context, Notification) {})
	}
	if m.publisher == nil {
		m.publisher = messaging.NoopPublisher{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "cart")
	for _, opt := range opts {
		opt(m)
	}

	operations, err := otel.Meter(instrumentationName).Int64Counter("cart_operations",
		metric.WithDescription("Cart operations by outcome"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_operations counter: %v", err))
	}
	m.operations = operations

	if err := m.load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load(ctx context.Context) error {
	raw, err := m.storage.Get(ctx, m.key)
	if errors.Is(err, carterrors.ErrKeyNotFound) {
		m.logger.InfoContext(ctx, "No saved cart, starting empty", "key", m.key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", carterrors.ErrLoadCart, err)
	}
	entries, err := decodeCart(raw)
	if err != nil {
		m.logger.WarnContext(ctx, "Saved cart is malformed, starting empty", "key", m.key, "error", err)
		return nil
	}
	m.entries = entries
	m.logger.InfoContext(ctx, "Saved cart loaded", "key", m.key, "items", len(entries))
	return nil
}

// Items returns a copy of the cart entries in insertion order.
func (m *Manager) Items() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries)
}

// Total returns the sum of price times amount over the cart.
func (m *Manager) Total() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return total(m.entries)
}

// AddProduct adds one unit of the product, appending it with amount 1 when it is not in the
// cart yet. It reports false when a notification was raised instead.
func (m *Manager) AddProduct(ctx context.Context, productID int) bool {
	return m.run(ctx, OpAdd, productID, func(ctx context.Context, entries []Entry) ([]Entry, error) {
		idx := indexOf(entries, productID)

		stock, err := m.stock.Stock(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", carterrors.ErrStockLookup, err)
		}

		current := 0
		if idx >= 0 {
			current = entries[idx].Amount
		}
		desired := current + 1
		if desired > stock.Amount {
			return nil, fmt.Errorf("product %d: available %d, requested %d: %w",
				productID, stock.Amount, desired, carterrors.ErrInsufficientStock)
		}

		if idx >= 0 {
			entries[idx].Amount = desired
			return entries, nil
		}

		product, err := m.products.Product(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", carterrors.ErrProductLookup, err)
		}
		if product.ID != productID {
			return nil, fmt.Errorf("%w: asked for product %d, got %d",
				carterrors.ErrProductLookup, productID, product.ID)
		}
		return append(entries, newEntry(product, 1)), nil
	})
}

// RemoveProduct removes the product from the cart. Removing a product that is not in the
// cart is a failure.
func (m *Manager) RemoveProduct(ctx context.Context, productID int) bool {
	return m.run(ctx, OpRemove, productID, func(_ context.Context, entries []Entry) ([]Entry, error) {
		idx := indexOf(entries, productID)
		if idx < 0 {
			return nil, fmt.Errorf("product %d: %w", productID, carterrors.ErrProductNotInCart)
		}
		return slices.Delete(entries, idx, idx+1), nil
	})
}

// UpdateProductAmount sets the amount of a product already in the cart.
// A non-positive amount is ignored and reported as completed.
func (m *Manager) UpdateProductAmount(ctx context.Context, productID, amount int) bool {
	if amount <= 0 {
		m.logger.DebugContext(ctx, "Ignoring non-positive amount", "product_id", productID, "amount", amount)
		m.operations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", string(OpUpdate)),
			attribute.String("outcome", "noop"),
		))
		return true
	}
	return m.run(ctx, OpUpdate, productID, func(ctx context.Context, entries []Entry) ([]Entry, error) {
		stock, err := m.stock.Stock(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", carterrors.ErrStockLookup, err)
		}
		if amount > stock.Amount {
			return nil, fmt.Errorf("product %d: available %d, requested %d: %w",
				productID, stock.Amount, amount, carterrors.ErrInsufficientStock)
		}

		idx := indexOf(entries, productID)
		if idx < 0 {
			return nil, fmt.Errorf("product %d: %w", productID, carterrors.ErrProductNotInCart)
		}
		entries[idx].Amount = amount
		return entries, nil
	})
}

// mutation computes the next cart from a private copy of the current one.
type mutation func(ctx context.Context, entries []Entry) ([]Entry, error)

// run executes a mutation under the operation slot, then reports its outcome.
func (m *Manager) run(ctx context.Context, op Op, productID int, mutate mutation) bool {
	ctx, span := m.tracer.Start(ctx, "cart."+string(op), trace.WithAttributes(
		attribute.Int("cart.product_id", productID),
	))
	defer span.End()
	ctx = logger.AppendCtx(ctx, slog.String("op", string(op)), slog.Int("product_id", productID))

	next, err := m.apply(ctx, mutate)
	if err != nil {
		m.fail(ctx, span, op, productID, err)
		return false
	}

	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)),
		attribute.String("outcome", "success"),
	))
	m.logger.InfoContext(ctx, "Cart updated", "items", len(next))
	m.publishUpdated(ctx, op, productID, next)
	return true
}

// apply holds the operation slot while the mutation runs and its result is persisted.
// The in-memory cart only changes after a successful write.
func (m *Manager) apply(ctx context.Context, mutate mutation) ([]Entry, error) {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", carterrors.ErrCartBusy, context.Cause(ctx))
	}
	defer func() { <-m.sem }()

	next, err := mutate(ctx, m.Items())
	if err != nil {
		return nil, err
	}

	raw, err := encodeCart(next)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrEncodeCart, err)
	}
	if err := m.storage.Set(ctx, m.key, raw); err != nil {
		return nil, fmt.Errorf("%w: %w", carterrors.ErrPersistCart, err)
	}

	m.mu.Lock()
	m.entries = next
	m.mu.Unlock()
	return slices.Clone(next), nil
}

// fail turns an operation error into a notification. The error itself stays in the logs.
func (m *Manager) fail(ctx context.Context, span trace.Span, op Op, productID int, err error) {
	n := Notification{Op: op, ProductID: productID}
	switch {
	case errors.Is(err, carterrors.ErrInsufficientStock):
		n.Kind = KindInsufficientStock
		n.Message = MessageInsufficientStock
		m.logger.WarnContext(ctx, "Insufficient stock", "error", err)
	case errors.Is(err, carterrors.ErrProductNotInCart):
		n.Kind = KindNotInCart
		n.Message = op.FailureMessage()
		m.logger.WarnContext(ctx, "Product is not in the cart", "error", err)
	default:
		n.Kind = KindFailed
		n.Message = op.FailureMessage()
		m.logger.ErrorContext(ctx, "Cart operation failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(n.Kind))
	}
	span.SetAttributes(attribute.String("cart.outcome", string(n.Kind)))
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)),
		attribute.String("outcome", string(n.Kind)),
	))
	m.notifier.Notify(ctx, n)
}

func (m *Manager) publishUpdated(ctx context.Context, op Op, productID int, entries []Entry) {
	amount := 0
	if idx := indexOf(entries, productID); idx >= 0 {
		amount = entries[idx].Amount
	}
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.CartUpdatedEvent{
		Carrier:   carrier,
		Op:        string(op),
		ProductID: productID,
		Amount:    amount,
		Items:     len(entries),
		Total:     total(entries),
		UpdatedAt: m.now().UTC(),
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish CartUpdatedEvent", "error", err)
	}
}
