package cart

import (
	"context"
	"sync"

	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/abgdnv/shopcart/pkg/messaging"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// fakeStock serves stock amounts by product id.
type fakeStock struct {
	mu     sync.Mutex
	stock  map[int]int
	err    error
	calls  int
	gate   chan struct{} // when set, Stock blocks until it is closed
	inside chan struct{} // signalled when a call is blocked on gate
}

func (f *fakeStock) Stock(ctx context.Context, productID int) (Stock, error) {
	if f.gate != nil {
		if f.inside != nil {
			f.inside <- struct{}{}
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return Stock{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Stock{}, f.err
	}
	return Stock{Amount: f.stock[productID]}, nil
}

// fakeProducts serves catalog products by id.
type fakeProducts struct {
	mu       sync.Mutex
	products map[int]Product
	err      error
	calls    int
}

func (f *fakeProducts) Product(_ context.Context, productID int) (Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Product{}, f.err
	}
	p, ok := f.products[productID]
	if !ok {
		return Product{}, carterrors.ErrProductNotFound
	}
	return p, nil
}

// fakeStorage is an in-memory Storage with injectable errors.
type fakeStorage struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{values: make(map[string]string)}
}

func (f *fakeStorage) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", carterrors.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.values[key] = value
	return nil
}

func (f *fakeStorage) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// recorder collects notifications.
type recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func randomProduct(id int) Product {
	return Product{
		ID:    id,
		Title: gofakeit.ProductName(),
		Price: decimal.NewFromFloat(gofakeit.Price(1, 500)).Round(2),
		Image: gofakeit.URL(),
	}
}

func catalogOf(ids ...int) map[int]Product {
	products := make(map[int]Product, len(ids))
	for _, id := range ids {
		products[id] = randomProduct(id)
	}
	return products
}
