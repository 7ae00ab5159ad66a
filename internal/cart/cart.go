// Package cart holds the shopper's cart and the rules for changing it.
//
// A Manager owns the cart entries. Every mutation is checked against the catalog stock,
// persisted as a JSON array under a single storage key and only then made visible to readers.
// Failures are never returned to callers: they are reported through a Notifier.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultStorageKey is the key the cart has always been saved under.
const DefaultStorageKey = "@RocketShoes:cart"

// Entry is one product line of the cart.
type Entry struct {
	ID     int             `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Amount int             `json:"amount"`
}

// Subtotal is the entry price multiplied by its amount.
func (e Entry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Amount)))
}

// Product is a catalog record. Amount is cart-specific and therefore absent.
type Product struct {
	ID    int             `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// Stock is the available quantity of a product.
type Stock struct {
	Amount int `json:"amount"`
}

var errMalformedCart = errors.New("malformed cart")

func newEntry(p Product, amount int) Entry {
	return Entry{
		ID:     p.ID,
		Title:  p.Title,
		Price:  p.Price,
		Image:  p.Image,
		Amount: amount,
	}
}

func indexOf(entries []Entry, productID int) int {
	for i, e := range entries {
		if e.ID == productID {
			return i
		}
	}
	return -1
}

func total(entries []Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Subtotal())
	}
	return sum
}

func encodeCart(entries []Entry) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeCart parses a stored cart and rejects data that breaks the cart invariants.
func decodeCart(raw string) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCart, err)
	}
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.ID < 1 {
			return nil, fmt.Errorf("%w: invalid product id %d", errMalformedCart, e.ID)
		}
		if e.Amount < 1 {
			return nil, fmt.Errorf("%w: product %d has amount %d", errMalformedCart, e.ID, e.Amount)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d", errMalformedCart, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
