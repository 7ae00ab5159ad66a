// Package errors provides the sentinel errors of cart operations.
package errors

import "errors"

// ErrInsufficientStock is a normal rejection: the requested amount exceeds the stock.
var ErrInsufficientStock = errors.New("requested amount exceeds available stock")

// ErrProductNotInCart rejects a remove or update that targets a product absent from the cart.
var ErrProductNotInCart = errors.New("product is not in the cart")

var ErrStockLookup = errors.New("failed to fetch product stock")
var ErrProductLookup = errors.New("failed to fetch product details")
var ErrProductNotFound = errors.New("product not found in catalog")
var ErrMalformedCatalogResponse = errors.New("malformed catalog response")

var ErrEncodeCart = errors.New("failed to encode cart")
var ErrPersistCart = errors.New("failed to persist cart")
var ErrLoadCart = errors.New("failed to load cart")

// ErrCartBusy is returned when the caller gave up waiting for a concurrent operation.
var ErrCartBusy = errors.New("cart is busy with another operation")

// ErrKeyNotFound is returned by storage drivers for an absent key.
var ErrKeyNotFound = errors.New("key not found")
