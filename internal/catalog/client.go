// Package catalog reads product details and stock amounts from the catalog API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/abgdnv/shopcart/internal/cart"
	carterrors "github.com/abgdnv/shopcart/internal/errors"
	"github.com/abgdnv/shopcart/pkg/client/httpclient"
	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/shopspring/decimal"
)

// Getter fetches a JSON document. Implemented by *httpclient.Client.
type Getter interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

// Client implements cart.StockSource and cart.ProductSource over the catalog REST API.
type Client struct {
	http    Getter
	baseURL string
	logger  *slog.Logger
}

var (
	_ cart.StockSource   = (*Client)(nil)
	_ cart.ProductSource = (*Client)(nil)
)

// New creates a catalog client with the resilience settings of cfg.
func New(catalog config.CatalogConfig, resilience config.ResilienceConfig, logger *slog.Logger) *Client {
	return NewWithGetter(httpclient.New("catalog", catalog.Timeout, resilience, logger), catalog.URL, logger)
}

func NewWithGetter(getter Getter, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    getter,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "catalog"),
	}
}

type stockResponse struct {
	ID     int  `json:"id"`
	Amount *int `json:"amount"`
}

type productResponse struct {
	ID    int              `json:"id"`
	Title string           `json:"title"`
	Price *decimal.Decimal `json:"price"`
	Image string           `json:"image"`
}

// Stock returns the available amount of a product.
func (c *Client) Stock(ctx context.Context, productID int) (cart.Stock, error) {
	var resp stockResponse
	if err := c.get(ctx, "stock", productID, &resp); err != nil {
		return cart.Stock{}, err
	}
	switch {
	case resp.Amount == nil:
		return cart.Stock{}, fmt.Errorf("%w: stock %d has no amount", carterrors.ErrMalformedCatalogResponse, productID)
	case *resp.Amount < 0:
		return cart.Stock{}, fmt.Errorf("%w: stock %d has negative amount %d",
			carterrors.ErrMalformedCatalogResponse, productID, *resp.Amount)
	case resp.ID != 0 && resp.ID != productID:
		return cart.Stock{}, fmt.Errorf("%w: asked for stock %d, got %d",
			carterrors.ErrMalformedCatalogResponse, productID, resp.ID)
	}
	return cart.Stock{Amount: *resp.Amount}, nil
}

// Product returns the catalog details of a product.
func (c *Client) Product(ctx context.Context, productID int) (cart.Product, error) {
	var resp productResponse
	if err := c.get(ctx, "products", productID, &resp); err != nil {
		return cart.Product{}, err
	}
	if resp.ID != productID {
		return cart.Product{}, fmt.Errorf("%w: asked for product %d, got %d",
			carterrors.ErrMalformedCatalogResponse, productID, resp.ID)
	}
	if resp.Price == nil || resp.Price.IsNegative() {
		return cart.Product{}, fmt.Errorf("%w: product %d has no valid price",
			carterrors.ErrMalformedCatalogResponse, productID)
	}
	return cart.Product{
		ID:    resp.ID,
		Title: resp.Title,
		Price: *resp.Price,
		Image: resp.Image,
	}, nil
}

func (c *Client) get(ctx context.Context, resource string, productID int, dst any) error {
	endpoint, err := url.JoinPath(c.baseURL, resource, strconv.Itoa(productID))
	if err != nil {
		return fmt.Errorf("failed to build %s url: %w", resource, err)
	}
	err = c.http.GetJSON(ctx, endpoint, dst)
	if err == nil {
		return nil
	}

	var statusErr *httpclient.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %d", carterrors.ErrProductNotFound, resource, productID)
	case errors.Is(err, httpclient.ErrMalformedBody):
		return fmt.Errorf("%w: %w", carterrors.ErrMalformedCatalogResponse, err)
	}
	c.logger.DebugContext(ctx, "Catalog request failed", "resource", resource, "product_id", productID, "error", err)
	return err
}
