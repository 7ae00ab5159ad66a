// Package rest exposes the cart over HTTP.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/abgdnv/shopcart/internal/notify"
	"github.com/abgdnv/shopcart/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CartManager is the part of cart.Manager the handler needs.
type CartManager interface {
	Items() []cart.Entry
	Total() decimal.Decimal
	AddProduct(ctx context.Context, productID int) bool
	RemoveProduct(ctx context.Context, productID int) bool
	UpdateProductAmount(ctx context.Context, productID, amount int) bool
}

type Handler struct {
	cart     CartManager
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the cart HTTP handler. The manager's notifier must include
// notify.ContextCollector for failures to reach the response body.
func NewHandler(manager CartManager, logger *slog.Logger) *Handler {
	return &Handler{
		cart:     manager,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the cart.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/items", h.Add)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Put("/", h.UpdateAmount)
			r.Delete("/", h.Remove)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// Get returns the cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, toCartDto(h.cart.Items(), h.cart.Total(), nil))
}

// Add adds one unit of a product.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto AddItemDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to add product", "product_id", dto.ProductID)
	h.respond(w, r, mLogger, func(ctx context.Context) bool {
		return h.cart.AddProduct(ctx, dto.ProductID)
	})
}

// UpdateAmount sets the amount of a product in the cart.
func (h *Handler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParsePathIntGt(w, r, mLogger, "id", 0)
	if !ok {
		return
	}
	var dto UpdateAmountDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update amount", "product_id", id, "amount", *dto.Amount)
	h.respond(w, r, mLogger, func(ctx context.Context) bool {
		return h.cart.UpdateProductAmount(ctx, id, *dto.Amount)
	})
}

// Remove removes a product from the cart.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParsePathIntGt(w, r, mLogger, "id", 0)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to remove product", "product_id", id)
	h.respond(w, r, mLogger, func(ctx context.Context) bool {
		return h.cart.RemoveProduct(ctx, id)
	})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respond runs op with a notification collector and writes the cart with whatever was raised.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op func(ctx context.Context) bool) {
	ctx, collector := notify.WithCollector(r.Context())
	ok := op(ctx)
	notifications := collector.Notifications()

	status := http.StatusOK
	if !ok {
		status = failureStatus(notifications)
		logger.WarnContext(ctx, "Cart operation did not complete", "status", status, "notifications", len(notifications))
	}
	web.RespondJSON(w, logger, status, toCartDto(h.cart.Items(), h.cart.Total(), notifications))
}

func failureStatus(notifications []cart.Notification) int {
	if len(notifications) == 0 {
		return http.StatusInternalServerError
	}
	switch notifications[0].Kind {
	case cart.KindInsufficientStock:
		return http.StatusConflict
	case cart.KindNotInCart:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
