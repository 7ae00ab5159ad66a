package rest

import (
	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/shopspring/decimal"
)

type AddItemDto struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// UpdateAmountDto accepts any integer; non-positive amounts are ignored by the cart.
type UpdateAmountDto struct {
	Amount *int `json:"amount" validate:"required"`
}

type ItemDto struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Amount   int             `json:"amount"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartDto struct {
	Items         []ItemDto           `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	Notifications []cart.Notification `json:"notifications"`
}

func toCartDto(entries []cart.Entry, total decimal.Decimal, notifications []cart.Notification) CartDto {
	items := make([]ItemDto, 0, len(entries))
	for _, e := range entries {
		items = append(items, ItemDto{
			ID:       e.ID,
			Title:    e.Title,
			Price:    e.Price,
			Image:    e.Image,
			Amount:   e.Amount,
			Subtotal: e.Subtotal(),
		})
	}
	if notifications == nil {
		notifications = []cart.Notification{}
	}
	return CartDto{Items: items, Total: total, Notifications: notifications}
}
