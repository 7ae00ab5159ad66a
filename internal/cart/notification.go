package cart

// Op names a cart operation.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
)

// FailureMessage is the generic user-facing message for a failed operation.
func (o Op) FailureMessage() string {
	switch o {
	case OpAdd:
		return "Failed to add product"
	case OpRemove:
		return "Failed to remove product"
	case OpUpdate:
		return "Failed to update product amount"
	default:
		return "Cart operation failed"
	}
}

// Kind classifies a notification.
type Kind string

const (
	KindInsufficientStock Kind = "insufficient_stock"
	KindNotInCart         Kind = "not_in_cart"
	KindFailed            Kind = "failed"
)

const MessageInsufficientStock = "Requested quantity is out of stock"

// Notification is the user-facing outcome of an operation that did not complete.
type Notification struct {
	Kind      Kind   `json:"kind"`
	Op        Op     `json:"op"`
	ProductID int    `json:"product_id"`
	Message   string `json:"message"`
}
