package ordering

import "github.com/sableward/mercantile/internal/eventstore"

// Event types emitted by the Order aggregate. Basket events carry the
// product being changed; lifecycle events carry only the order identity.
const (
	EventTypeItemAdded   eventstore.Type = "basket.item_added"
	EventTypeItemRemoved eventstore.Type = "basket.item_removed"
	EventTypeSubmitted   eventstore.Type = "order.submitted"
	EventTypePaid        eventstore.Type = "order.paid"
	EventTypeExpired     eventstore.Type = "order.expired"
	EventTypeCancelled   eventstore.Type = "order.cancelled"
)

// ItemPayload is the payload of basket.item_added and basket.item_removed.
type ItemPayload struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
}

// SubmittedPayload is the payload of order.submitted.
type SubmittedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber int    `json:"order_number"`
	CustomerID  string `json:"customer_id"`
}

// LifecyclePayload is the payload of order.paid, order.expired and
// order.cancelled.
type LifecyclePayload struct {
	OrderID string `json:"order_id"`
}
