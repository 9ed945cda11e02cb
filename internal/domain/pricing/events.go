// Package pricing defines the pricing and catalog event vocabulary the read
// model consumes. No aggregate lives here; these events arrive from the
// pricing side of the system.
package pricing

import "github.com/sableward/mercantile/internal/eventstore"

const (
	// EventTypePercentageDiscountSet carries a discount applied to an order.
	EventTypePercentageDiscountSet eventstore.Type = "pricing.percentage_discount_set"
	// EventTypeOrderTotalCalculated carries the recomputed order totals.
	EventTypeOrderTotalCalculated eventstore.Type = "pricing.order_total_calculated"
	// EventTypePriceSet records a product price change.
	EventTypePriceSet eventstore.Type = "pricing.price_set"
	// EventTypeProductRegistered records a product entering the catalog.
	EventTypeProductRegistered eventstore.Type = "product.registered"
)

// DiscountPayload is the payload of pricing.percentage_discount_set.
type DiscountPayload struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
}

// TotalPayload is the payload of pricing.order_total_calculated. Amounts are
// cents.
type TotalPayload struct {
	OrderID          string `json:"order_id"`
	TotalAmount      int64  `json:"total_amount"`
	DiscountedAmount int64  `json:"discounted_amount"`
}

// ProductPayload is the payload of pricing.price_set and product.registered.
type ProductPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price,omitempty"`
}
