// Package storage defines the persistence contracts for the Orders read model.
// The event journal contract lives in internal/eventstore; both are
// implemented by the sqlite and memory backends in this directory.
package storage

import (
	"context"
	"time"

	apperrors "github.com/sableward/mercantile/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// OrderState is the read-model lifecycle state of an order.
type OrderState string

const (
	// OrderStateDraft marks an order created implicitly by basket activity.
	OrderStateDraft OrderState = "Draft"
	// OrderStateSubmitted marks an order the customer has submitted.
	OrderStateSubmitted OrderState = "Submitted"
	// OrderStatePaid marks a submitted order whose payment was captured.
	OrderStatePaid OrderState = "Paid"
	// OrderStateExpired marks a submitted order that timed out unpaid.
	OrderStateExpired OrderState = "Expired"
	// OrderStateCancelled marks an order cancelled by the customer.
	OrderStateCancelled OrderState = "Cancelled"
)

// OrderRecord is the query-optimized order row projected from order events.
// UID is the order's aggregate identity and is stable across its lifecycle.
type OrderRecord struct {
	UID      string
	Number   int
	Customer string
	State    OrderState
	// PercentageDiscount is the discount applied to the order, in percent.
	PercentageDiscount float64
	// DiscountedValue is the order total after discounts, in cents.
	DiscountedValue int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLineRecord is one product position on an order. ProductName and Price
// are snapshots taken when the product was first added to the basket.
type OrderLineRecord struct {
	OrderUID    string
	ProductID   string
	ProductName string
	// Price is the unit price snapshot in cents.
	Price    int64
	Quantity int
}

// Value returns the line total in cents.
func (l OrderLineRecord) Value() int64 {
	return l.Price * int64(l.Quantity)
}

// OrderStore owns the orders read-model table keyed by order UID.
type OrderStore interface {
	// PutOrder inserts or replaces an order row.
	PutOrder(ctx context.Context, order OrderRecord) error
	// GetOrder fetches an order by UID. Returns ErrNotFound when absent.
	GetOrder(ctx context.Context, uid string) (OrderRecord, error)
}

// OrderLineStore owns the order_lines read-model table keyed by
// (order_uid, product_id). Listing preserves first-insertion order so views
// render lines deterministically.
type OrderLineStore interface {
	// PutOrderLine inserts or replaces a line row.
	PutOrderLine(ctx context.Context, line OrderLineRecord) error
	// GetOrderLine fetches a line. Returns ErrNotFound when absent.
	GetOrderLine(ctx context.Context, orderUID, productID string) (OrderLineRecord, error)
	// DeleteOrderLine removes a line. Returns ErrNotFound when absent.
	DeleteOrderLine(ctx context.Context, orderUID, productID string) error
	// ListOrderLines returns the order's lines in insertion order.
	ListOrderLines(ctx context.Context, orderUID string) ([]OrderLineRecord, error)
}
