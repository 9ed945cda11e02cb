package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/sableward/mercantile/internal/eventstore"
	"github.com/sableward/mercantile/internal/storage"
)

// Product is a catalog row as seen by the projection: the name and unit
// price snapshotted onto an order line on first addition.
type Product struct {
	Name string
	// Price is the unit price in cents.
	Price int64
}

// ProductCatalog resolves product details at projection time.
type ProductCatalog interface {
	ProductByID(ctx context.Context, productID string) (Product, error)
}

// Customer is a directory row as seen by the projection.
type Customer struct {
	Name string
}

// CustomerDirectory resolves customer details at projection time.
type CustomerDirectory interface {
	CustomerByID(ctx context.Context, customerID string) (Customer, error)
}

// Applier applies event journal entries to the read-model stores.
type Applier struct {
	// Orders writes the orders read model.
	Orders storage.OrderStore
	// OrderLines writes the order_lines read model.
	OrderLines storage.OrderLineStore
	// Products resolves product snapshots for new order lines.
	Products ProductCatalog
	// Customers resolves customer names on submission.
	Customers CustomerDirectory
}

// Apply routes one event to its registered handler. Unknown event types are
// an error: the subscription wiring and the handler registry must agree.
func (a Applier) Apply(ctx context.Context, evt eventstore.Event) error {
	h, ok := handlers[evt.Type]
	if !ok {
		return fmt.Errorf("unhandled projection event type: %s", evt.Type)
	}
	return h.apply(a, ctx, evt)
}

// ensureTimestamp normalizes timestamps so projections always persist UTC,
// defaulting to now for events that do not set time.
func ensureTimestamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts.UTC()
}
