package projection

import (
	"context"
	"errors"
	"fmt"

	"github.com/sableward/mercantile/internal/domain/ordering"
	"github.com/sableward/mercantile/internal/domain/pricing"
	"github.com/sableward/mercantile/internal/eventstore"
	"github.com/sableward/mercantile/internal/storage"
)

// findOrCreateOrder loads the order row, creating a draft row when the
// event arrives before any other activity touched the order.
func (a Applier) findOrCreateOrder(ctx context.Context, orderID string, evt eventstore.Event) (storage.OrderRecord, error) {
	order, err := a.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, storage.ErrNotFound) {
		ts := ensureTimestamp(evt.Timestamp)
		return storage.OrderRecord{
			UID:       orderID,
			State:     storage.OrderStateDraft,
			CreatedAt: ts,
			UpdatedAt: ts,
		}, nil
	}
	if err != nil {
		return storage.OrderRecord{}, err
	}
	return order, nil
}

// applyOrderSubmitted is idempotent per order: resubmission finds the
// existing row and rewrites the same submission details.
func (a Applier) applyOrderSubmitted(ctx context.Context, evt eventstore.Event, payload ordering.SubmittedPayload) error {
	order, err := a.findOrCreateOrder(ctx, payload.OrderID, evt)
	if err != nil {
		return err
	}
	customer, err := a.Customers.CustomerByID(ctx, payload.CustomerID)
	if err != nil {
		return fmt.Errorf("resolve customer %s: %w", payload.CustomerID, err)
	}
	order.Number = payload.OrderNumber
	order.Customer = customer.Name
	order.State = storage.OrderStateSubmitted
	order.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.Orders.PutOrder(ctx, order)
}

// stateChange builds the handler for a lifecycle event that only moves the
// order row to a new state. The order must already exist; a missing row
// surfaces as storage.ErrNotFound.
func stateChange(eventType eventstore.Type) func(Applier, context.Context, eventstore.Event, ordering.LifecyclePayload) error {
	states := map[eventstore.Type]storage.OrderState{
		ordering.EventTypePaid:      storage.OrderStatePaid,
		ordering.EventTypeExpired:   storage.OrderStateExpired,
		ordering.EventTypeCancelled: storage.OrderStateCancelled,
	}
	state := states[eventType]
	return func(a Applier, ctx context.Context, evt eventstore.Event, payload ordering.LifecyclePayload) error {
		order, err := a.Orders.GetOrder(ctx, payload.OrderID)
		if err != nil {
			return err
		}
		order.State = state
		order.UpdatedAt = ensureTimestamp(evt.Timestamp)
		return a.Orders.PutOrder(ctx, order)
	}
}

func (a Applier) applyItemAdded(ctx context.Context, evt eventstore.Event, payload ordering.ItemPayload) error {
	order, err := a.findOrCreateOrder(ctx, payload.OrderID, evt)
	if err != nil {
		return err
	}
	if err := a.Orders.PutOrder(ctx, order); err != nil {
		return err
	}

	line, err := a.OrderLines.GetOrderLine(ctx, payload.OrderID, payload.ProductID)
	if errors.Is(err, storage.ErrNotFound) {
		product, err := a.Products.ProductByID(ctx, payload.ProductID)
		if err != nil {
			return fmt.Errorf("resolve product %s: %w", payload.ProductID, err)
		}
		line = storage.OrderLineRecord{
			OrderUID:    payload.OrderID,
			ProductID:   payload.ProductID,
			ProductName: product.Name,
			Price:       product.Price,
		}
	} else if err != nil {
		return err
	}
	line.Quantity++
	return a.OrderLines.PutOrderLine(ctx, line)
}

func (a Applier) applyItemRemoved(ctx context.Context, evt eventstore.Event, payload ordering.ItemPayload) error {
	line, err := a.OrderLines.GetOrderLine(ctx, payload.OrderID, payload.ProductID)
	if err != nil {
		return err
	}
	line.Quantity--
	if line.Quantity <= 0 {
		return a.OrderLines.DeleteOrderLine(ctx, payload.OrderID, payload.ProductID)
	}
	return a.OrderLines.PutOrderLine(ctx, line)
}

func (a Applier) applyDiscountSet(ctx context.Context, evt eventstore.Event, payload pricing.DiscountPayload) error {
	order, err := a.Orders.GetOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	order.PercentageDiscount = payload.Amount
	order.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.Orders.PutOrder(ctx, order)
}

func (a Applier) applyTotalCalculated(ctx context.Context, evt eventstore.Event, payload pricing.TotalPayload) error {
	order, err := a.Orders.GetOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	order.DiscountedValue = payload.DiscountedAmount
	order.UpdatedAt = ensureTimestamp(evt.Timestamp)
	return a.Orders.PutOrder(ctx, order)
}
