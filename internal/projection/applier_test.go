package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sableward/mercantile/internal/domain/ordering"
	"github.com/sableward/mercantile/internal/domain/pricing"
	"github.com/sableward/mercantile/internal/eventstore"
	"github.com/sableward/mercantile/internal/storage"
	"github.com/sableward/mercantile/internal/storage/memory"
)

type fakeCatalog map[string]Product

func (c fakeCatalog) ProductByID(ctx context.Context, productID string) (Product, error) {
	product, ok := c[productID]
	if !ok {
		return Product{}, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	return product, nil
}

type fakeDirectory map[string]Customer

func (d fakeDirectory) CustomerByID(ctx context.Context, customerID string) (Customer, error) {
	customer, ok := d[customerID]
	if !ok {
		return Customer{}, fmt.Errorf("customer %s: %w", customerID, storage.ErrNotFound)
	}
	return customer, nil
}

func testApplier(db *memory.Store) Applier {
	return Applier{
		Orders:     db,
		OrderLines: db,
		Products:   fakeCatalog{"product-1": {Name: "Widget", Price: 500}},
		Customers:  fakeDirectory{"customer-1": {Name: "Ann"}},
	}
}

func event(t *testing.T, eventType eventstore.Type, payload any) eventstore.Event {
	t.Helper()
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return eventstore.Event{Type: eventType, EventID: fmt.Sprintf("evt-%s", eventType), PayloadJSON: payloadJSON}
}

func TestOrderSubmittedProjectsOrderRow(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	evt := event(t, ordering.EventTypeSubmitted, ordering.SubmittedPayload{
		OrderID: "order-1", OrderNumber: 42, CustomerID: "customer-1",
	})
	if err := a.Apply(ctx, evt); err != nil {
		t.Fatalf("apply: %v", err)
	}

	order, err := db.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Number != 42 || order.Customer != "Ann" || order.State != storage.OrderStateSubmitted {
		t.Fatalf("order = %+v, want number 42, customer Ann, state Submitted", order)
	}
}

func TestOrderSubmittedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	evt := event(t, ordering.EventTypeSubmitted, ordering.SubmittedPayload{
		OrderID: "order-1", OrderNumber: 42, CustomerID: "customer-1",
	})
	for i := 0; i < 2; i++ {
		if err := a.Apply(ctx, evt); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	order, err := db.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Number != 42 || order.State != storage.OrderStateSubmitted {
		t.Fatalf("order = %+v, want unchanged submission", order)
	}
}

func TestStateChangeRequiresExistingOrder(t *testing.T) {
	ctx := context.Background()
	a := testApplier(memory.New())

	evt := event(t, ordering.EventTypePaid, ordering.LifecyclePayload{OrderID: "order-missing"})
	if err := a.Apply(ctx, evt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestStateChangeMovesOrder(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	submit := event(t, ordering.EventTypeSubmitted, ordering.SubmittedPayload{
		OrderID: "order-1", OrderNumber: 42, CustomerID: "customer-1",
	})
	if err := a.Apply(ctx, submit); err != nil {
		t.Fatalf("apply submit: %v", err)
	}

	for _, tc := range []struct {
		eventType eventstore.Type
		want      storage.OrderState
	}{
		{ordering.EventTypeExpired, storage.OrderStateExpired},
		{ordering.EventTypePaid, storage.OrderStatePaid},
		{ordering.EventTypeCancelled, storage.OrderStateCancelled},
	} {
		evt := event(t, tc.eventType, ordering.LifecyclePayload{OrderID: "order-1"})
		if err := a.Apply(ctx, evt); err != nil {
			t.Fatalf("apply %s: %v", tc.eventType, err)
		}
		order, err := db.GetOrder(ctx, "order-1")
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if order.State != tc.want {
			t.Fatalf("state after %s = %s, want %s", tc.eventType, order.State, tc.want)
		}
	}
}

func TestItemAddedCreatesDraftOrderAndSnapshotsLine(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	evt := event(t, ordering.EventTypeItemAdded, ordering.ItemPayload{OrderID: "order-1", ProductID: "product-1"})
	if err := a.Apply(ctx, evt); err != nil {
		t.Fatalf("apply: %v", err)
	}

	order, err := db.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.State != storage.OrderStateDraft {
		t.Fatalf("state = %s, want Draft", order.State)
	}

	line, err := db.GetOrderLine(ctx, "order-1", "product-1")
	if err != nil {
		t.Fatalf("get line: %v", err)
	}
	if line.ProductName != "Widget" || line.Price != 500 || line.Quantity != 1 {
		t.Fatalf("line = %+v, want snapshot Widget/500 quantity 1", line)
	}
}

func TestItemQuantityAccumulates(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	add := event(t, ordering.EventTypeItemAdded, ordering.ItemPayload{OrderID: "order-1", ProductID: "product-1"})
	remove := event(t, ordering.EventTypeItemRemoved, ordering.ItemPayload{OrderID: "order-1", ProductID: "product-1"})

	for i := 0; i < 2; i++ {
		if err := a.Apply(ctx, add); err != nil {
			t.Fatalf("apply add %d: %v", i, err)
		}
	}
	if err := a.Apply(ctx, remove); err != nil {
		t.Fatalf("apply remove: %v", err)
	}

	line, err := db.GetOrderLine(ctx, "order-1", "product-1")
	if err != nil {
		t.Fatalf("get line: %v", err)
	}
	if line.Quantity != 1 {
		t.Fatalf("quantity = %d, want 1", line.Quantity)
	}
	if line.Value() != 500 {
		t.Fatalf("line value = %d, want 500", line.Value())
	}
}

func TestZeroQuantityDeletesLine(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	add := event(t, ordering.EventTypeItemAdded, ordering.ItemPayload{OrderID: "order-1", ProductID: "product-1"})
	remove := event(t, ordering.EventTypeItemRemoved, ordering.ItemPayload{OrderID: "order-1", ProductID: "product-1"})
	if err := a.Apply(ctx, add); err != nil {
		t.Fatalf("apply add: %v", err)
	}
	if err := a.Apply(ctx, remove); err != nil {
		t.Fatalf("apply remove: %v", err)
	}

	if _, err := db.GetOrderLine(ctx, "order-1", "product-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get line err = %v, want storage.ErrNotFound", err)
	}
	order, err := db.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.State != storage.OrderStateDraft {
		t.Fatalf("state = %s, want Draft", order.State)
	}
}

func TestRemoveMissingLinePropagatesNotFound(t *testing.T) {
	ctx := context.Background()
	a := testApplier(memory.New())

	evt := event(t, ordering.EventTypeItemRemoved, ordering.ItemPayload{OrderID: "order-1", ProductID: "product-1"})
	if err := a.Apply(ctx, evt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestPricingEventsUpdateOrderRow(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	submit := event(t, ordering.EventTypeSubmitted, ordering.SubmittedPayload{
		OrderID: "order-1", OrderNumber: 42, CustomerID: "customer-1",
	})
	if err := a.Apply(ctx, submit); err != nil {
		t.Fatalf("apply submit: %v", err)
	}

	discount := event(t, pricing.EventTypePercentageDiscountSet, pricing.DiscountPayload{OrderID: "order-1", Amount: 10})
	if err := a.Apply(ctx, discount); err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	total := event(t, pricing.EventTypeOrderTotalCalculated, pricing.TotalPayload{
		OrderID: "order-1", TotalAmount: 1000, DiscountedAmount: 900,
	})
	if err := a.Apply(ctx, total); err != nil {
		t.Fatalf("apply total: %v", err)
	}

	order, err := db.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.PercentageDiscount != 10 || order.DiscountedValue != 900 {
		t.Fatalf("order = %+v, want discount 10 and discounted value 900", order)
	}
}

func TestCatalogEventsAreInert(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	a := testApplier(db)

	evt := event(t, pricing.EventTypeProductRegistered, pricing.ProductPayload{ProductID: "product-1", Name: "Widget", Price: 500})
	if err := a.Apply(ctx, evt); err != nil {
		t.Fatalf("apply: %v", err)
	}
	evt = event(t, pricing.EventTypePriceSet, pricing.ProductPayload{ProductID: "product-1", Price: 600})
	if err := a.Apply(ctx, evt); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestUnknownEventTypeRejected(t *testing.T) {
	a := testApplier(memory.New())
	err := a.Apply(context.Background(), eventstore.Event{Type: "shipping.dispatched"})
	if err == nil {
		t.Fatal("expected unhandled type error")
	}
}
