package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sableward/mercantile/internal/storage"
)

func TestOrderPutGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	expected := storage.OrderRecord{
		UID:                "order-1",
		Number:             42,
		Customer:           "Ann",
		State:              storage.OrderStateSubmitted,
		PercentageDiscount: 10,
		DiscountedValue:    900,
		CreatedAt:          now,
		UpdatedAt:          now.Add(30 * time.Minute),
	}
	if err := store.PutOrder(ctx, expected); err != nil {
		t.Fatalf("put order: %v", err)
	}

	got, err := store.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.UID != expected.UID || got.Number != expected.Number || got.Customer != expected.Customer ||
		got.State != expected.State || got.PercentageDiscount != expected.PercentageDiscount ||
		got.DiscountedValue != expected.DiscountedValue {
		t.Fatalf("order = %+v, want %+v", got, expected)
	}
	if !got.CreatedAt.Equal(expected.CreatedAt) || !got.UpdatedAt.Equal(expected.UpdatedAt) {
		t.Fatalf("timestamps = %v, %v, want %v, %v", got.CreatedAt, got.UpdatedAt, expected.CreatedAt, expected.UpdatedAt)
	}
}

func TestOrderUpsertKeepsUID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	order := storage.OrderRecord{UID: "order-1", State: storage.OrderStateDraft}
	if err := store.PutOrder(ctx, order); err != nil {
		t.Fatalf("put draft: %v", err)
	}
	order.State = storage.OrderStateSubmitted
	order.Number = 42
	if err := store.PutOrder(ctx, order); err != nil {
		t.Fatalf("put submitted: %v", err)
	}

	got, err := store.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.State != storage.OrderStateSubmitted || got.Number != 42 {
		t.Fatalf("order = %+v, want upsert applied", got)
	}
}

func TestGetMissingOrder(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetOrder(context.Background(), "order-missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestOrderLineRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	line := storage.OrderLineRecord{
		OrderUID:    "order-1",
		ProductID:   "product-1",
		ProductName: "Widget",
		Price:       500,
		Quantity:    2,
	}
	if err := store.PutOrderLine(ctx, line); err != nil {
		t.Fatalf("put line: %v", err)
	}

	got, err := store.GetOrderLine(ctx, "order-1", "product-1")
	if err != nil {
		t.Fatalf("get line: %v", err)
	}
	if got != line {
		t.Fatalf("line = %+v, want %+v", got, line)
	}
	if got.Value() != 1000 {
		t.Fatalf("value = %d, want 1000", got.Value())
	}
}

func TestOrderLinesListInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-1", ProductName: "Widget", Price: 500, Quantity: 1}
	second := storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-2", ProductName: "Gadget", Price: 300, Quantity: 1}
	other := storage.OrderLineRecord{OrderUID: "order-2", ProductID: "product-1", ProductName: "Widget", Price: 500, Quantity: 1}
	for _, line := range []storage.OrderLineRecord{first, second, other} {
		if err := store.PutOrderLine(ctx, line); err != nil {
			t.Fatalf("put line: %v", err)
		}
	}

	// The upsert must keep the original row so listing order is stable.
	first.Quantity = 3
	if err := store.PutOrderLine(ctx, first); err != nil {
		t.Fatalf("update line: %v", err)
	}

	lines, err := store.ListOrderLines(ctx, "order-1")
	if err != nil {
		t.Fatalf("list lines: %v", err)
	}
	if len(lines) != 2 || lines[0].ProductID != "product-1" || lines[1].ProductID != "product-2" {
		t.Fatalf("lines = %+v, want insertion order preserved", lines)
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want update applied in place", lines[0].Quantity)
	}
}

func TestResetReadModel(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.PutOrder(ctx, storage.OrderRecord{UID: "order-1", State: storage.OrderStateDraft}); err != nil {
		t.Fatalf("put order: %v", err)
	}
	if err := store.PutOrderLine(ctx, storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-1", Quantity: 1}); err != nil {
		t.Fatalf("put line: %v", err)
	}

	if err := store.ResetReadModel(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := store.GetOrder(ctx, "order-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get order err = %v, want storage.ErrNotFound", err)
	}
	if _, err := store.GetOrderLine(ctx, "order-1", "product-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get line err = %v, want storage.ErrNotFound", err)
	}
}

func TestDeleteOrderLine(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.DeleteOrderLine(ctx, "order-1", "product-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing err = %v, want storage.ErrNotFound", err)
	}

	line := storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-1", Quantity: 1}
	if err := store.PutOrderLine(ctx, line); err != nil {
		t.Fatalf("put line: %v", err)
	}
	if err := store.DeleteOrderLine(ctx, "order-1", "product-1"); err != nil {
		t.Fatalf("delete line: %v", err)
	}
	if _, err := store.GetOrderLine(ctx, "order-1", "product-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want storage.ErrNotFound", err)
	}
}
