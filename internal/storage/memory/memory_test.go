package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/sableward/mercantile/internal/eventstore"
	"github.com/sableward/mercantile/internal/storage"
)

func journalEvent(id string, eventType eventstore.Type) eventstore.Event {
	return eventstore.Event{EventID: id, Type: eventType, PayloadJSON: []byte(`{}`)}
}

func TestAppendStreamAssignsPositions(t *testing.T) {
	ctx := context.Background()
	s := New()

	stored, err := s.AppendStream(ctx, "Order$1", eventstore.NoStream, []eventstore.Event{
		journalEvent("evt-1", "basket.item_added"),
		journalEvent("evt-2", "order.submitted"),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored[0].Position != 1 || stored[1].Position != 2 {
		t.Fatalf("positions = %d, %d, want 1, 2", stored[0].Position, stored[1].Position)
	}
	if stored[0].GlobalPosition != 1 || stored[1].GlobalPosition != 2 {
		t.Fatalf("global positions = %d, %d, want 1, 2", stored[0].GlobalPosition, stored[1].GlobalPosition)
	}
}

func TestAppendStreamVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.AppendStream(ctx, "Order$1", eventstore.NoStream, []eventstore.Event{journalEvent("evt-1", "order.submitted")}); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, err := s.AppendStream(ctx, "Order$1", eventstore.NoStream, []eventstore.Event{journalEvent("evt-2", "order.paid")})
	if !errors.Is(err, eventstore.ErrConcurrencyConflict) {
		t.Fatalf("err = %v, want ErrConcurrencyConflict", err)
	}

	if _, err := s.AppendStream(ctx, "Order$1", 1, []eventstore.Event{journalEvent("evt-2", "order.paid")}); err != nil {
		t.Fatalf("append at version 1: %v", err)
	}
	if _, err := s.AppendStream(ctx, "Order$1", eventstore.AnyVersion, []eventstore.Event{journalEvent("evt-3", "order.cancelled")}); err != nil {
		t.Fatalf("append at any version: %v", err)
	}
}

func TestReadStreamResolvesLinks(t *testing.T) {
	ctx := context.Background()
	s := New()

	stored, err := s.AppendStream(ctx, "Order$1", eventstore.NoStream, []eventstore.Event{journalEvent("evt-1", "order.submitted")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	linked, err := s.LinkStream(ctx, "Orders$order-1", stored[0])
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if !linked {
		t.Fatal("expected first link to report linked")
	}

	events, err := s.ReadStream(ctx, "Orders$order-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 1 || events[0].EventID != "evt-1" || events[0].StreamName != "Order$1" {
		t.Fatalf("events = %+v, want the source event", events)
	}
}

func TestLinkStreamDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := New()

	stored, err := s.AppendStream(ctx, "Order$1", eventstore.NoStream, []eventstore.Event{journalEvent("evt-1", "order.submitted")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := s.LinkStream(ctx, "Orders$order-1", stored[0]); err != nil {
		t.Fatalf("link: %v", err)
	}
	linked, err := s.LinkStream(ctx, "Orders$order-1", stored[0])
	if err != nil {
		t.Fatalf("relink: %v", err)
	}
	if linked {
		t.Fatal("expected duplicate link to report not linked")
	}

	version, err := s.StreamVersion(ctx, "Orders$order-1")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}
}

func TestLinkStreamRejectsUnknownEvent(t *testing.T) {
	s := New()
	if _, err := s.LinkStream(context.Background(), "Orders$order-1", journalEvent("evt-missing", "order.submitted")); err == nil {
		t.Fatal("expected unknown event error")
	}
}

func TestListStreamsIncludesDerivedStreams(t *testing.T) {
	ctx := context.Background()
	s := New()

	stored, err := s.AppendStream(ctx, "Order$1", eventstore.NoStream, []eventstore.Event{journalEvent("evt-1", "order.submitted")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.LinkStream(ctx, "Orders$order-1", stored[0]); err != nil {
		t.Fatalf("link: %v", err)
	}

	streams, err := s.ListStreams(ctx, "Orders$")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(streams) != 1 || streams[0] != "Orders$order-1" {
		t.Fatalf("streams = %v, want the derived order stream", streams)
	}
}

func TestOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetOrder(ctx, "order-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing err = %v, want storage.ErrNotFound", err)
	}

	order := storage.OrderRecord{UID: "order-1", Number: 42, Customer: "Ann", State: storage.OrderStateSubmitted}
	if err := s.PutOrder(ctx, order); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetOrder(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != order {
		t.Fatalf("order = %+v, want %+v", got, order)
	}
}

func TestOrderLinesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-1", ProductName: "Widget", Price: 500, Quantity: 1}
	second := storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-2", ProductName: "Gadget", Price: 300, Quantity: 1}
	for _, line := range []storage.OrderLineRecord{first, second} {
		if err := s.PutOrderLine(ctx, line); err != nil {
			t.Fatalf("put line: %v", err)
		}
	}

	// Updating the first line must not move it behind the second.
	first.Quantity = 3
	if err := s.PutOrderLine(ctx, first); err != nil {
		t.Fatalf("update line: %v", err)
	}

	lines, err := s.ListOrderLines(ctx, "order-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 2 || lines[0].ProductID != "product-1" || lines[1].ProductID != "product-2" {
		t.Fatalf("lines = %+v, want insertion order preserved", lines)
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("quantity = %d, want update applied in place", lines[0].Quantity)
	}
}

func TestDeleteOrderLine(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.DeleteOrderLine(ctx, "order-1", "product-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing err = %v, want storage.ErrNotFound", err)
	}

	line := storage.OrderLineRecord{OrderUID: "order-1", ProductID: "product-1", Quantity: 1}
	if err := s.PutOrderLine(ctx, line); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.DeleteOrderLine(ctx, "order-1", "product-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetOrderLine(ctx, "order-1", "product-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted err = %v, want storage.ErrNotFound", err)
	}
}
