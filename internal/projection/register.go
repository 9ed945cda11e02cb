package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sableward/mercantile/internal/eventstore"
)

// OrdersStreamName returns the per-order derived stream that collects every
// event the read model consumed for one order.
func OrdersStreamName(orderID string) string {
	return "Orders$" + orderID
}

// Register subscribes the applier to every event type it handles, each
// handler wrapped in a link step that files the event under the order's
// derived stream first. Linking and projection stay separately testable and
// are composed only here.
func Register(store *eventstore.Store, a Applier) {
	handle := LinkThenApply(store, a)
	for _, t := range HandledTypes() {
		store.Subscribe(handle, t)
	}
}

// LinkThenApply decorates the applier with the per-order link step. Events
// without an order id in the payload skip the link and go straight to the
// applier.
func LinkThenApply(store *eventstore.Store, a Applier) eventstore.HandlerFunc {
	return func(ctx context.Context, evt eventstore.Event) error {
		orderID, err := orderIDFromPayload(evt)
		if err != nil {
			return err
		}
		if orderID != "" {
			if err := store.Link(ctx, evt, OrdersStreamName(orderID)); err != nil {
				return fmt.Errorf("link %s to order stream: %w", evt.EventID, err)
			}
		}
		return a.Apply(ctx, evt)
	}
}

func orderIDFromPayload(evt eventstore.Event) (string, error) {
	var payload struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return "", fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return payload.OrderID, nil
}
