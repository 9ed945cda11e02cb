package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sableward/mercantile/internal/domain/ordering"
	"github.com/sableward/mercantile/internal/domain/pricing"
	"github.com/sableward/mercantile/internal/eventstore"
)

// handlerEntry declares the apply function for one event type.
type handlerEntry struct {
	apply func(Applier, context.Context, eventstore.Event) error
}

// typed builds a handler entry that unmarshals the payload before calling
// the apply function, eliminating per-handler decode boilerplate.
func typed[P any](fn func(Applier, context.Context, eventstore.Event, P) error) handlerEntry {
	return handlerEntry{
		apply: func(a Applier, ctx context.Context, evt eventstore.Event) error {
			var payload P
			if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
				return fmt.Errorf("decode %s payload: %w", evt.Type, err)
			}
			return fn(a, ctx, evt, payload)
		},
	}
}

// inert registers an event type the projection acknowledges but does not
// yet materialize. Subscribing to these keeps the per-order link streams
// complete while the read model ignores them.
func inert() handlerEntry {
	return handlerEntry{
		apply: func(Applier, context.Context, eventstore.Event) error { return nil },
	}
}

// handlers maps each projected event type to its handler entry. This map is
// the single source of truth for which event types the read model consumes.
var handlers = map[eventstore.Type]handlerEntry{
	ordering.EventTypeSubmitted:   typed(Applier.applyOrderSubmitted),
	ordering.EventTypePaid:        typed(stateChange(ordering.EventTypePaid)),
	ordering.EventTypeExpired:     typed(stateChange(ordering.EventTypeExpired)),
	ordering.EventTypeCancelled:   typed(stateChange(ordering.EventTypeCancelled)),
	ordering.EventTypeItemAdded:   typed(Applier.applyItemAdded),
	ordering.EventTypeItemRemoved: typed(Applier.applyItemRemoved),

	pricing.EventTypePercentageDiscountSet: typed(Applier.applyDiscountSet),
	pricing.EventTypeOrderTotalCalculated:  typed(Applier.applyTotalCalculated),

	// Catalog extension points. Nothing on the order rows consumes these
	// yet; product snapshots come from the ProductCatalog collaborator.
	pricing.EventTypeProductRegistered: inert(),
	pricing.EventTypePriceSet:          inert(),
}

// HandledTypes returns the projected event types in lexical order.
func HandledTypes() []eventstore.Type {
	types := make([]eventstore.Type, 0, len(handlers))
	for t := range handlers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
