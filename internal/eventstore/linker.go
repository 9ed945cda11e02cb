package eventstore

import "context"

// Derived stream name prefixes maintained by the linkers.
const (
	ByTypeStreamPrefix        = "$by_type_"
	ByCorrelationStreamPrefix = "$by_correlation_"
	ByCausationStreamPrefix   = "$by_causation_"
)

// RegisterLinkers subscribes the standard linkers to every appended event.
// Each linker copies a reference into a derived stream so "all events of type
// Y" and "all events caused by X" can be read without scanning write streams.
func RegisterLinkers(store *Store) {
	store.SubscribeToAll(LinkByEventType(store))
	store.SubscribeToAll(LinkByCorrelationID(store))
	store.SubscribeToAll(LinkByCausationID(store))
}

// LinkByEventType links every event into a per-type stream.
func LinkByEventType(store *Store) HandlerFunc {
	return func(ctx context.Context, evt Event) error {
		return store.Link(ctx, evt, ByTypeStreamPrefix+string(evt.Type))
	}
}

// LinkByCorrelationID links events carrying a correlation id into a stream
// named after that id.
func LinkByCorrelationID(store *Store) HandlerFunc {
	return func(ctx context.Context, evt Event) error {
		if evt.CorrelationID == "" {
			return nil
		}
		return store.Link(ctx, evt, ByCorrelationStreamPrefix+evt.CorrelationID)
	}
}

// LinkByCausationID links events carrying a causation id into a stream named
// after that id.
func LinkByCausationID(store *Store) HandlerFunc {
	return func(ctx context.Context, evt Event) error {
		if evt.CausationID == "" {
			return nil
		}
		return store.Link(ctx, evt, ByCausationStreamPrefix+evt.CausationID)
	}
}
