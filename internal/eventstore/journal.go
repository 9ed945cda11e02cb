package eventstore

import "context"

// Journal is the persistence boundary for the event store. Implementations
// must assign positions atomically per stream and detect version conflicts.
//
// Backends live in internal/storage; the in-memory journal backs tests and
// the demo binary, the SQLite journal backs durable deployments.
type Journal interface {
	// AppendStream persists events at the end of the stream when the stream's
	// current version equals expectedVersion (or expectedVersion is
	// AnyVersion). Returns the stored events with positions, global positions
	// and timestamps assigned. A version mismatch fails with
	// ErrConcurrencyConflict and persists nothing.
	AppendStream(ctx context.Context, streamName string, expectedVersion int64, events []Event) ([]Event, error)
	// ReadStream returns the stream's events in position order. Linked
	// references are resolved to their source events. A missing stream reads
	// as empty.
	ReadStream(ctx context.Context, streamName string) ([]Event, error)
	// StreamVersion returns the position of the last event in the stream, or
	// 0 when the stream does not exist.
	StreamVersion(ctx context.Context, streamName string) (int64, error)
	// LinkStream appends a reference to an already-persisted event. Reports
	// false when the event was already linked into the target stream.
	LinkStream(ctx context.Context, streamName string, evt Event) (bool, error)
	// ListStreams returns the names of all streams with the given prefix,
	// write and derived alike. Used by read-model rebuilds.
	ListStreams(ctx context.Context, prefix string) ([]string, error)
}
