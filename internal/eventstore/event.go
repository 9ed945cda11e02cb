// Package eventstore provides the append-only event log that is the source of
// truth for all aggregate state, plus synchronous fan-out to subscribers.
package eventstore

import (
	"time"

	apperrors "github.com/sableward/mercantile/internal/platform/errors"
)

// Type identifies the kind of domain fact an event records.
type Type string

// Expected-version sentinels for Append.
const (
	// AnyVersion skips the optimistic concurrency check. Used for derived
	// streams where appends never contend on aggregate state.
	AnyVersion int64 = -1
	// NoStream asserts the stream does not exist yet.
	NoStream int64 = 0
)

// ErrConcurrencyConflict indicates an append raced with another writer on the
// same stream. The losing caller reloads aggregate state and retries.
var ErrConcurrencyConflict = apperrors.New(apperrors.CodeConcurrencyConflict, "stream version does not match expected version")

// ErrStreamNameEmpty indicates a stream operation without a stream name.
var ErrStreamNameEmpty = apperrors.New(apperrors.CodeStreamNameEmpty, "stream name is required")

// Event is an immutable record of a domain fact.
//
// Position and GlobalPosition are assigned by the store on append and are
// strictly increasing within a stream and across the whole journal
// respectively. Everything else is supplied by the producer.
type Event struct {
	// StreamName is the write stream the event was appended to.
	StreamName string
	// Position is the 1-based position of the event within its stream.
	Position int64
	// GlobalPosition orders the event across all streams.
	GlobalPosition int64
	// Type identifies the domain fact.
	Type Type
	// EventID uniquely identifies the event. Generated on append when empty.
	EventID string
	// CorrelationID ties the event to the originating request.
	CorrelationID string
	// CausationID ties the event to its immediate triggering event.
	CausationID string
	// Timestamp is when the event was recorded.
	Timestamp time.Time
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// WithCorrelation returns a copy of the event carrying the given correlation
// and causation identifiers.
func (e Event) WithCorrelation(correlationID, causationID string) Event {
	e.CorrelationID = correlationID
	e.CausationID = causationID
	return e
}

// normalizeTimestamp defaults and truncates event time the way the journal
// persists it, so replayed and freshly appended events compare equal.
func normalizeTimestamp(ts time.Time, now func() time.Time) time.Time {
	if ts.IsZero() {
		ts = now()
	}
	return ts.UTC().Truncate(time.Millisecond)
}
