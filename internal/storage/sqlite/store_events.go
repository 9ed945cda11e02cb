package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sableward/mercantile/internal/eventstore"
)

// eventColumns is the select list shared by all journal reads.
const eventColumns = `global_position, event_id, stream_name, position, event_type,
	correlation_id, causation_id, timestamp, payload_json`

// AppendStream persists events at the end of the stream under the optimistic
// concurrency check. All events commit atomically or not at all.
func (s *Store) AppendStream(ctx context.Context, streamName string, expectedVersion int64, events []eventstore.Event) ([]eventstore.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(streamName) == "" {
		return nil, eventstore.ErrStreamNameEmpty
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM events WHERE stream_name = ?`, streamName)
	if err := row.Scan(&current); err != nil {
		return nil, fmt.Errorf("read stream version: %w", err)
	}
	if expectedVersion != eventstore.AnyVersion && expectedVersion != current {
		return nil, eventstore.ErrConcurrencyConflict
	}

	stored := make([]eventstore.Event, len(events))
	for i, evt := range events {
		evt.StreamName = streamName
		evt.Position = current + int64(i) + 1
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)

		result, err := tx.ExecContext(ctx,
			`INSERT INTO events (
			   event_id, stream_name, position, event_type,
			   correlation_id, causation_id, timestamp, payload_json
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.EventID,
			evt.StreamName,
			evt.Position,
			string(evt.Type),
			evt.CorrelationID,
			evt.CausationID,
			toMillis(evt.Timestamp),
			evt.PayloadJSON,
		)
		if err != nil {
			// A racing writer claimed the same position between our version
			// read and this insert.
			if isUniqueViolation(err) {
				return nil, eventstore.ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("append event: %w", err)
		}
		globalPosition, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read global position: %w", err)
		}
		evt.GlobalPosition = globalPosition
		stored[i] = evt
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// ReadStream returns the stream's events in position order. A write stream
// reads its own rows; a derived stream resolves its links in link order.
func (s *Store) ReadStream(ctx context.Context, streamName string) ([]eventstore.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(streamName) == "" {
		return nil, eventstore.ErrStreamNameEmpty
	}

	events, err := s.queryEvents(ctx,
		`SELECT `+eventColumns+`
		   FROM events
		  WHERE stream_name = ?
		  ORDER BY position`, streamName)
	if err != nil {
		return nil, err
	}
	if len(events) > 0 {
		return events, nil
	}

	return s.queryEvents(ctx,
		`SELECT e.global_position, e.event_id, e.stream_name, e.position, e.event_type,
		        e.correlation_id, e.causation_id, e.timestamp, e.payload_json
		   FROM stream_links l
		   JOIN events e ON e.event_id = l.event_id
		  WHERE l.stream_name = ?
		  ORDER BY l.id`, streamName)
}

// StreamVersion returns the last position of the stream, or 0 when absent.
func (s *Store) StreamVersion(ctx context.Context, streamName string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	var version int64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM events WHERE stream_name = ?`, streamName)
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("read stream version: %w", err)
	}
	if version > 0 {
		return version, nil
	}

	row = s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stream_links WHERE stream_name = ?`, streamName)
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("count stream links: %w", err)
	}
	return version, nil
}

// LinkStream records a reference to an already-persisted event. Duplicate
// links are ignored via the (stream_name, event_id) unique constraint.
func (s *Store) LinkStream(ctx context.Context, streamName string, evt eventstore.Event) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(streamName) == "" {
		return false, eventstore.ErrStreamNameEmpty
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO stream_links (stream_name, event_id) VALUES (?, ?)`,
		streamName, evt.EventID)
	if err != nil {
		return false, fmt.Errorf("link event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read link result: %w", err)
	}
	return affected > 0, nil
}

// ListStreams returns distinct stream names with the given prefix, write and
// derived alike.
func (s *Store) ListStreams(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT stream_name FROM events WHERE stream_name LIKE ?1 || '%'
		  UNION
		 SELECT stream_name FROM stream_links WHERE stream_name LIKE ?1 || '%'
		  ORDER BY stream_name`,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan stream name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streams: %w", err)
	}
	return names, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]eventstore.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []eventstore.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (eventstore.Event, error) {
	var evt eventstore.Event
	var eventType string
	var timestamp int64
	err := rows.Scan(
		&evt.GlobalPosition,
		&evt.EventID,
		&evt.StreamName,
		&evt.Position,
		&eventType,
		&evt.CorrelationID,
		&evt.CausationID,
		&timestamp,
		&evt.PayloadJSON,
	)
	if err != nil {
		return eventstore.Event{}, fmt.Errorf("scan event: %w", err)
	}
	evt.Type = eventstore.Type(eventType)
	evt.Timestamp = fromMillis(timestamp)
	return evt, nil
}
