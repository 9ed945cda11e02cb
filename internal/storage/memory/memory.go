// Package memory provides an in-memory journal and read-model store. It backs
// tests and the demo binary; durable deployments use the sqlite backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sableward/mercantile/internal/eventstore"
	"github.com/sableward/mercantile/internal/storage"
)

// Store implements eventstore.Journal, storage.OrderStore and
// storage.OrderLineStore with mutex-guarded maps.
type Store struct {
	mu sync.RWMutex

	events     []eventstore.Event
	eventsByID map[string]int
	streams    map[string][]int
	links      map[string][]int
	linked     map[string]map[string]bool

	orders map[string]storage.OrderRecord
	lines  []storage.OrderLineRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		eventsByID: make(map[string]int),
		streams:    make(map[string][]int),
		links:      make(map[string][]int),
		linked:     make(map[string]map[string]bool),
		orders:     make(map[string]storage.OrderRecord),
	}
}

var _ eventstore.Journal = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.OrderLineStore = (*Store)(nil)

// AppendStream persists events at the end of the stream under the version check.
func (s *Store) AppendStream(ctx context.Context, streamName string, expectedVersion int64, events []eventstore.Event) ([]eventstore.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(len(s.streams[streamName]))
	if expectedVersion != eventstore.AnyVersion && expectedVersion != current {
		return nil, eventstore.ErrConcurrencyConflict
	}

	stored := make([]eventstore.Event, len(events))
	for i, evt := range events {
		if _, exists := s.eventsByID[evt.EventID]; exists {
			return nil, fmt.Errorf("event already exists: %s", evt.EventID)
		}
		evt.StreamName = streamName
		evt.Position = current + int64(i) + 1
		evt.GlobalPosition = int64(len(s.events)) + 1

		index := len(s.events)
		s.events = append(s.events, evt)
		s.eventsByID[evt.EventID] = index
		s.streams[streamName] = append(s.streams[streamName], index)
		stored[i] = evt
	}
	return stored, nil
}

// ReadStream returns the stream's events in order. Write streams read their
// own events; derived streams resolve linked references in link order.
func (s *Store) ReadStream(ctx context.Context, streamName string) ([]eventstore.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	indexes := s.streams[streamName]
	if len(indexes) == 0 {
		indexes = s.links[streamName]
	}
	events := make([]eventstore.Event, 0, len(indexes))
	for _, index := range indexes {
		events = append(events, s.events[index])
	}
	return events, nil
}

// StreamVersion returns the number of events (or links) in the stream.
func (s *Store) StreamVersion(ctx context.Context, streamName string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if indexes := s.streams[streamName]; len(indexes) > 0 {
		return int64(len(indexes)), nil
	}
	return int64(len(s.links[streamName])), nil
}

// LinkStream records a reference to an already-persisted event. Duplicate
// links are ignored and reported as not linked.
func (s *Store) LinkStream(ctx context.Context, streamName string, evt eventstore.Event) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.eventsByID[evt.EventID]
	if !ok {
		return false, fmt.Errorf("link unknown event: %s", evt.EventID)
	}
	if s.linked[streamName] == nil {
		s.linked[streamName] = make(map[string]bool)
	}
	if s.linked[streamName][evt.EventID] {
		return false, nil
	}
	s.linked[streamName][evt.EventID] = true
	s.links[streamName] = append(s.links[streamName], index)
	return true, nil
}

// ListStreams returns write and derived stream names with the given prefix,
// sorted.
func (s *Store) ListStreams(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, source := range []map[string][]int{s.streams, s.links} {
		for name := range source {
			if !strings.HasPrefix(name, prefix) || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ResetReadModel drops all order and line rows ahead of a replay.
func (s *Store) ResetReadModel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]storage.OrderRecord)
	s.lines = nil
	return nil
}

// PutOrder inserts or replaces an order row.
func (s *Store) PutOrder(ctx context.Context, order storage.OrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(order.UID) == "" {
		return fmt.Errorf("order uid is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.UID] = order
	return nil
}

// GetOrder fetches an order by UID.
func (s *Store) GetOrder(ctx context.Context, uid string) (storage.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OrderRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[uid]
	if !ok {
		return storage.OrderRecord{}, storage.ErrNotFound
	}
	return order, nil
}

// PutOrderLine inserts or replaces a line row, preserving insertion order.
func (s *Store) PutOrderLine(ctx context.Context, line storage.OrderLineRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(line.OrderUID) == "" || strings.TrimSpace(line.ProductID) == "" {
		return fmt.Errorf("order uid and product id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index, ok := s.findLine(line.OrderUID, line.ProductID); ok {
		s.lines[index] = line
		return nil
	}
	s.lines = append(s.lines, line)
	return nil
}

// GetOrderLine fetches a line by (order uid, product id).
func (s *Store) GetOrderLine(ctx context.Context, orderUID, productID string) (storage.OrderLineRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.OrderLineRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index, ok := s.findLine(orderUID, productID); ok {
		return s.lines[index], nil
	}
	return storage.OrderLineRecord{}, storage.ErrNotFound
}

// DeleteOrderLine removes a line row.
func (s *Store) DeleteOrderLine(ctx context.Context, orderUID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.findLine(orderUID, productID)
	if !ok {
		return storage.ErrNotFound
	}
	s.lines = append(s.lines[:index], s.lines[index+1:]...)
	return nil
}

// ListOrderLines returns the order's lines in insertion order.
func (s *Store) ListOrderLines(ctx context.Context, orderUID string) ([]storage.OrderLineRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var lines []storage.OrderLineRecord
	for _, line := range s.lines {
		if line.OrderUID == orderUID {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// findLine returns the index of the line for (orderUID, productID).
// Callers must hold the mutex.
func (s *Store) findLine(orderUID, productID string) (int, bool) {
	for i, line := range s.lines {
		if line.OrderUID == orderUID && line.ProductID == productID {
			return i, true
		}
	}
	return 0, false
}
