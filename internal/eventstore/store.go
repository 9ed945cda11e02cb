package eventstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/sableward/mercantile/internal/platform/errors"
)

// HandlerFunc consumes one published event. Handlers must tolerate
// at-least-once delivery.
type HandlerFunc func(ctx context.Context, evt Event) error

// Store combines a Journal with synchronous subscriber dispatch.
//
// Subscriptions form a typed dispatch table built at registration time. For
// each appended event, type subscribers run first in registration order,
// then subscribe-to-all subscribers. Delivery happens within the scope of the
// triggering Append; subscriber failures are reported to the appender but the
// events stay durably stored.
type Store struct {
	journal Journal
	tracer  trace.Tracer
	now     func() time.Time

	mu     sync.RWMutex
	typed  map[Type][]HandlerFunc
	all    []HandlerFunc
	onLink []HandlerFunc
}

// New creates a Store on top of the given journal.
func New(journal Journal) *Store {
	return &Store{
		journal: journal,
		tracer:  otel.Tracer("mercantile/eventstore"),
		now:     time.Now,
		typed:   make(map[Type][]HandlerFunc),
	}
}

// Subscribe registers handler for every appended event whose type is in types.
func (s *Store) Subscribe(handler HandlerFunc, types ...Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range types {
		s.typed[t] = append(s.typed[t], handler)
	}
}

// SubscribeToAll registers handler for every appended event regardless of type.
func (s *Store) SubscribeToAll(handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, handler)
}

// SubscribeToLinks registers handler for every event newly linked into a
// derived stream. Linking is structural, so type subscribers do not re-fire.
func (s *Store) SubscribeToLinks(handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLink = append(s.onLink, handler)
}

// Append persists events at the end of streamName and synchronously notifies
// matching subscribers in publish order.
//
// The returned events carry store-assigned positions. When a subscriber
// fails, Append returns the stored events together with an error coded
// CodeSubscriberFailed; the append itself is never rolled back.
func (s *Store) Append(ctx context.Context, streamName string, expectedVersion int64, events ...Event) ([]Event, error) {
	if strings.TrimSpace(streamName) == "" {
		return nil, ErrStreamNameEmpty
	}
	if len(events) == 0 {
		return nil, nil
	}

	ctx, span := s.tracer.Start(ctx, "eventstore.Append", trace.WithAttributes(
		attribute.String("stream", streamName),
		attribute.Int("events", len(events)),
	))
	defer span.End()

	prepared := make([]Event, len(events))
	for i, evt := range events {
		if evt.Type == "" {
			return nil, fmt.Errorf("event %d has no type", i)
		}
		if evt.EventID == "" {
			evt.EventID = uuid.NewString()
		}
		evt.StreamName = streamName
		evt.Timestamp = normalizeTimestamp(evt.Timestamp, s.now)
		prepared[i] = evt
	}

	stored, err := s.journal.AppendStream(ctx, streamName, expectedVersion, prepared)
	if err != nil {
		return nil, err
	}

	if err := s.publish(ctx, stored); err != nil {
		return stored, apperrors.Wrap(apperrors.CodeSubscriberFailed, "deliver appended events", err)
	}
	return stored, nil
}

// Read returns the stream's events in position order.
func (s *Store) Read(ctx context.Context, streamName string) ([]Event, error) {
	if strings.TrimSpace(streamName) == "" {
		return nil, ErrStreamNameEmpty
	}
	return s.journal.ReadStream(ctx, streamName)
}

// Version returns the current version of the stream for optimistic appends.
func (s *Store) Version(ctx context.Context, streamName string) (int64, error) {
	if strings.TrimSpace(streamName) == "" {
		return 0, ErrStreamNameEmpty
	}
	return s.journal.StreamVersion(ctx, streamName)
}

// Link appends a reference to an already-persisted event into targetStream.
// Linking the same event twice into the same stream is a no-op, which makes
// linker subscriptions safe under redelivery.
func (s *Store) Link(ctx context.Context, evt Event, targetStream string) error {
	if strings.TrimSpace(targetStream) == "" {
		return ErrStreamNameEmpty
	}

	ctx, span := s.tracer.Start(ctx, "eventstore.Link", trace.WithAttributes(
		attribute.String("stream", targetStream),
		attribute.String("event_type", string(evt.Type)),
	))
	defer span.End()

	linked, err := s.journal.LinkStream(ctx, targetStream, evt)
	if err != nil {
		return fmt.Errorf("link event %s into %s: %w", evt.EventID, targetStream, err)
	}
	if !linked {
		return nil
	}

	s.mu.RLock()
	handlers := append([]HandlerFunc(nil), s.onLink...)
	s.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.CodeSubscriberFailed, "deliver linked event", errors.Join(errs...))
	}
	return nil
}

// Streams lists write streams by prefix; read-model rebuilds iterate these.
func (s *Store) Streams(ctx context.Context, prefix string) ([]string, error) {
	return s.journal.ListStreams(ctx, prefix)
}

// publish fans an ordered batch of stored events out to subscribers. All
// handlers run even when earlier ones fail; failures are joined.
func (s *Store) publish(ctx context.Context, events []Event) error {
	s.mu.RLock()
	typed := make(map[Type][]HandlerFunc, len(s.typed))
	for t, handlers := range s.typed {
		typed[t] = append([]HandlerFunc(nil), handlers...)
	}
	all := append([]HandlerFunc(nil), s.all...)
	s.mu.RUnlock()

	var errs []error
	for _, evt := range events {
		for _, handler := range typed[evt.Type] {
			if err := handler(ctx, evt); err != nil {
				errs = append(errs, fmt.Errorf("handle %s at %s/%d: %w", evt.Type, evt.StreamName, evt.Position, err))
			}
		}
		for _, handler := range all {
			if err := handler(ctx, evt); err != nil {
				errs = append(errs, fmt.Errorf("handle %s at %s/%d: %w", evt.Type, evt.StreamName, evt.Position, err))
			}
		}
	}
	return errors.Join(errs...)
}
