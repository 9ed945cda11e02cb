// Package payments exposes the payment commands. Each command loads the
// payment's history, folds it, executes the command and flushes the staged
// events in one optimistic append.
package payments

import (
	"context"
	"fmt"

	"github.com/sableward/mercantile/internal/domain/payment"
	"github.com/sableward/mercantile/internal/eventstore"
)

// Service handles payment commands against the event store.
type Service struct {
	store   *eventstore.Store
	gateway payment.Gateway
}

// NewService creates a payment command service.
func NewService(store *eventstore.Store, gateway payment.Gateway) *Service {
	return &Service{store: store, gateway: gateway}
}

// Authorize places a hold for the given amount on the payment gateway and
// records the authorization. Payment events correlate to the order so the
// correlation linker files them under the order's activity stream.
func (s *Service) Authorize(ctx context.Context, transactionID, orderID string, amountCents int64) error {
	return s.execute(ctx, transactionID, func(p *payment.Payment) error {
		return p.Authorize(ctx, s.gateway, transactionID, orderID, amountCents)
	})
}

// Capture collects the previously authorized amount.
func (s *Service) Capture(ctx context.Context, transactionID string) error {
	return s.execute(ctx, transactionID, (*payment.Payment).Capture)
}

// Release returns the previously authorized amount uncollected.
func (s *Service) Release(ctx context.Context, transactionID string) error {
	return s.execute(ctx, transactionID, (*payment.Payment).Release)
}

// execute runs one command against the payment's current history. The staged
// events append at the loaded version, so a concurrent writer surfaces as
// ErrConcurrencyConflict instead of silently interleaving.
func (s *Service) execute(ctx context.Context, transactionID string, command func(*payment.Payment) error) error {
	stream := payment.StreamName(transactionID)
	history, err := s.store.Read(ctx, stream)
	if err != nil {
		return fmt.Errorf("read %s: %w", stream, err)
	}

	p := payment.FromHistory(history)
	if err := command(p); err != nil {
		return err
	}

	staged := p.UnpublishedEvents()
	if len(staged) == 0 {
		return nil
	}
	if _, err := s.store.Append(ctx, stream, int64(len(history)), staged...); err != nil {
		return fmt.Errorf("append to %s: %w", stream, err)
	}
	return nil
}
