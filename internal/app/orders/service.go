// Package orders exposes the order commands. Each command loads the order's
// history, folds it, executes the command and flushes the staged events in
// one optimistic append.
package orders

import (
	"context"
	"fmt"

	"github.com/sableward/mercantile/internal/domain/ordering"
	"github.com/sableward/mercantile/internal/eventstore"
)

// Service handles order commands against the event store.
type Service struct {
	store *eventstore.Store
}

// NewService creates an order command service.
func NewService(store *eventstore.Store) *Service {
	return &Service{store: store}
}

// AddItem puts one unit of a product into the order's basket.
func (s *Service) AddItem(ctx context.Context, orderID, productID string) error {
	return s.execute(ctx, orderID, func(o *ordering.Order) error {
		return o.AddItem(productID)
	})
}

// RemoveItem takes one unit of a product out of the order's basket.
func (s *Service) RemoveItem(ctx context.Context, orderID, productID string) error {
	return s.execute(ctx, orderID, func(o *ordering.Order) error {
		return o.RemoveItem(productID)
	})
}

// Submit starts checkout for the order.
func (s *Service) Submit(ctx context.Context, orderID string, orderNumber int, customerID string) error {
	return s.execute(ctx, orderID, func(o *ordering.Order) error {
		return o.Submit(orderNumber, customerID)
	})
}

// MarkAsPaid closes a submitted order as paid.
func (s *Service) MarkAsPaid(ctx context.Context, orderID string) error {
	return s.execute(ctx, orderID, (*ordering.Order).MarkAsPaid)
}

// Expire abandons an order that never completed checkout.
func (s *Service) Expire(ctx context.Context, orderID string) error {
	return s.execute(ctx, orderID, (*ordering.Order).Expire)
}

// Cancel backs out of a submitted order.
func (s *Service) Cancel(ctx context.Context, orderID string) error {
	return s.execute(ctx, orderID, (*ordering.Order).Cancel)
}

func (s *Service) execute(ctx context.Context, orderID string, command func(*ordering.Order) error) error {
	stream := ordering.StreamName(orderID)
	history, err := s.store.Read(ctx, stream)
	if err != nil {
		return fmt.Errorf("read %s: %w", stream, err)
	}

	o := ordering.FromHistory(orderID, history)
	if err := command(o); err != nil {
		return err
	}

	staged := o.UnpublishedEvents()
	if len(staged) == 0 {
		return nil
	}
	if _, err := s.store.Append(ctx, stream, int64(len(history)), staged...); err != nil {
		return fmt.Errorf("append to %s: %w", stream, err)
	}
	return nil
}
