// Package ordering implements the order aggregate: a basket that collects
// items while in draft, then moves through a submitted checkout to one of
// the terminal outcomes paid, expired or cancelled.
package ordering

import (
	"encoding/json"
	"fmt"

	"github.com/sableward/mercantile/internal/eventstore"
	apperrors "github.com/sableward/mercantile/internal/platform/errors"
)

// State is the order lifecycle state. Paid, Expired and Cancelled are
// terminal.
type State int

const (
	// StateDraft is the initial state; the basket is open for changes.
	StateDraft State = iota
	// StateSubmitted means checkout started and the basket is frozen.
	StateSubmitted
	// StatePaid means the payment for the order was captured.
	StatePaid
	// StateExpired means checkout was abandoned.
	StateExpired
	// StateCancelled means the customer backed out after submitting.
	StateCancelled
)

var (
	// ErrNotDraft rejects basket changes and submission after checkout.
	ErrNotDraft = apperrors.New(apperrors.CodeOrderNotDraft, "order is not a draft")
	// ErrNotSubmitted rejects paying or cancelling an order outside checkout.
	ErrNotSubmitted = apperrors.New(apperrors.CodeOrderNotSubmitted, "order is not submitted")
	// ErrAlreadyClosed rejects commands on a terminal order.
	ErrAlreadyClosed = apperrors.New(apperrors.CodeOrderAlreadyClosed, "order is already closed")
	// ErrItemMissing rejects removing a product the basket does not hold.
	ErrItemMissing = apperrors.New(apperrors.CodeOrderItemMissing, "product is not in the basket")
	// ErrEmpty rejects submitting an order with an empty basket.
	ErrEmpty = apperrors.New(apperrors.CodeOrderEmpty, "order has no items")
)

// StreamName returns the write stream for an order.
func StreamName(orderID string) string {
	return "Order$" + orderID
}

// Order is the aggregate. Create one with New, rebuild it from history with
// FromHistory, and flush UnpublishedEvents to the event store in one append.
type Order struct {
	id         string
	state      State
	number     int
	customerID string
	quantities map[string]int
	pending    []eventstore.Event
}

// New creates a fresh draft order with an empty basket.
func New(orderID string) *Order {
	return &Order{id: orderID, quantities: map[string]int{}}
}

// FromHistory rebuilds an order by folding its past events in order.
func FromHistory(orderID string, events []eventstore.Event) *Order {
	o := New(orderID)
	for _, evt := range events {
		o.Apply(evt)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Order) State() State {
	return o.state
}

// Number returns the checkout number assigned on submission.
func (o *Order) Number() int {
	return o.number
}

// CustomerID returns the customer set on submission.
func (o *Order) CustomerID() string {
	return o.customerID
}

// Quantity returns how many units of a product the basket holds.
func (o *Order) Quantity(productID string) int {
	return o.quantities[productID]
}

// UnpublishedEvents returns the events staged by commands since the order
// was created or loaded.
func (o *Order) UnpublishedEvents() []eventstore.Event {
	return append([]eventstore.Event(nil), o.pending...)
}

// AddItem puts one unit of a product into the basket.
func (o *Order) AddItem(productID string) error {
	if o.state != StateDraft {
		return ErrNotDraft
	}
	return o.record(EventTypeItemAdded, ItemPayload{OrderID: o.id, ProductID: productID})
}

// RemoveItem takes one unit of a product out of the basket.
func (o *Order) RemoveItem(productID string) error {
	if o.state != StateDraft {
		return ErrNotDraft
	}
	if o.quantities[productID] == 0 {
		return ErrItemMissing
	}
	return o.record(EventTypeItemRemoved, ItemPayload{OrderID: o.id, ProductID: productID})
}

// Submit freezes the basket and starts checkout under the given order number
// for the given customer. The basket must hold at least one item.
func (o *Order) Submit(orderNumber int, customerID string) error {
	if o.state != StateDraft {
		return ErrNotDraft
	}
	if len(o.quantities) == 0 {
		return ErrEmpty
	}
	return o.record(EventTypeSubmitted, SubmittedPayload{
		OrderID:     o.id,
		OrderNumber: orderNumber,
		CustomerID:  customerID,
	})
}

// MarkAsPaid closes a submitted order as paid.
func (o *Order) MarkAsPaid() error {
	if o.closed() {
		return ErrAlreadyClosed
	}
	if o.state != StateSubmitted {
		return ErrNotSubmitted
	}
	return o.record(EventTypePaid, LifecyclePayload{OrderID: o.id})
}

// Expire abandons an order that never completed checkout. Both drafts and
// submitted orders can expire.
func (o *Order) Expire() error {
	if o.closed() {
		return ErrAlreadyClosed
	}
	return o.record(EventTypeExpired, LifecyclePayload{OrderID: o.id})
}

// Cancel backs out of a submitted order before payment.
func (o *Order) Cancel() error {
	if o.closed() {
		return ErrAlreadyClosed
	}
	if o.state != StateSubmitted {
		return ErrNotSubmitted
	}
	return o.record(EventTypeCancelled, LifecyclePayload{OrderID: o.id})
}

func (o *Order) closed() bool {
	switch o.state {
	case StatePaid, StateExpired, StateCancelled:
		return true
	}
	return false
}

// Apply folds a single event into state without side effects or validation.
func (o *Order) Apply(evt eventstore.Event) {
	switch evt.Type {
	case EventTypeItemAdded:
		var payload ItemPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		o.quantities[payload.ProductID]++
	case EventTypeItemRemoved:
		var payload ItemPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		if o.quantities[payload.ProductID] <= 1 {
			delete(o.quantities, payload.ProductID)
		} else {
			o.quantities[payload.ProductID]--
		}
	case EventTypeSubmitted:
		var payload SubmittedPayload
		_ = json.Unmarshal(evt.PayloadJSON, &payload)
		o.state = StateSubmitted
		o.number = payload.OrderNumber
		o.customerID = payload.CustomerID
	case EventTypePaid:
		o.state = StatePaid
	case EventTypeExpired:
		o.state = StateExpired
	case EventTypeCancelled:
		o.state = StateCancelled
	}
}

func (o *Order) record(eventType eventstore.Type, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	evt := eventstore.Event{
		Type:          eventType,
		PayloadJSON:   payloadJSON,
		CorrelationID: o.id,
	}
	o.Apply(evt)
	o.pending = append(o.pending, evt)
	return nil
}
