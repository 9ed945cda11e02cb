// Package payment implements the payment aggregate. A payment folds its own
// event history into state and is the sole originator of new payment events.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sableward/mercantile/internal/eventstore"
	apperrors "github.com/sableward/mercantile/internal/platform/errors"
)

// Payment event types.
const (
	EventTypeAuthorized eventstore.Type = "payment.authorized"
	EventTypeCaptured   eventstore.Type = "payment.captured"
	EventTypeReleased   eventstore.Type = "payment.released"
)

// Payload is the event payload shared by all payment events. The identity
// correlators are carried on every event once known.
type Payload struct {
	TransactionID string `json:"transaction_id"`
	OrderID       string `json:"order_id"`
}

// State is the payment lifecycle state. Captured and Released are terminal.
type State int

const (
	// StateUnauthorized is the initial state of a fresh payment.
	StateUnauthorized State = iota
	// StateAuthorized means the gateway holds the amount.
	StateAuthorized
	// StateCaptured means the held amount was collected.
	StateCaptured
	// StateReleased means the hold was returned uncollected.
	StateReleased
)

var (
	// ErrAlreadyAuthorized rejects a second authorization.
	ErrAlreadyAuthorized = apperrors.New(apperrors.CodePaymentAlreadyAuthorized, "payment is already authorized")
	// ErrNotAuthorized rejects capture or release before authorization.
	ErrNotAuthorized = apperrors.New(apperrors.CodePaymentNotAuthorized, "payment is not authorized")
	// ErrAlreadyCaptured rejects capture or release after capture.
	ErrAlreadyCaptured = apperrors.New(apperrors.CodePaymentAlreadyCaptured, "payment is already captured")
	// ErrAlreadyReleased rejects a second release.
	ErrAlreadyReleased = apperrors.New(apperrors.CodePaymentAlreadyReleased, "payment is already released")
)

// Gateway is the external payment gateway capability consumed during
// authorization. A gateway failure aborts the command before any event is
// staged.
type Gateway interface {
	AuthorizeTransaction(ctx context.Context, transactionID string, amountCents int64) error
}

// StreamName returns the write stream for a payment identified by its
// transaction id.
func StreamName(transactionID string) string {
	return "Payment$" + transactionID
}

// Payment is the aggregate. Create one with New, rebuild it from history with
// FromHistory, and flush UnpublishedEvents to the event store in one append.
type Payment struct {
	state         State
	transactionID string
	orderID       string
	pending       []eventstore.Event
}

// New creates a fresh, unauthorized payment.
func New() *Payment {
	return &Payment{}
}

// FromHistory rebuilds a payment by folding its past events in order.
func FromHistory(events []eventstore.Event) *Payment {
	p := New()
	for _, evt := range events {
		p.Apply(evt)
	}
	return p
}

// State returns the current lifecycle state.
func (p *Payment) State() State {
	return p.state
}

// TransactionID returns the identity correlator set on authorization.
func (p *Payment) TransactionID() string {
	return p.transactionID
}

// OrderID returns the order this payment belongs to.
func (p *Payment) OrderID() string {
	return p.orderID
}

// UnpublishedEvents returns the events staged by commands since the payment
// was created or loaded. The command handler appends them in one call, which
// is what makes a multi-event command atomic.
func (p *Payment) UnpublishedEvents() []eventstore.Event {
	return append([]eventstore.Event(nil), p.pending...)
}

// Authorize places a hold on the amount via the gateway and stages a
// payment.authorized event. The gateway call happens before anything is
// staged; its failure aborts the command with no state change.
func (p *Payment) Authorize(ctx context.Context, gateway Gateway, transactionID, orderID string, amountCents int64) error {
	if p.state != StateUnauthorized {
		return ErrAlreadyAuthorized
	}
	if err := gateway.AuthorizeTransaction(ctx, transactionID, amountCents); err != nil {
		return fmt.Errorf("authorize transaction %s: %w", transactionID, err)
	}
	return p.record(EventTypeAuthorized, Payload{TransactionID: transactionID, OrderID: orderID})
}

// Capture collects the authorized amount and stages a payment.captured event.
func (p *Payment) Capture() error {
	switch p.state {
	case StateCaptured:
		return ErrAlreadyCaptured
	case StateAuthorized:
		return p.record(EventTypeCaptured, Payload{TransactionID: p.transactionID, OrderID: p.orderID})
	default:
		return ErrNotAuthorized
	}
}

// Release returns the authorized amount uncollected and stages a
// payment.released event. Capture and release are mutually exclusive
// outcomes of authorization, so release is unreachable after capture.
func (p *Payment) Release() error {
	switch p.state {
	case StateCaptured:
		return ErrAlreadyCaptured
	case StateReleased:
		return ErrAlreadyReleased
	case StateAuthorized:
		return p.record(EventTypeReleased, Payload{TransactionID: p.transactionID, OrderID: p.orderID})
	default:
		return ErrNotAuthorized
	}
}

// Apply folds a single event into state without side effects or validation.
// It serves both historical replay and staging of freshly recorded events, so
// replaying a payment's history reproduces the exact state the commands left.
func (p *Payment) Apply(evt eventstore.Event) {
	var payload Payload
	_ = json.Unmarshal(evt.PayloadJSON, &payload)

	switch evt.Type {
	case EventTypeAuthorized:
		p.state = StateAuthorized
		p.transactionID = payload.TransactionID
		p.orderID = payload.OrderID
	case EventTypeCaptured:
		p.state = StateCaptured
	case EventTypeReleased:
		p.state = StateReleased
	}
}

// record stages a new event: fold it into state, then queue it for the next
// flush to the event store.
func (p *Payment) record(eventType eventstore.Type, payload Payload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	evt := eventstore.Event{
		Type:          eventType,
		PayloadJSON:   payloadJSON,
		CorrelationID: payload.OrderID,
	}
	p.Apply(evt)
	p.pending = append(p.pending, evt)
	return nil
}
