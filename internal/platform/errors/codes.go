// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Payment errors
	CodePaymentAlreadyAuthorized Code = "PAYMENT_ALREADY_AUTHORIZED"
	CodePaymentNotAuthorized     Code = "PAYMENT_NOT_AUTHORIZED"
	CodePaymentAlreadyCaptured   Code = "PAYMENT_ALREADY_CAPTURED"
	CodePaymentAlreadyReleased   Code = "PAYMENT_ALREADY_RELEASED"

	// Ordering errors
	CodeOrderNotDraft      Code = "ORDER_NOT_DRAFT"
	CodeOrderNotSubmitted  Code = "ORDER_NOT_SUBMITTED"
	CodeOrderAlreadyClosed Code = "ORDER_ALREADY_CLOSED"
	CodeOrderItemMissing   Code = "ORDER_ITEM_MISSING"
	CodeOrderEmpty         Code = "ORDER_EMPTY"

	// Event store errors
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
	CodeStreamNameEmpty     Code = "STREAM_NAME_EMPTY"
	CodeSubscriberFailed    Code = "SUBSCRIBER_FAILED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
