// Package apperr defines the closed set of error kinds the backend reports.
// Handlers map kinds to HTTP status codes instead of string-matching messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidIdentifier      Kind = "invalid_identifier"
	KindNotFound               Kind = "not_found"
	KindEmptyCart              Kind = "empty_cart"
	KindInvalidShippingAddress Kind = "invalid_shipping_address"
	KindInsufficientStock      Kind = "insufficient_stock"
	KindInvalidPaymentDetails  Kind = "invalid_payment_details"
	KindInvalidAmount          Kind = "invalid_amount"
	KindUnsupportedCard        Kind = "unsupported_card"
	KindCardExpired            Kind = "card_expired"
	KindPaymentDeclined        Kind = "payment_declined"
	KindRefundDeclined         Kind = "refund_declined"
	KindTransactionConflict    Kind = "transaction_conflict"
	KindInternal               Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string

	// ProductID and Available are populated for KindInsufficientStock so the
	// caller can tell which line item failed.
	ProductID string
	Available int

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the kind from err, or KindInternal when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may retry the same request verbatim.
// Only storage-layer aborts qualify; every other kind needs changed input.
func Retryable(err error) bool {
	return KindOf(err) == KindTransactionConflict
}
