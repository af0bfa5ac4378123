package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrRefreshFailed means the write was confirmed but the read-back was not.
	ErrRefreshFailed = errors.New("stock refresh failed")
	// ErrSellUnsupported is reported by a Backend without a dedicated sell operation.
	ErrSellUnsupported = errors.New("sell operation not supported")
)

// genericTransportMessage is shown when the backend gave no message of its own.
const genericTransportMessage = "Could not reach the inventory service."

// InsufficientStockError carries the stock level a sale was checked against.
type InsufficientStockError struct {
	Code    string
	Current int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d units left", e.Code, e.Current)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransportError is a failed backend call. Message is what the backend said,
// or a generic text when it said nothing.
type TransportError struct {
	Op      string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// backendMessenger is implemented by backend errors that carry a reply text.
type backendMessenger interface {
	BackendMessage() string
}

// NewTransportError wraps a backend failure, keeping an existing TransportError as is.
func NewTransportError(op string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	message := genericTransportMessage
	var m backendMessenger
	if errors.As(err, &m) && m.BackendMessage() != "" {
		message = m.BackendMessage()
	}
	return &TransportError{Op: op, Message: message, Err: err}
}
