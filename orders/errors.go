package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/velora-store/velora-backend-go/payment"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrOrderNotFound = errors.New("order not found")
	ErrAlreadyPaid   = errors.New("order is already paid")
	ErrInvalidStatus = errors.New("unknown fulfillment status")
)

// ValidationError reports required checkout fields that were empty.
// It is raised before any backend call, so no partial state exists.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// DeclinedError is a non-terminal gateway outcome. The order stays
// awaiting payment and the cart is untouched; the shopper may retry
// with a different payment method.
type DeclinedError struct {
	Status  payment.IntentStatus
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("payment not completed (status %s)", e.Status)
}

// ReconciliationError means the gateway confirmed the charge but the
// order record could not be updated. This must never be handled as a
// plain payment failure: retrying the payment would charge twice.
type ReconciliationError struct {
	OrderID       string
	TransactionID string
	Err           error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment %s for order %s succeeded but the order record was not updated: %v",
		e.TransactionID, e.OrderID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
