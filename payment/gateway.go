package payment

import (
	"context"
	"math"
)

// IntentStatus is the gateway-reported outcome of a confirmation.
// Only StatusSucceeded is terminal success; everything else leaves the
// order awaiting payment.
type IntentStatus string

const (
	StatusSucceeded      IntentStatus = "succeeded"
	StatusRequiresAction IntentStatus = "requires_action"
	StatusProcessing     IntentStatus = "processing"
	StatusCanceled       IntentStatus = "canceled"
	StatusFailed         IntentStatus = "failed"
)

// Intent is a gateway-issued handle for an amount to be collected.
type Intent struct {
	ID           string
	ClientSecret string
}

// Confirmation is the result of confirming an intent with a payment
// method. Message carries the gateway's human-readable decline reason.
type Confirmation struct {
	Status        IntentStatus
	TransactionID string
	Message       string
}

// Gateway is the payment processor boundary. Amounts cross it in major
// currency units; implementations convert to the gateway's minor-unit
// representation before dispatch.
type Gateway interface {
	CreateIntent(ctx context.Context, amount float64) (Intent, error)
	Confirm(ctx context.Context, intentID, paymentMethod string) (Confirmation, error)
}

// ToMinorUnits converts a major-unit amount to integer cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
