package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway collects payments through Stripe payment intents.
type StripeGateway struct {
	api      *client.API
	currency stripe.Currency
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe secret key is not set")
	}

	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeGateway{
		api:      api,
		currency: stripe.CurrencyUSD,
	}, nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(ToMinorUnits(amount)),
		Currency: stripe.String(string(g.currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) Confirm(ctx context.Context, intentID, paymentMethod string) (Confirmation, error) {
	params := &stripe.PaymentIntentConfirmParams{
		Params:        stripe.Params{Context: ctx},
		PaymentMethod: stripe.String(paymentMethod),
	}

	pi, err := g.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		// Card declines come back as stripe errors carrying a
		// shopper-readable message. They are outcomes, not transport
		// failures: the order stays awaiting payment.
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return Confirmation{Status: StatusFailed, Message: stripeErr.Msg}, nil
		}
		return Confirmation{}, fmt.Errorf("failed to confirm payment intent: %w", err)
	}

	return Confirmation{
		Status:        statusOf(pi.Status),
		TransactionID: pi.ID,
	}, nil
}

func statusOf(s stripe.PaymentIntentStatus) IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation:
		return StatusRequiresAction
	case stripe.PaymentIntentStatusProcessing:
		return StatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		return StatusCanceled
	default:
		return StatusFailed
	}
}
