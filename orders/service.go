package orders

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/velora-store/velora-backend-go/cart"
	"github.com/velora-store/velora-backend-go/metrics"
	"github.com/velora-store/velora-backend-go/models"
	"github.com/velora-store/velora-backend-go/payment"
)

// Service owns the order lifecycle: checkout submission, payment
// confirmation and the fulfillment progression.
type Service struct {
	repo    Repository
	gateway payment.Gateway
	metrics *metrics.StoreMetrics
}

func NewService(repo Repository, gateway payment.Gateway, m *metrics.StoreMetrics) *Service {
	return &Service{repo: repo, gateway: gateway, metrics: m}
}

// CheckoutResult carries the references the payment step needs. The
// client secret travels via navigation state only; it is stored neither
// on the cart nor on the order.
type CheckoutResult struct {
	OrderID      string `json:"orderId"`
	ClientSecret string `json:"clientSecret"`
}

// Checkout converts the session cart plus the shipping form into one
// awaiting_payment order and one payment intent sized to its total.
// Order creation strictly precedes the intent request: a create failure
// aborts with nothing persisted, while an intent failure leaves the
// awaiting_payment order behind as an accepted abandoned state.
func (s *Service) Checkout(ctx context.Context, store *cart.Store, customer models.CustomerInfo) (CheckoutResult, error) {
	items := store.Items()
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}
	if missing := customer.MissingFields(); len(missing) > 0 {
		return CheckoutResult{}, &ValidationError{Missing: missing}
	}

	lineItems := make([]models.OrderItem, len(items))
	for i, item := range items {
		lineItems[i] = models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Size:      item.SelectedSize,
		}
	}

	order := &models.Order{
		Customer:      customer,
		Items:         lineItems,
		Total:         store.TotalPrice(),
		PaymentStatus: models.PaymentStatusAwaiting,
		Status:        models.FulfillmentPending,
		CreatedAt:     time.Now(),
	}

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("failed to create order: %w", err)
	}
	s.metrics.OrdersCreated.Inc()

	intent, err := s.gateway.CreateIntent(ctx, order.Total)
	if err != nil {
		// No payment happened; the order stays awaiting_payment and is
		// cleaned up manually. No rollback.
		return CheckoutResult{}, fmt.Errorf("failed to create payment intent for order %s: %w", id.Hex(), err)
	}

	return CheckoutResult{OrderID: id.Hex(), ClientSecret: intent.ClientSecret}, nil
}

// ConfirmPayment finalizes the charge with the gateway. A terminal
// succeeded status is the only trigger for the paid transition and the
// cart clear; every other outcome leaves order and cart untouched.
func (s *Service) ConfirmPayment(ctx context.Context, store *cart.Store, orderID, intentID, paymentMethod string) error {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return ErrOrderNotFound
	}

	order, err := s.repo.Get(ctx, oid)
	if err != nil {
		return err
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil // already confirmed; nothing to redo
	}

	confirmation, err := s.gateway.Confirm(ctx, intentID, paymentMethod)
	if err != nil {
		return fmt.Errorf("failed to reach payment gateway: %w", err)
	}

	if confirmation.Status != payment.StatusSucceeded {
		s.metrics.PaymentsDeclined.Inc()
		return &DeclinedError{Status: confirmation.Status, Message: confirmation.Message}
	}

	markErr := s.repo.MarkPaid(ctx, oid, confirmation.TransactionID, time.Now())

	// The charge is real at this point regardless of markErr, so the
	// cart must not survive: re-submitting it would charge again.
	if clearErr := store.Clear(ctx); clearErr != nil {
		log.Printf("failed to clear cart after payment %s: %v", confirmation.TransactionID, clearErr)
	}

	if markErr != nil {
		s.metrics.Reconciliations.Inc()
		return &ReconciliationError{
			OrderID:       orderID,
			TransactionID: confirmation.TransactionID,
			Err:           markErr,
		}
	}

	s.metrics.PaymentsConfirmed.Inc()
	return nil
}

// SetFulfillmentStatus is the administrative set-operation. The status
// must belong to the closed enum, but any jump between the four states
// is allowed, including regressions.
func (s *Service) SetFulfillmentStatus(ctx context.Context, orderID, raw string) error {
	status, ok := models.ParseFulfillmentStatus(raw)
	if !ok {
		return ErrInvalidStatus
	}

	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return ErrOrderNotFound
	}
	return s.repo.SetStatus(ctx, oid, status)
}

func (s *Service) Get(ctx context.Context, orderID string) (models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return models.Order{}, ErrOrderNotFound
	}
	return s.repo.Get(ctx, oid)
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	return s.repo.List(ctx)
}

// ListForCustomer returns the order history for one customer email,
// newest first.
func (s *Service) ListForCustomer(ctx context.Context, email string) ([]models.Order, error) {
	return s.repo.ListByCustomerEmail(ctx, email)
}

// Subscribe opens a live view on one order. The caller owns invoking
// the returned stop function when the consuming view goes away.
func (s *Service) Subscribe(ctx context.Context, orderID string, onChange func(models.Order)) (func(), error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return s.repo.Watch(ctx, oid, onChange)
}
