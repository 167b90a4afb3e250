package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velora-store/velora-backend-go/models"
	"github.com/velora-store/velora-backend-go/orders"
)

// Checkout converts the session cart plus the shipping form into an
// awaiting_payment order and hands back the payment-session reference.
func (h *Handler) Checkout(c echo.Context) error {
	var customer models.CustomerInfo
	if err := c.Bind(&customer); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	store, err := h.loadCart(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load cart"})
	}

	result, err := h.Orders.Checkout(c.Request().Context(), store, customer)
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// CreatePaymentIntent is the standalone payment-intent boundary:
// major-unit amount in, client secret out.
func (h *Handler) CreatePaymentIntent(c echo.Context) error {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Amount is required"})
	}

	intent, err := h.Gateway.CreateIntent(c.Request().Context(), req.Amount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"clientSecret": intent.ClientSecret})
}

// PayOrder confirms the payment session for an order. Success is the
// only path that marks the order paid and clears the cart.
func (h *Handler) PayOrder(c echo.Context) error {
	var req struct {
		IntentID      string `json:"intentId"`
		PaymentMethod string `json:"paymentMethodId"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.IntentID == "" || req.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "intentId and paymentMethodId are required"})
	}

	store, err := h.loadCart(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load cart"})
	}

	if err := h.Orders.ConfirmPayment(c.Request().Context(), store, c.Param("id"), req.IntentID, req.PaymentMethod); err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Payment successful"})
}

// GetOrder returns one order, 404 when it does not exist.
func (h *Handler) GetOrder(c echo.Context) error {
	order, err := h.Orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// StreamOrder pushes live order updates over SSE. The subscription is
// torn down when the client disconnects.
func (h *Handler) StreamOrder(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("id")

	order, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		return orderError(c, err)
	}

	// Subscribe before committing the response so a failed
	// subscription can still produce an error status.
	updates := make(chan models.Order, 8)
	stop, err := h.Orders.Subscribe(ctx, orderID, func(o models.Order) {
		select {
		case updates <- o:
		default: // consumer is behind; the next event carries the full document anyway
		}
	})
	if err != nil {
		return err
	}
	defer stop()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeSSE(res, order); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-updates:
			if err := writeSSE(res, o); err != nil {
				return nil
			}
		}
	}
}

func writeSSE(res *echo.Response, order models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// ListMyOrders returns the authenticated customer's order history,
// newest first. The email comes from the verified token, so a customer
// can only ever see their own orders.
func (h *Handler) ListMyOrders(c echo.Context) error {
	email, _ := c.Get("email").(string)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing customer identity"})
	}

	history, err := h.Orders.ListForCustomer(c.Request().Context(), email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch orders"})
	}
	if history == nil {
		history = []models.Order{}
	}
	return c.JSON(http.StatusOK, history)
}

// ListOrders returns every order for the admin console, newest first.
func (h *Handler) ListOrders(c echo.Context) error {
	all, err := h.Orders.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch orders"})
	}
	return c.JSON(http.StatusOK, all)
}

// UpdateOrderStatus is the administrative fulfillment set-operation.
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	if err := h.Orders.SetFulfillmentStatus(c.Request().Context(), c.Param("id"), req.Status); err != nil {
		return orderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Status updated"})
}

// EventListenerHealth reports the order event listener's state.
func (h *Handler) EventListenerHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Listener.Health())
}

// orderError maps lifecycle errors onto the response taxonomy. The
// reconciliation case gets its own code so a client never re-runs the
// payment as if it had failed.
func orderError(c echo.Context, err error) error {
	var verr *orders.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Error()})
	}

	var declined *orders.DeclinedError
	if errors.As(err, &declined) {
		return c.JSON(http.StatusPaymentRequired, map[string]string{
			"error": declined.Error(),
			"code":  "payment_declined",
		})
	}

	var recon *orders.ReconciliationError
	if errors.As(err, &recon) {
		return c.JSON(http.StatusConflict, map[string]string{
			"error":     "Payment succeeded but the order could not be updated. Do not retry payment; contact support with your payment reference.",
			"code":      "paid_unrecorded",
			"paymentId": recon.TransactionID,
		})
	}

	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Cart is empty"})
	case errors.Is(err, orders.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown fulfillment status"})
	case errors.Is(err, orders.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Something went wrong, please try again"})
}
