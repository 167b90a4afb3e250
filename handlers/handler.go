package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/velora-store/velora-backend-go/cart"
	"github.com/velora-store/velora-backend-go/events"
	"github.com/velora-store/velora-backend-go/orders"
	"github.com/velora-store/velora-backend-go/payment"
)

const cartCookie = "cart_session"

// Handler carries the dependencies shared by the route handlers.
type Handler struct {
	Orders      *orders.Service
	CartStorage cart.Storage
	Gateway     payment.Gateway
	Listener    *events.OrderEventListener
	Products    *mongo.Collection
	Customers   *mongo.Collection
}

func New(orderSvc *orders.Service, storage cart.Storage, gateway payment.Gateway,
	listener *events.OrderEventListener, products, customers *mongo.Collection) *Handler {
	return &Handler{
		Orders:      orderSvc,
		CartStorage: storage,
		Gateway:     gateway,
		Listener:    listener,
		Products:    products,
		Customers:   customers,
	}
}

// cartSession resolves the shopper's cart session id, minting a cookie
// on first contact. The cart is single-writer per session.
func (h *Handler) cartSession(c echo.Context) string {
	if ck, err := c.Cookie(cartCookie); err == nil && ck.Value != "" {
		return ck.Value
	}

	session := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cartCookie,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
	})
	return session
}

func (h *Handler) loadCart(c echo.Context) (*cart.Store, error) {
	return cart.Load(c.Request().Context(), h.CartStorage, h.cartSession(c))
}
