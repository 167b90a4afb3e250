package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/velora-store/velora-backend-go/cart"
	"github.com/velora-store/velora-backend-go/metrics"
	"github.com/velora-store/velora-backend-go/models"
	"github.com/velora-store/velora-backend-go/orders"
	"github.com/velora-store/velora-backend-go/payment"
)

type stubRepo struct {
	mu          sync.Mutex
	orders      map[primitive.ObjectID]*models.Order
	markPaidErr error
	watchErr    error
}

func newStubRepo() *stubRepo {
	return &stubRepo{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *stubRepo) Create(_ context.Context, order *models.Order) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = primitive.NewObjectID()
	stored := *order
	s.orders[order.ID] = &stored
	return order.ID, nil
}

func (s *stubRepo) Get(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, orders.ErrOrderNotFound
	}
	return *order, nil
}

func (s *stubRepo) List(_ context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Order
	for _, o := range s.orders {
		all = append(all, *o)
	}
	return all, nil
}

func (s *stubRepo) ListByCustomerEmail(_ context.Context, email string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Order
	for _, o := range s.orders {
		if o.Customer.Email == email {
			matched = append(matched, *o)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (s *stubRepo) MarkPaid(_ context.Context, id primitive.ObjectID, paymentID string, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markPaidErr != nil {
		return s.markPaidErr
	}
	order, ok := s.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentID = paymentID
	order.PaidAt = &paidAt
	return nil
}

func (s *stubRepo) SetStatus(_ context.Context, id primitive.ObjectID, status models.FulfillmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (s *stubRepo) Watch(context.Context, primitive.ObjectID, func(models.Order)) (func(), error) {
	if s.watchErr != nil {
		return nil, s.watchErr
	}
	return func() {}, nil
}

type stubGateway struct {
	confirmation payment.Confirmation
}

func (g *stubGateway) CreateIntent(context.Context, float64) (payment.Intent, error) {
	return payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (g *stubGateway) Confirm(context.Context, string, string) (payment.Confirmation, error) {
	return g.confirmation, nil
}

func newOrderHandler(repo orders.Repository, gw payment.Gateway) *Handler {
	return &Handler{
		Orders:      orders.NewService(repo, gw, metrics.New()),
		CartStorage: cart.NewMemoryStorage(),
		Gateway:     gw,
	}
}

func jsonRequest(t *testing.T, handle echo.HandlerFunc, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: cartCookie, Value: "sess"})
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, handle(c))
	return rec
}

func seedHandlerCart(t *testing.T, h *Handler) {
	t.Helper()
	item := `{"productId":"p1","name":"Tee","price":20,"selectedSize":"M","quantity":1}`
	rec := jsonRequest(t, h.AddToCart, http.MethodPost, "/api/cart/items", item)
	require.Equal(t, http.StatusOK, rec.Code)
}

const validCheckoutForm = `{"firstName":"Ayaan","lastName":"Warsame","email":"ayaan@example.com",
"phone":"+252611234567","address":"Main Street 123","postcode":"252","city":"Mogadishu"}`

func TestCheckoutHandler_EmptyCart(t *testing.T) {
	h := newOrderHandler(newStubRepo(), &stubGateway{})

	rec := jsonRequest(t, h.Checkout, http.MethodPost, "/api/checkout", validCheckoutForm)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cart is empty")
}

func TestCheckoutHandler_MissingFields(t *testing.T) {
	h := newOrderHandler(newStubRepo(), &stubGateway{})
	seedHandlerCart(t, h)

	rec := jsonRequest(t, h.Checkout, http.MethodPost, "/api/checkout", `{"firstName":"Ayaan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required fields")
}

func TestCheckoutHandler_Success(t *testing.T) {
	h := newOrderHandler(newStubRepo(), &stubGateway{})
	seedHandlerCart(t, h)

	rec := jsonRequest(t, h.Checkout, http.MethodPost, "/api/checkout", validCheckoutForm)
	require.Equal(t, http.StatusCreated, rec.Code)

	var result orders.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, "pi_test_secret", result.ClientSecret)
}

func TestPayOrderHandler_DeclinedKeepsDistinctCode(t *testing.T) {
	repo := newStubRepo()
	gw := &stubGateway{confirmation: payment.Confirmation{
		Status:  payment.StatusFailed,
		Message: "Your card was declined.",
	}}
	h := newOrderHandler(repo, gw)
	seedHandlerCart(t, h)

	rec := jsonRequest(t, h.Checkout, http.MethodPost, "/api/checkout", validCheckoutForm)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result orders.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = jsonRequest(t, h.PayOrder, http.MethodPost, "/api/orders/"+result.OrderID+"/pay",
		`{"intentId":"pi_test","paymentMethodId":"pm_card"}`, "id", result.OrderID)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "payment_declined", body["code"])
	assert.Equal(t, "Your card was declined.", body["error"])
}

func TestPayOrderHandler_ReconciliationIsNotRetryable(t *testing.T) {
	repo := newStubRepo()
	gw := &stubGateway{confirmation: payment.Confirmation{
		Status:        payment.StatusSucceeded,
		TransactionID: "pi_test",
	}}
	h := newOrderHandler(repo, gw)
	seedHandlerCart(t, h)

	rec := jsonRequest(t, h.Checkout, http.MethodPost, "/api/checkout", validCheckoutForm)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result orders.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	repo.markPaidErr = assert.AnError

	rec = jsonRequest(t, h.PayOrder, http.MethodPost, "/api/orders/"+result.OrderID+"/pay",
		`{"intentId":"pi_test","paymentMethodId":"pm_card"}`, "id", result.OrderID)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "paid_unrecorded", body["code"])
	assert.Equal(t, "pi_test", body["paymentId"])
	assert.NotContains(t, body["error"], "declined")
}

func TestPayOrderHandler_SuccessMarksPaid(t *testing.T) {
	repo := newStubRepo()
	gw := &stubGateway{confirmation: payment.Confirmation{
		Status:        payment.StatusSucceeded,
		TransactionID: "pi_test",
	}}
	h := newOrderHandler(repo, gw)
	seedHandlerCart(t, h)

	rec := jsonRequest(t, h.Checkout, http.MethodPost, "/api/checkout", validCheckoutForm)
	require.Equal(t, http.StatusCreated, rec.Code)
	var result orders.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = jsonRequest(t, h.PayOrder, http.MethodPost, "/api/orders/"+result.OrderID+"/pay",
		`{"intentId":"pi_test","paymentMethodId":"pm_card"}`, "id", result.OrderID)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = jsonRequest(t, h.GetOrder, http.MethodGet, "/api/orders/"+result.OrderID, "", "id", result.OrderID)
	require.Equal(t, http.StatusOK, rec.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "pi_test", order.PaymentID)

	// the session cart is gone after the confirmed payment
	rec = jsonRequest(t, h.GetCart, http.MethodGet, "/api/cart", "")
	cartBody := decodeCart(t, rec)
	assert.Empty(t, cartBody.Items)
}

func TestListMyOrdersHandler_OwnHistoryOnly(t *testing.T) {
	repo := newStubRepo()
	h := newOrderHandler(repo, &stubGateway{})

	ctx := context.Background()
	_, err := repo.Create(ctx, &models.Order{
		Customer:  models.CustomerInfo{Email: "ayaan@example.com"},
		CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	newerID, err := repo.Create(ctx, &models.Order{
		Customer:  models.CustomerInfo{Email: "ayaan@example.com"},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Order{
		Customer:  models.CustomerInfo{Email: "someone-else@example.com"},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("email", "ayaan@example.com")

	require.NoError(t, h.ListMyOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, newerID, history[0].ID, "newest first")
	for _, o := range history {
		assert.Equal(t, "ayaan@example.com", o.Customer.Email)
	}
}

func TestListMyOrdersHandler_MissingIdentity(t *testing.T) {
	h := newOrderHandler(newStubRepo(), &stubGateway{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.ListMyOrders(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStreamOrderHandler_SubscribeFailureIsNotCommitted(t *testing.T) {
	repo := newStubRepo()
	repo.watchErr = assert.AnError
	h := newOrderHandler(repo, &stubGateway{})

	id, err := repo.Create(context.Background(), &models.Order{Status: models.FulfillmentPending})
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+id.Hex()+"/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	require.Error(t, h.StreamOrder(c))
	assert.False(t, c.Response().Committed, "no success status before the subscription exists")
	assert.Empty(t, rec.Body.String())
}

func TestStreamOrderHandler_SendsInitialSnapshot(t *testing.T) {
	repo := newStubRepo()
	h := newOrderHandler(repo, &stubGateway{})

	id, err := repo.Create(context.Background(), &models.Order{Status: models.FulfillmentShipped})
	require.NoError(t, err)

	// an already-closed request context ends the stream after the
	// initial snapshot
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+id.Hex()+"/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	require.NoError(t, h.StreamOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Body.String(), "data: ")
	assert.Contains(t, rec.Body.String(), string(models.FulfillmentShipped))
}

func TestGetOrderHandler_NotFoundIsDistinct(t *testing.T) {
	h := newOrderHandler(newStubRepo(), &stubGateway{})

	id := primitive.NewObjectID().Hex()
	rec := jsonRequest(t, h.GetOrder, http.MethodGet, "/api/orders/"+id, "", "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order not found")
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	repo := newStubRepo()
	h := newOrderHandler(repo, &stubGateway{})

	id, err := repo.Create(context.Background(), &models.Order{Status: models.FulfillmentPending})
	require.NoError(t, err)

	rec := jsonRequest(t, h.UpdateOrderStatus, http.MethodPut, "/api/admin/orders/"+id.Hex()+"/status",
		`{"status":"shipped"}`, "id", id.Hex())
	require.Equal(t, http.StatusOK, rec.Code)

	order, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.FulfillmentShipped, order.Status)
	assert.Equal(t, 2, order.Status.StepIndex())

	rec = jsonRequest(t, h.UpdateOrderStatus, http.MethodPut, "/api/admin/orders/"+id.Hex()+"/status",
		`{"status":"lost"}`, "id", id.Hex())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
