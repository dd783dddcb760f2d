package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
	"github.com/saraelshenawy632/project-grad/internal/cart"
	"github.com/saraelshenawy632/project-grad/internal/catalog"
	"github.com/saraelshenawy632/project-grad/internal/order"
	"github.com/saraelshenawy632/project-grad/internal/payment"
)

type fakeCheckout struct {
	order *order.Order
	err   error

	gotUserID string
	gotCartID string
}

func (f *fakeCheckout) Checkout(ctx context.Context, userID, cartID string, addr order.ShippingAddress, paymentMethod string) (*order.Order, error) {
	f.gotUserID = userID
	f.gotCartID = cartID
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

type fakePaymentService struct {
	rec *payment.Payment
	err error
}

func (f *fakePaymentService) Process(ctx context.Context, orderID string, details payment.CardDetails) (*payment.Payment, error) {
	return f.rec, f.err
}
func (f *fakePaymentService) Refund(ctx context.Context, transactionID string, amount float64) (*payment.Payment, error) {
	return f.rec, f.err
}
func (f *fakePaymentService) Verify(ctx context.Context, transactionID string) (*payment.Payment, error) {
	return f.rec, f.err
}

type fakeCartService struct {
	cart *cart.Cart
	err  error
}

func (f *fakeCartService) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	return f.cart, f.err
}
func (f *fakeCartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error) {
	return f.cart, f.err
}
func (f *fakeCartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error) {
	return f.cart, f.err
}
func (f *fakeCartService) RemoveItem(ctx context.Context, userID, productID string) (*cart.Cart, error) {
	return f.cart, f.err
}
func (f *fakeCartService) Clear(ctx context.Context, userID string) (*cart.Cart, error) {
	return f.cart, f.err
}

type fakeOrderRepo struct {
	orders map[string]*order.Order

	updateErr  error
	updatedTo  order.Status
	gotHandled bool
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetForUser(ctx context.Context, orderID, userID string) (*order.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID string, from, to order.Status) error {
	f.gotHandled = true
	f.updatedTo = to
	return f.updateErr
}

func (f *fakeOrderRepo) CreateTx(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	panic("unused")
}
func (f *fakeOrderRepo) MarkPaymentCompletedTx(ctx context.Context, tx pgx.Tx, orderID, transactionID string) error {
	panic("unused")
}
func (f *fakeOrderRepo) MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	panic("unused")
}
func (f *fakeOrderRepo) MarkPaymentRefundedTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	panic("unused")
}

type fakeCatalogRepo struct {
	products map[string]catalog.Product
	upserted []catalog.Product
}

func (f *fakeCatalogRepo) Get(ctx context.Context, productID string) (catalog.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalogRepo) Upsert(ctx context.Context, p catalog.Product) error {
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeCatalogRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, productID string) (catalog.Product, error) {
	panic("unused")
}
func (f *fakeCatalogRepo) DecrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error {
	panic("unused")
}

type testServer struct {
	router   http.Handler
	checkout *fakeCheckout
	payments *fakePaymentService
	carts    *fakeCartService
	orders   *fakeOrderRepo
	catalog  *fakeCatalogRepo
}

func newTestServer() *testServer {
	s := &testServer{
		checkout: &fakeCheckout{},
		payments: &fakePaymentService{},
		carts:    &fakeCartService{},
		orders:   &fakeOrderRepo{orders: make(map[string]*order.Order)},
		catalog:  &fakeCatalogRepo{products: make(map[string]catalog.Product)},
	}
	s.router = NewRouter(Handlers{
		Checkout: NewCheckoutHandler(s.checkout),
		Orders:   NewOrderHandler(s.orders),
		Payments: NewPaymentHandler(s.payments),
		Carts:    NewCartHandler(s.carts),
		Catalog:  NewCatalogHandler(s.catalog),
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func validCheckoutBody() map[string]any {
	return map[string]any{
		"cartId": "11111111-1111-1111-1111-111111111111",
		"shippingAddress": map[string]string{
			"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701",
		},
		"paymentInfo": map[string]string{"method": "credit_card"},
	}
}

func TestCreateOrder(t *testing.T) {
	userHeader := map[string]string{HeaderUserID: "user-1"}

	t.Run("created", func(t *testing.T) {
		s := newTestServer()
		s.checkout.order = &order.Order{ID: "o1", UserID: "user-1", TotalAmount: 50, Status: order.StatusPending}

		rr := s.do(t, http.MethodPost, "/api/orders", validCheckoutBody(), userHeader)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "user-1", s.checkout.gotUserID)

		var o order.Order
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &o))
		assert.Equal(t, "o1", o.ID)
	})

	t.Run("missing user header", func(t *testing.T) {
		s := newTestServer()
		rr := s.do(t, http.MethodPost, "/api/orders", validCheckoutBody(), nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		s := newTestServer()
		e := apperr.New(apperr.KindInsufficientStock, "insufficient stock for p1, available: 1")
		e.ProductID = "p1"
		e.Available = 1
		s.checkout.err = e

		rr := s.do(t, http.MethodPost, "/api/orders", validCheckoutBody(), userHeader)
		assert.Equal(t, http.StatusConflict, rr.Code)

		resp := decodeError(t, rr)
		assert.Equal(t, "insufficient_stock", resp.Code)
		assert.Equal(t, "p1", resp.ProductID)
		require.NotNil(t, resp.Available)
		assert.Equal(t, 1, *resp.Available)
		assert.False(t, resp.Retryable)
	})

	t.Run("empty cart", func(t *testing.T) {
		s := newTestServer()
		s.checkout.err = apperr.New(apperr.KindEmptyCart, "cart is empty")

		rr := s.do(t, http.MethodPost, "/api/orders", validCheckoutBody(), userHeader)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "empty_cart", decodeError(t, rr).Code)
	})

	t.Run("transaction conflict is retryable", func(t *testing.T) {
		s := newTestServer()
		s.checkout.err = apperr.New(apperr.KindTransactionConflict, "transaction aborted, retry")

		rr := s.do(t, http.MethodPost, "/api/orders", validCheckoutBody(), userHeader)
		assert.Equal(t, http.StatusConflict, rr.Code)

		resp := decodeError(t, rr)
		assert.Equal(t, "transaction_conflict", resp.Code)
		assert.True(t, resp.Retryable)
	})

	t.Run("invalid json", func(t *testing.T) {
		s := newTestServer()
		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{"))
		req.Header.Set(HeaderUserID, "user-1")
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestProcessPaymentEndpoint(t *testing.T) {
	body := map[string]any{
		"orderId":     "o1",
		"cardNumber":  "4111111111111111",
		"expiryMonth": 12,
		"expiryYear":  2030,
		"cvv":         "123",
		"amount":      50.0,
	}

	t.Run("success", func(t *testing.T) {
		s := newTestServer()
		s.payments.rec = &payment.Payment{TransactionID: "TR-abc", Status: payment.StatusCompleted, Amount: 50}

		rr := s.do(t, http.MethodPost, "/api/payments/process", body, nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var rec payment.Payment
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
		assert.Equal(t, "TR-abc", rec.TransactionID)
	})

	t.Run("declined", func(t *testing.T) {
		s := newTestServer()
		s.payments.err = apperr.New(apperr.KindPaymentDeclined, "transaction declined by payment provider")

		rr := s.do(t, http.MethodPost, "/api/payments/process", body, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "payment_declined", decodeError(t, rr).Code)
	})

	t.Run("missing orderId", func(t *testing.T) {
		s := newTestServer()
		rr := s.do(t, http.MethodPost, "/api/payments/process", map[string]any{"amount": 50.0}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("already captured", func(t *testing.T) {
		s := newTestServer()
		s.payments.err = order.ErrStateConflict

		rr := s.do(t, http.MethodPost, "/api/payments/process", body, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestRefundEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer()
		s.payments.rec = &payment.Payment{TransactionID: "RF-abc", Status: payment.StatusRefunded, RefundOf: "TR-abc"}

		rr := s.do(t, http.MethodPost, "/api/payments/refund",
			map[string]any{"transactionId": "TR-abc", "amount": 20.0}, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("amount too large", func(t *testing.T) {
		s := newTestServer()
		s.payments.err = apperr.New(apperr.KindInvalidAmount, "refund amount must be between 0 and 50.00")

		rr := s.do(t, http.MethodPost, "/api/payments/refund",
			map[string]any{"transactionId": "TR-abc", "amount": 80.0}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid_amount", decodeError(t, rr).Code)
	})
}

func TestVerifyEndpoint(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s := newTestServer()
		s.payments.rec = &payment.Payment{TransactionID: "TR-abc", Status: payment.StatusCompleted}

		rr := s.do(t, http.MethodGet, "/api/payments/verify/TR-abc", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		s := newTestServer()
		s.payments.err = apperr.New(apperr.KindNotFound, "transaction TR-ghost not found")

		rr := s.do(t, http.MethodGet, "/api/payments/verify/TR-ghost", nil, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestOrderEndpoints(t *testing.T) {
	t.Run("get order scoped to user", func(t *testing.T) {
		s := newTestServer()
		s.orders.orders["o1"] = &order.Order{ID: "o1", UserID: "user-1", Status: order.StatusPending}

		rr := s.do(t, http.MethodGet, "/api/orders/o1", nil, map[string]string{HeaderUserID: "user-1"})
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = s.do(t, http.MethodGet, "/api/orders/o1", nil, map[string]string{HeaderUserID: "user-2"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("list orders", func(t *testing.T) {
		s := newTestServer()
		s.orders.orders["o1"] = &order.Order{ID: "o1", UserID: "user-1"}
		s.orders.orders["o2"] = &order.Order{ID: "o2", UserID: "user-2"}

		rr := s.do(t, http.MethodGet, "/api/users/user-1/orders", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var orders []order.Order
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &orders))
		assert.Len(t, orders, 1)
	})

	t.Run("status transition", func(t *testing.T) {
		s := newTestServer()
		s.orders.orders["o1"] = &order.Order{ID: "o1", UserID: "user-1", Status: order.StatusPending}

		rr := s.do(t, http.MethodPatch, "/api/orders/o1/status",
			map[string]string{"status": "processing"}, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, order.StatusProcessing, s.orders.updatedTo)
	})

	t.Run("illegal transition", func(t *testing.T) {
		s := newTestServer()
		s.orders.orders["o1"] = &order.Order{ID: "o1", UserID: "user-1", Status: order.StatusDelivered}

		rr := s.do(t, http.MethodPatch, "/api/orders/o1/status",
			map[string]string{"status": "cancelled"}, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.False(t, s.orders.gotHandled, "conflicting transition must not reach storage")
	})

	t.Run("unknown status value", func(t *testing.T) {
		s := newTestServer()
		rr := s.do(t, http.MethodPatch, "/api/orders/o1/status",
			map[string]string{"status": "returned"}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("concurrent transition loses", func(t *testing.T) {
		s := newTestServer()
		s.orders.orders["o1"] = &order.Order{ID: "o1", UserID: "user-1", Status: order.StatusPending}
		s.orders.updateErr = order.ErrStateConflict

		rr := s.do(t, http.MethodPatch, "/api/orders/o1/status",
			map[string]string{"status": "processing"}, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestCartEndpoints(t *testing.T) {
	t.Run("get cart", func(t *testing.T) {
		s := newTestServer()
		s.carts.cart = &cart.Cart{ID: "c1", UserID: "user-1"}

		rr := s.do(t, http.MethodGet, "/api/carts/user-1/", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("add item validation", func(t *testing.T) {
		s := newTestServer()

		rr := s.do(t, http.MethodPost, "/api/carts/user-1/items",
			map[string]any{"productId": "", "quantity": 1}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = s.do(t, http.MethodPost, "/api/carts/user-1/items",
			map[string]any{"productId": "p1", "quantity": 0}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("add item stock error", func(t *testing.T) {
		s := newTestServer()
		e := apperr.New(apperr.KindInsufficientStock, "insufficient stock for p1, available: 2")
		e.ProductID = "p1"
		e.Available = 2
		s.carts.err = e

		rr := s.do(t, http.MethodPost, "/api/carts/user-1/items",
			map[string]any{"productId": "p1", "quantity": 5}, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("clear cart", func(t *testing.T) {
		s := newTestServer()
		s.carts.cart = &cart.Cart{ID: "c1", UserID: "user-1"}

		rr := s.do(t, http.MethodDelete, "/api/carts/user-1/", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestProductEndpoints(t *testing.T) {
	t.Run("get product", func(t *testing.T) {
		s := newTestServer()
		s.catalog.products["p1"] = catalog.Product{ID: "p1", Name: "Keyboard", Price: 25, Stock: 7}

		rr := s.do(t, http.MethodGet, "/api/products/p1", nil, nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = s.do(t, http.MethodGet, "/api/products/ghost", nil, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("adjust product", func(t *testing.T) {
		s := newTestServer()

		rr := s.do(t, http.MethodPost, "/api/products/adjust",
			map[string]any{"productId": "p1", "name": "Keyboard", "price": 25.0, "stock": 7}, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, s.catalog.upserted, 1)

		rr = s.do(t, http.MethodPost, "/api/products/adjust",
			map[string]any{"productId": "", "price": 25.0, "stock": 7}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	rr := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
