// README: Payment bridge tests; gateways are faked with httptest, the order
// store with an in-memory stub.
package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/config"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newMemOrders(orders ...*order.Order) *memOrders {
	m := &memOrders{orders: make(map[uuid.UUID]*order.Order)}
	for _, o := range orders {
		cp := *o
		m.orders[o.ID] = &cp
	}
	return m
}

func (m *memOrders) Get(_ context.Context, id uuid.UUID) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) MarkPaymentCompleted(_ context.Context, id uuid.UUID, transactionID string, details []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, order.ErrNotFound
	}
	if o.PaymentStatus == order.PaymentCompleted {
		return false, nil
	}
	o.PaymentStatus = order.PaymentCompleted
	o.TransactionID = &transactionID
	o.PaymentDetails = details
	return true, nil
}

type memCarts struct {
	mu     sync.Mutex
	clears []types.ID
}

func (m *memCarts) Clear(_ context.Context, customerID types.ID) error {
	m.mu.Lock()
	m.clears = append(m.clears, customerID)
	m.mu.Unlock()
	return nil
}

func (m *memCarts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clears)
}

func testOrder(method order.PaymentMethod) *order.Order {
	return &order.Order{
		ID:            uuid.New(),
		CustomerID:    "c1",
		TotalAmount:   decimal.NewFromInt(620),
		Method:        method,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentPending,
	}
}

const testSecret = "test-secret-key"

// swiftPayData builds the base64 callback blob the gateway would append to the
// success redirect, signed with the test secret.
func swiftPayData(t *testing.T, client *SwiftPayClient, orderID, totalAmount, status string) string {
	t.Helper()
	cb := swiftPayCallback{
		TransactionCode:  "TXN001",
		Status:           status,
		TotalAmount:      totalAmount,
		TransactionUUID:  orderID,
		ProductCode:      "EPAYTEST",
		SignedFieldNames: swiftPaySignedFields,
	}
	cb.Signature = client.sign(map[string]string{
		"total_amount":     cb.TotalAmount,
		"transaction_uuid": cb.TransactionUUID,
		"product_code":     cb.ProductCode,
	}, cb.SignedFieldNames)
	raw, err := json.Marshal(cb)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

// fakeSwiftPayStatus serves the transaction status endpoint and counts hits.
func fakeSwiftPayStatus(status string, hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "ref_id": "REF123"})
	}))
}

func swiftPayService(t *testing.T, orders *memOrders, carts *memCarts, statusServer *httptest.Server) (*Service, *SwiftPayClient) {
	t.Helper()
	cfg := config.SwiftPayConfig{
		BaseURL:     statusServer.URL,
		ProductCode: "EPAYTEST",
		SecretKey:   testSecret,
	}
	client := NewSwiftPayClient(cfg)
	return NewService(orders, carts, client, nil), client
}

func TestSwiftPayVerifyHappyPath(t *testing.T) {
	o := testOrder(order.MethodSwiftPay)
	orders := newMemOrders(o)
	carts := &memCarts{}

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("COMPLETE", &hits)
	defer ts.Close()
	svc, client := swiftPayService(t, orders, carts, ts)

	got, err := svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID,
		Method:  order.MethodSwiftPay,
		Data:    swiftPayData(t, client, o.ID.String(), "620.00", "COMPLETE"),
	})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentCompleted, got.PaymentStatus)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "REF123", *got.TransactionID)
	assert.Equal(t, int32(1), hits.Load(), "verify must re-check server-side")
	assert.Equal(t, 1, carts.count())
}

func TestSwiftPayVerifySignatureMismatch(t *testing.T) {
	o := testOrder(order.MethodSwiftPay)
	orders := newMemOrders(o)

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("COMPLETE", &hits)
	defer ts.Close()
	svc, client := swiftPayService(t, orders, &memCarts{}, ts)

	data := swiftPayData(t, client, o.ID.String(), "620.00", "COMPLETE")
	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	var cb swiftPayCallback
	require.NoError(t, json.Unmarshal(raw, &cb))
	cb.Signature = "forged-signature"
	tampered, err := json.Marshal(cb)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID,
		Method:  order.MethodSwiftPay,
		Data:    base64.StdEncoding.EncodeToString(tampered),
	})
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Equal(t, int32(0), hits.Load(), "forged callback must never reach the gateway")

	stored, err := orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
}

func TestSwiftPayVerifyAmountMismatch(t *testing.T) {
	o := testOrder(order.MethodSwiftPay)
	orders := newMemOrders(o)

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("COMPLETE", &hits)
	defer ts.Close()
	svc, client := swiftPayService(t, orders, &memCarts{}, ts)

	// Correctly signed, but for the wrong amount.
	_, err := svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID,
		Method:  order.MethodSwiftPay,
		Data:    swiftPayData(t, client, o.ID.String(), "999.00", "COMPLETE"),
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)

	stored, err := orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
	assert.Nil(t, stored.TransactionID)
}

func TestSwiftPayVerifyServerSideIncomplete(t *testing.T) {
	o := testOrder(order.MethodSwiftPay)
	orders := newMemOrders(o)

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("PENDING", &hits)
	defer ts.Close()
	svc, client := swiftPayService(t, orders, &memCarts{}, ts)

	// The callback claims COMPLETE but the gateway disagrees.
	_, err := svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID,
		Method:  order.MethodSwiftPay,
		Data:    swiftPayData(t, client, o.ID.String(), "620.00", "COMPLETE"),
	})
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
}

func TestVerifyIdempotent(t *testing.T) {
	o := testOrder(order.MethodSwiftPay)
	orders := newMemOrders(o)
	carts := &memCarts{}

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("COMPLETE", &hits)
	defer ts.Close()
	svc, client := swiftPayService(t, orders, carts, ts)

	req := VerifyRequest{
		OrderID: o.ID,
		Method:  order.MethodSwiftPay,
		Data:    swiftPayData(t, client, o.ID.String(), "620.00", "COMPLETE"),
	}
	first, err := svc.Verify(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, order.PaymentCompleted, first.PaymentStatus)
	assert.Equal(t, order.PaymentCompleted, second.PaymentStatus)
	assert.Equal(t, *first.TransactionID, *second.TransactionID)
	assert.Equal(t, int32(1), hits.Load(), "second verify must short-circuit before the gateway")
	assert.Equal(t, 1, carts.count(), "cart cleared exactly once")
}

func TestPayPulseVerifyHappyPath(t *testing.T) {
	o := testOrder(order.MethodPayPulse)
	orders := newMemOrders(o)
	carts := &memCarts{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/epayment/lookup/", r.URL.Path)
		require.Equal(t, "Key pp-secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pidx":           "pidx123",
			"total_amount":   62000,
			"status":         "Completed",
			"transaction_id": "PP-TXN-1",
		})
	}))
	defer ts.Close()

	client := NewPayPulseClient(config.PayPulseConfig{BaseURL: ts.URL, SecretKey: "pp-secret"})
	svc := NewService(orders, carts, nil, client)

	got, err := svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID,
		Method:  order.MethodPayPulse,
		Pidx:    "pidx123",
	})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentCompleted, got.PaymentStatus)
	require.NotNil(t, got.TransactionID)
	assert.Equal(t, "PP-TXN-1", *got.TransactionID)
	assert.Equal(t, 1, carts.count())
}

func TestPayPulseVerifyIncomplete(t *testing.T) {
	o := testOrder(order.MethodPayPulse)
	orders := newMemOrders(o)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pidx": "pidx123", "total_amount": 62000, "status": "Pending",
		})
	}))
	defer ts.Close()

	client := NewPayPulseClient(config.PayPulseConfig{BaseURL: ts.URL, SecretKey: "pp-secret"})
	svc := NewService(orders, &memCarts{}, nil, client)

	_, err := svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID, Method: order.MethodPayPulse, Pidx: "pidx123",
	})
	assert.ErrorIs(t, err, ErrPaymentIncomplete)
}

func TestPayPulseGatewayDown(t *testing.T) {
	o := testOrder(order.MethodPayPulse)
	orders := newMemOrders(o)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused from here on

	client := NewPayPulseClient(config.PayPulseConfig{BaseURL: ts.URL, SecretKey: "pp-secret"})
	svc := NewService(orders, &memCarts{}, nil, client)

	_, err := svc.Verify(context.Background(), VerifyRequest{
		OrderID: o.ID, Method: order.MethodPayPulse, Pidx: "pidx123",
	})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	stored, err := orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, stored.PaymentStatus)
}

func TestInitiateSwiftPayBuildsSignedForm(t *testing.T) {
	o := testOrder(order.MethodSwiftPay)
	orders := newMemOrders(o)

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("COMPLETE", &hits)
	defer ts.Close()
	svc, client := swiftPayService(t, orders, &memCarts{}, ts)

	res, err := svc.Initiate(context.Background(), o.ID, order.MethodSwiftPay)
	require.NoError(t, err)
	assert.Equal(t, order.MethodSwiftPay, res.Method)
	assert.Equal(t, ts.URL+"/api/epay/main/v2/form", res.RedirectURL)
	assert.Equal(t, "620.00", res.FormFields["total_amount"])
	assert.Equal(t, o.ID.String(), res.FormFields["transaction_uuid"])

	wantSig := client.sign(res.FormFields, swiftPaySignedFields)
	assert.Equal(t, wantSig, res.FormFields["signature"])
}

func TestInitiateRejectsUnsupportedAndPaid(t *testing.T) {
	paid := testOrder(order.MethodSwiftPay)
	paid.PaymentStatus = order.PaymentCompleted
	cod := testOrder(order.MethodCOD)
	orders := newMemOrders(paid, cod)

	var hits atomic.Int32
	ts := fakeSwiftPayStatus("COMPLETE", &hits)
	defer ts.Close()
	svc, _ := swiftPayService(t, orders, &memCarts{}, ts)

	_, err := svc.Initiate(context.Background(), paid.ID, order.MethodSwiftPay)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = svc.Initiate(context.Background(), cod.ID, order.MethodCOD)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}
