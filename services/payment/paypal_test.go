package paymentsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/order"
)

type paypalServer struct {
	tokenCalls   int32
	lastPayment  paymentRequest
	executeState string
	failCreate   bool
}

func (s *paypalServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenEndpoint, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.tokenCalls, 1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "client" || secret != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client Authentication failed"}`))
			return
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A21AA","token_type":"Bearer","expires_in":32400}`))
	})
	mux.HandleFunc(paymentEndpoint, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A21AA", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if s.failCreate {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"name":"VALIDATION_ERROR","message":"Invalid request","debug_id":"f1"}`))
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&s.lastPayment))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"PAYID-1","state":"created","links":[` +
			`{"href":"https://api.sandbox.paypal.com/v1/payments/payment/PAYID-1","rel":"self","method":"GET"},` +
			`{"href":"https://www.sandbox.paypal.com/cgi-bin/webscr?cmd=_express-checkout&token=EC-1","rel":"approval_url","method":"REDIRECT"}]}`))
	})
	mux.HandleFunc("/v1/payments/payment/PAYID-1/execute", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PAYER-1", body["payer_id"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"PAYID-1","state":"` + s.executeState + `"}`))
	})
	return mux
}

func newTestProcessor(t *testing.T, s *paypalServer, clientID string) order.PaymentProcessor {
	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)

	conf := &core.Config{Payment: core.PaymentConfig{
		BaseURL:      srv.URL,
		ClientID:     clientID,
		ClientSecret: "secret",
		Currency:     "EUR",
		ReturnURL:    "http://localhost/return",
		CancelURL:    "http://localhost/cancel",
	}}
	return NewPayPalProcessor(conf)
}

func TestPayPalProcessor_CreatePayment(t *testing.T) {
	s := &paypalServer{executeState: approvedState}
	p := newTestProcessor(t, s, "client")
	ctx := context.Background()

	payment, err := p.CreatePayment(ctx, order.PaymentRequest{
		ReferenceID: "order-1",
		SKU:         "course-1",
		Name:        "Go in Action",
		Amount:      decimal.RequireFromString("49.99"),
		Currency:    "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "PAYID-1", payment.ID)
	assert.Contains(t, payment.ApprovalURL, "token=EC-1")

	assert.Equal(t, "sale", s.lastPayment.Intent)
	assert.Equal(t, "paypal", s.lastPayment.Payer.PaymentMethod)
	require.Len(t, s.lastPayment.Transactions, 1)
	tx := s.lastPayment.Transactions[0]
	assert.Equal(t, amount{Currency: "EUR", Total: "49.99"}, tx.Amount)
	assert.Equal(t, "order-1", tx.InvoiceNumber)
	assert.Equal(t, "course-1", tx.ItemList.Items[0].SKU)

	// the access token is cached
	_, err = p.CreatePayment(ctx, order.PaymentRequest{Amount: decimal.NewFromInt(10), Currency: "EUR"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&s.tokenCalls))
}

func TestPayPalProcessor_errors(t *testing.T) {
	ctx := context.Background()

	t.Run("bad credentials", func(t *testing.T) {
		p := newTestProcessor(t, &paypalServer{}, "intruder")
		_, err := p.CreatePayment(ctx, order.PaymentRequest{Amount: decimal.NewFromInt(1), Currency: "EUR"})
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
		assert.Contains(t, err.Error(), "Client Authentication failed")
	})

	t.Run("create rejected", func(t *testing.T) {
		p := newTestProcessor(t, &paypalServer{failCreate: true}, "client")
		_, err := p.CreatePayment(ctx, order.PaymentRequest{Amount: decimal.NewFromInt(1), Currency: "EUR"})
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
		assert.Contains(t, err.Error(), "VALIDATION_ERROR")
	})

	t.Run("execute not approved", func(t *testing.T) {
		p := newTestProcessor(t, &paypalServer{executeState: "failed"}, "client")
		err := p.ExecutePayment(ctx, "PAYID-1", "PAYER-1")
		require.Error(t, err)
		assert.True(t, core.IsUpstream(err))
	})
}

func TestPayPalProcessor_ExecutePayment(t *testing.T) {
	p := newTestProcessor(t, &paypalServer{executeState: approvedState}, "client")
	assert.NoError(t, p.ExecutePayment(context.Background(), "PAYID-1", "PAYER-1"))
}
