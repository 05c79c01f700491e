package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mamastoria/internal/models"
	"mamastoria/internal/pdf"
	"mamastoria/internal/repositories"
	"mamastoria/internal/services"
)

type fakeSubscriptions struct {
	payment     *models.PaymentTransaction
	user        *models.User
	paymentErr  error
	purchaseErr error
	callbackErr error
	outcome     repositories.CallbackOutcome
	callbacks   []models.PaymentCallback
	hasTx       bool
}

func (f *fakeSubscriptions) Packages(context.Context) ([]*models.SubscriptionPackage, error) {
	return []*models.SubscriptionPackage{}, nil
}

func (f *fakeSubscriptions) CreatePackage(context.Context, models.CreatePackageRequest) (*models.SubscriptionPackage, error) {
	return nil, services.ErrPackageExists
}

func (f *fakeSubscriptions) Purchase(_ context.Context, _ int, _ models.PurchaseRequest) (*models.PaymentTransaction, error) {
	if f.purchaseErr != nil {
		return nil, f.purchaseErr
	}
	return f.payment, nil
}

func (f *fakeSubscriptions) PaymentByInvoice(context.Context, string) (*models.PaymentTransaction, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.payment, nil
}

func (f *fakeSubscriptions) HandleCallback(_ context.Context, cb models.PaymentCallback) (repositories.CallbackOutcome, error) {
	f.callbacks = append(f.callbacks, cb)
	return f.outcome, f.callbackErr
}

func (f *fakeSubscriptions) Status(context.Context, int) (*models.SubscriptionStatus, error) {
	return &models.SubscriptionStatus{}, nil
}

func (f *fakeSubscriptions) History(context.Context, int, int, int) ([]*models.PaymentTransaction, int64, error) {
	return []*models.PaymentTransaction{f.payment}, 1, nil
}

func (f *fakeSubscriptions) Receipt(context.Context, int, string) (*models.PaymentTransaction, *models.User, error) {
	if f.paymentErr != nil {
		return nil, nil, f.paymentErr
	}
	return f.payment, f.user, nil
}

func (f *fakeSubscriptions) HasTransaction(context.Context, int, string) (bool, error) {
	return f.hasTx, nil
}

type stubReceipts struct{ got pdf.ReceiptData }

func (s *stubReceipts) GenerateReceipt(d pdf.ReceiptData) ([]byte, error) {
	s.got = d
	return []byte("%PDF-1.3 stub"), nil
}

func subscriptionRouter(f *fakeSubscriptions, doku *services.DokuClient, requireSig bool, receipts pdf.Generator) *gin.Engine {
	h := NewSubscriptionHandler(f, doku, receipts, requireSig)
	r := gin.New()
	r.Use(withUser(7))
	r.POST("/subscriptions/purchase", h.Purchase)
	r.POST("/subscriptions/packages", h.CreatePackage)
	r.POST("/subscriptions/payment-callback", h.PaymentCallback)
	r.GET("/subscriptions/payment-history", h.PaymentHistory)
	r.GET("/subscriptions/payment-history/:invoice/receipt", h.Receipt)
	r.GET("/mock-payment/:invoice", h.MockPaymentPage)
	r.GET("/transactions/check-status", h.CheckTransactionStatus)
	return r
}

func samplePayment() *models.PaymentTransaction {
	url := "http://localhost:8080/api/v1/mock-payment/INV-1"
	method := "QRIS"
	return &models.PaymentTransaction{
		ID: 1, UserID: 7, PackageID: 2, InvoiceNumber: "INV-1", Amount: 50000,
		Status: "pending", PaymentURL: &url, PaymentMethod: &method, PackageName: "Gold",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPurchase(t *testing.T) {
	f := &fakeSubscriptions{payment: samplePayment()}
	r := subscriptionRouter(f, nil, false, &stubReceipts{})

	w := doJSON(t, r, http.MethodPost, "/subscriptions/purchase", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, "/subscriptions/purchase", map[string]any{"packageSlug": "gold"})
	assert.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "INV-1", data["invoice_number"])
	assert.Equal(t, "Gold", data["package_name"])
	assert.EqualValues(t, 50000, data["amount"])

	f.purchaseErr = services.ErrPackageNotFound
	w = doJSON(t, r, http.MethodPost, "/subscriptions/purchase", map[string]any{"packageId": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Subscription package not found", decode(t, w)["detail"])
}

func TestCreatePackageDuplicate(t *testing.T) {
	r := subscriptionRouter(&fakeSubscriptions{}, nil, false, &stubReceipts{})
	w := doJSON(t, r, http.MethodPost, "/subscriptions/packages",
		map[string]any{"name": "Gold", "price": 50000, "duration_days": 30})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Package with this name already exists", decode(t, w)["detail"])
}

func TestPaymentCallbackOutcomes(t *testing.T) {
	body := `{"order":{"invoice_number":"INV-1"},"transaction":{"status":"SUCCESS"}}`

	cases := []struct {
		name    string
		outcome repositories.CallbackOutcome
		err     error
		status  int
		key     string
		want    string
	}{
		{"activated", repositories.CallbackActivated, nil, http.StatusOK, "message", "Payment processed successfully"},
		{"ignored", repositories.CallbackIgnored, nil, http.StatusOK, "message", "Callback received"},
		{"no invoice", repositories.CallbackIgnored, services.ErrMissingInvoice, http.StatusBadRequest, "detail", "Order ID / Invoice number not found"},
		{"unknown invoice", repositories.CallbackIgnored, services.ErrPaymentNotFound, http.StatusNotFound, "detail", "Transaction not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeSubscriptions{outcome: tc.outcome, callbackErr: tc.err}
			r := subscriptionRouter(f, nil, false, &stubReceipts{})
			w := doJSON(t, r, http.MethodPost, "/subscriptions/payment-callback", body)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.want, decode(t, w)[tc.key])
		})
	}
}

func TestPaymentCallbackSignature(t *testing.T) {
	doku := services.NewDokuClient("MCH-1", "sk-test", true, "http://localhost:8080/")
	body := []byte(`{"order":{"invoice_number":"INV-1"},"transaction":{"status":"SUCCESS"}}`)
	const path = "/subscriptions/payment-callback"

	send := func(r *gin.Engine, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Request-Id", "req-1")
		req.Header.Set("Request-Timestamp", "2026-01-02T03:04:05Z")
		if sig != "" {
			req.Header.Set("Signature", sig)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	f := &fakeSubscriptions{outcome: repositories.CallbackActivated}
	r := subscriptionRouter(f, doku, true, &stubReceipts{})

	assert.Equal(t, http.StatusUnauthorized, send(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(r, "HMACSHA256=forged").Code)
	assert.Empty(t, f.callbacks)

	good := doku.Signature("req-1", "2026-01-02T03:04:05Z", path, doku.Digest(body))
	w := send(r, good)
	assert.Equal(t, http.StatusOK, w.Code)
	if assert.Len(t, f.callbacks, 1) {
		assert.Equal(t, "INV-1", f.callbacks[0].Order.InvoiceNumber)
		assert.Equal(t, "SUCCESS", f.callbacks[0].Transaction.Status)
	}
}

func TestMockPaymentPage(t *testing.T) {
	f := &fakeSubscriptions{payment: samplePayment()}
	r := subscriptionRouter(f, nil, false, &stubReceipts{})

	w := doJSON(t, r, http.MethodGet, "/mock-payment/INV-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Order ID: INV-1")
	assert.Contains(t, w.Body.String(), "Rp 50.000")

	f.paymentErr = services.ErrPaymentNotFound
	w = doJSON(t, r, http.MethodGet, "/mock-payment/INV-404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "<h1>Transaction not found</h1>", w.Body.String())
}

func TestReceipt(t *testing.T) {
	p := samplePayment()
	p.Status = "success"
	f := &fakeSubscriptions{payment: p, user: &models.User{ID: 7, FullName: "Ani", Email: "ani@b.co"}}
	rec := &stubReceipts{}
	r := subscriptionRouter(f, nil, false, rec)

	w := doJSON(t, r, http.MethodGet, "/subscriptions/payment-history/INV-1/receipt", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), "receipt_INV-1.pdf"))
	assert.Equal(t, "QRIS", rec.got.PaymentMethod)
	assert.Equal(t, "ani@b.co", rec.got.CustomerEmail)

	f.paymentErr = services.ErrReceiptUnavailable
	w = doJSON(t, r, http.MethodGet, "/subscriptions/payment-history/INV-1/receipt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.paymentErr = errors.New("boom")
	w = doJSON(t, r, http.MethodGet, "/subscriptions/payment-history/INV-1/receipt", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCheckTransactionStatus(t *testing.T) {
	f := &fakeSubscriptions{hasTx: true}
	r := subscriptionRouter(f, nil, false, &stubReceipts{})

	w := doJSON(t, r, http.MethodGet, "/transactions/check-status?user_id=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodGet, "/transactions/check-status?user_id=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"data":true}`, w.Body.String())
}
