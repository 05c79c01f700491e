package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDokuSignature(t *testing.T) {
	d := NewDokuClient("MCH-1", "sk-test", false, "http://localhost:8080/")
	body := []byte(`{"order":{"invoice_number":"INV-1"}}`)

	sum := sha256.Sum256(body)
	digest := base64.StdEncoding.EncodeToString(sum[:])
	assert.Equal(t, digest, d.Digest(body))

	raw := "Client-Id:MCH-1\nRequest-Id:req-1\nRequest-Timestamp:2026-01-02T03:04:05Z\nRequest-Target:/checkout/v1/payment\nDigest:" + digest
	mac := hmac.New(sha256.New, []byte("sk-test"))
	mac.Write([]byte(raw))
	want := "HMACSHA256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	got := d.Signature("req-1", "2026-01-02T03:04:05Z", "/checkout/v1/payment", digest)
	assert.Equal(t, want, got)
	assert.True(t, d.VerifySignature(got, "req-1", "2026-01-02T03:04:05Z", "/checkout/v1/payment", body))
	assert.False(t, d.VerifySignature(got, "req-2", "2026-01-02T03:04:05Z", "/checkout/v1/payment", body))
}

func TestDokuCheckoutHeaders(t *testing.T) {
	d := NewDokuClient("MCH-1", "sk-test", false, "")
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	body := []byte(`{}`)

	h := d.CheckoutHeaders(body)
	assert.Equal(t, "MCH-1", h["Client-Id"])
	assert.Equal(t, "2026-01-02T03:04:05Z", h["Request-Timestamp"])
	require.NotEmpty(t, h["Request-Id"])
	assert.True(t, d.VerifySignature(h["Signature"], h["Request-Id"], h["Request-Timestamp"], dokuCheckoutTarget, body))
}

func TestDokuPaymentURL(t *testing.T) {
	sandbox := NewDokuClient("id", "key", false, "https://api.example.com/")
	assert.Equal(t, "https://api.example.com/api/v1/mock-payment/INV-1", sandbox.PaymentURL("INV-1"))

	prod := NewDokuClient("id", "key", true, "https://api.example.com")
	assert.Equal(t, "https://payment.mamastoria.com/checkout/INV-1", prod.PaymentURL("INV-1"))
}

func TestNewInvoiceNumber(t *testing.T) {
	now := time.Unix(1767225600, 0)
	inv := NewInvoiceNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^INV-[0-9A-F]{8}-1767225600$`), inv)
	assert.NotEqual(t, inv, NewInvoiceNumber(now))
	assert.Equal(t, strings.ToUpper(inv), inv)
}
