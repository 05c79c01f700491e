package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	dokuCheckoutTarget   = "/checkout/v1/payment"
	dokuProductionPayURL = "https://payment.mamastoria.com/checkout/"
)

// DokuClient builds checkout URLs and request signatures for the DOKU gateway.
type DokuClient struct {
	ClientID      string
	SecretKey     string
	IsProduction  bool
	PublicBaseURL string
	now           Clock
}

func NewDokuClient(clientID, secretKey string, isProduction bool, publicBaseURL string) *DokuClient {
	return &DokuClient{
		ClientID:      clientID,
		SecretKey:     secretKey,
		IsProduction:  isProduction,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Digest = base64(sha256(body)).
func (d *DokuClient) Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (d *DokuClient) Signature(requestID, timestamp, target, digest string) string {
	raw := fmt.Sprintf("Client-Id:%s\nRequest-Id:%s\nRequest-Timestamp:%s\nRequest-Target:%s\nDigest:%s",
		d.ClientID, requestID, timestamp, target, digest)
	mac := hmac.New(sha256.New, []byte(d.SecretKey))
	mac.Write([]byte(raw))
	return "HMACSHA256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CheckoutHeaders returns the signed headers for a checkout request body.
func (d *DokuClient) CheckoutHeaders(body []byte) map[string]string {
	requestID := uuid.NewString()
	ts := d.now().UTC().Format("2006-01-02T15:04:05Z")
	return map[string]string{
		"Content-Type":      "application/json",
		"Client-Id":         d.ClientID,
		"Request-Id":        requestID,
		"Request-Timestamp": ts,
		"Signature":         d.Signature(requestID, ts, dokuCheckoutTarget, d.Digest(body)),
	}
}

// VerifySignature checks a notification signed for target.
func (d *DokuClient) VerifySignature(signature, requestID, timestamp, target string, body []byte) bool {
	want := d.Signature(requestID, timestamp, target, d.Digest(body))
	return hmac.Equal([]byte(want), []byte(signature))
}

// PaymentURL: в sandbox ведёт на mock-страницу этого же API.
func (d *DokuClient) PaymentURL(invoice string) string {
	if d.IsProduction {
		return dokuProductionPayURL + invoice
	}
	return d.PublicBaseURL + "/api/v1/mock-payment/" + invoice
}

// NewInvoiceNumber формат INV-XXXXXXXX-<unix>.
func NewInvoiceNumber(now time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("INV-%s-%d", strings.ToUpper(hex[:8]), now.Unix())
}
