package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mamastoria/internal/models"
	"mamastoria/internal/pdf"
	"mamastoria/internal/repositories"
	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

type SubscriptionHandler struct {
	service  services.SubscriptionService
	doku     *services.DokuClient
	receipts pdf.Generator
	// в production колбэк без валидной подписи отклоняется
	requireSignature bool
}

func NewSubscriptionHandler(service services.SubscriptionService, doku *services.DokuClient, receipts pdf.Generator, requireSignature bool) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, doku: doku, receipts: receipts, requireSignature: requireSignature}
}

// @Summary      Пакеты подписки
// @Tags         Subscriptions
// @Success      200  {object}  map[string]interface{}
// @Router       /subscriptions/packages [get]
func (h *SubscriptionHandler) Packages(c *gin.Context) {
	items, err := h.service.Packages(c.Request.Context())
	if err != nil {
		internalError(c, "subscriptions", "packages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": items})
}

// @Summary      Создать пакет (admin)
// @Tags         Subscriptions
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.CreatePackageRequest  true  "package"
// @Success      201   {object}  map[string]interface{}
// @Router       /subscriptions/packages [post]
func (h *SubscriptionHandler) CreatePackage(c *gin.Context) {
	var req models.CreatePackageRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg, err := h.service.CreatePackage(c.Request.Context(), req)
	if errors.Is(err, services.ErrPackageExists) {
		detail(c, http.StatusBadRequest, "Package with this name already exists")
		return
	}
	if err != nil {
		internalError(c, "subscriptions", "create-package", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": "Package created successfully", "data": pkg})
}

// @Summary      Способы оплаты
// @Tags         Subscriptions
// @Success      200  {object}  map[string]interface{}
// @Router       /payment-methods [get]
func (h *SubscriptionHandler) PaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": services.PaymentMethods})
}

// @Summary      Купить подписку
// @Tags         Subscriptions
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.PurchaseRequest  true  "packageId | packageSlug"
// @Success      201   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /subscriptions/purchase [post]
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.PackageID <= 0 && req.PackageSlug == "" {
		detail(c, http.StatusUnprocessableEntity, "packageId or packageSlug is required")
		return
	}
	p, err := h.service.Purchase(c.Request.Context(), userID, req)
	if errors.Is(err, services.ErrPackageNotFound) {
		detail(c, http.StatusNotFound, "Subscription package not found")
		return
	}
	if err != nil {
		internalError(c, "subscriptions", "purchase", err)
		return
	}
	var paymentURL string
	if p.PaymentURL != nil {
		paymentURL = *p.PaymentURL
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":      true,
		"message": "Transaction created successfully. Please proceed to payment.",
		"data": gin.H{
			"invoice_number": p.InvoiceNumber,
			"amount":         p.Amount,
			"payment_url":    paymentURL,
			"package_name":   p.PackageName,
		},
	})
}

// @Summary      Колбэк платёжного шлюза
// @Tags         Subscriptions
// @Accept       json
// @Param        body  body  models.PaymentCallback  true  "DOKU notification"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /subscriptions/payment-callback [post]
func (h *SubscriptionHandler) PaymentCallback(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		detail(c, http.StatusBadRequest, "cannot read body")
		return
	}
	if !h.signatureOK(c, body) {
		log.Warn().Str("request_id", c.GetHeader("Request-Id")).Msg("[subscriptions][callback] bad signature")
		detail(c, http.StatusUnauthorized, "Invalid signature")
		return
	}
	var cb models.PaymentCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		detail(c, http.StatusUnprocessableEntity, utils.TranslateValidationError(err))
		return
	}

	outcome, err := h.service.HandleCallback(c.Request.Context(), cb)
	switch {
	case errors.Is(err, services.ErrMissingInvoice):
		detail(c, http.StatusBadRequest, "Order ID / Invoice number not found")
		return
	case errors.Is(err, services.ErrPaymentNotFound):
		detail(c, http.StatusNotFound, "Transaction not found")
		return
	case err != nil:
		internalError(c, "subscriptions", "callback", err)
		return
	}
	if outcome == repositories.CallbackActivated {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Payment processed successfully"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Callback received"})
}

func (h *SubscriptionHandler) signatureOK(c *gin.Context, body []byte) bool {
	sig := c.GetHeader("Signature")
	if sig == "" {
		return !h.requireSignature
	}
	if h.doku == nil {
		return false
	}
	return h.doku.VerifySignature(sig, c.GetHeader("Request-Id"), c.GetHeader("Request-Timestamp"), c.Request.URL.Path, body)
}

var mockPaymentPage = template.Must(template.New("mock-payment").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Mock Payment Gateway</title>
  <style>
    body { font-family: sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; background-color: #f5f5f5; }
    .card { background: white; padding: 2rem; border-radius: 8px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); max-width: 400px; width: 100%; text-align: center; }
    .amount { font-size: 2rem; font-weight: bold; color: #2ecc71; margin: 1rem 0; }
    .details { text-align: left; margin-bottom: 2rem; color: #666; }
    .btn { display: block; width: 100%; padding: 10px; margin: 10px 0; border: none; border-radius: 4px; cursor: pointer; font-size: 1rem; color: white; }
    .ok { background-color: #2ecc71; }
    .fail { background-color: #e74c3c; }
  </style>
</head>
<body>
  <div class="card">
    <h1>MamaStoria Mock Payment</h1>
    <p>Order ID: {{.Invoice}}</p>
    <div class="amount">{{.Amount}}</div>
    <div class="details">
      <p>Status: {{.Status}}</p>
      <p>Date: {{.CreatedAt}}</p>
    </div>
    <button class="btn ok" onclick="completePayment('SUCCESS')">Simulate Success</button>
    <button class="btn fail" onclick="completePayment('FAILED')">Simulate Failure</button>
  </div>
  <script>
    async function completePayment(status) {
      const payload = { order: { invoice_number: {{.Invoice}} }, transaction: { status: status } };
      try {
        await fetch('/api/v1/subscriptions/payment-callback', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify(payload)
        });
        alert(status === 'SUCCESS' ? 'Payment Successful! You can close this tab.' : 'Payment Failed.');
        window.close();
      } catch (error) {
        alert('Error processing callback: ' + error);
      }
    }
  </script>
</body>
</html>`))

// @Summary      Тестовая страница оплаты
// @Tags         Subscriptions
// @Produce      html
// @Param        invoice  path  string  true  "invoice number"
// @Success      200  {string}  string
// @Router       /mock-payment/{invoice} [get]
func (h *SubscriptionHandler) MockPaymentPage(c *gin.Context) {
	p, err := h.service.PaymentByInvoice(c.Request.Context(), c.Param("invoice"))
	if errors.Is(err, services.ErrPaymentNotFound) {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte("<h1>Transaction not found</h1>"))
		return
	}
	if err != nil {
		internalError(c, "subscriptions", "mock-payment", err)
		return
	}
	var buf bytes.Buffer
	err = mockPaymentPage.Execute(&buf, map[string]any{
		"Invoice":   p.InvoiceNumber,
		"Amount":    pdf.FormatRupiah(p.Amount),
		"Status":    p.Status,
		"CreatedAt": p.CreatedAt.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		internalError(c, "subscriptions", "mock-payment", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// @Summary      Моя подписка
// @Tags         Subscriptions
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /me/subscription [get]
func (h *SubscriptionHandler) MySubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	st, err := h.service.Status(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "subscriptions", "status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": st})
}

// @Summary      История платежей
// @Tags         Subscriptions
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /subscriptions/payment-history [get]
func (h *SubscriptionHandler) PaymentHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	items, total, err := h.service.History(c.Request.Context(), userID, page.Limit(), page.Offset())
	if err != nil {
		internalError(c, "subscriptions", "history", err)
		return
	}
	paginated(c, page, items, total)
}

// @Summary      Квитанция (PDF)
// @Tags         Subscriptions
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        invoice  path  string  true  "invoice number"
// @Success      200  {file}  file
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /subscriptions/payment-history/{invoice}/receipt [get]
func (h *SubscriptionHandler) Receipt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	p, u, err := h.service.Receipt(c.Request.Context(), userID, c.Param("invoice"))
	switch {
	case errors.Is(err, services.ErrPaymentNotFound):
		detail(c, http.StatusNotFound, "Transaction not found")
		return
	case errors.Is(err, services.ErrReceiptUnavailable):
		detail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		internalError(c, "subscriptions", "receipt", err)
		return
	}
	data := pdf.ReceiptData{
		InvoiceNumber: p.InvoiceNumber,
		PackageName:   p.PackageName,
		Amount:        p.Amount,
		Status:        p.Status,
		CustomerName:  u.FullName,
		CustomerEmail: u.Email,
		PaidAt:        p.CreatedAt,
	}
	if p.PaymentMethod != nil {
		data.PaymentMethod = *p.PaymentMethod
	}
	out, err := h.receipts.GenerateReceipt(data)
	if err != nil {
		internalError(c, "subscriptions", "receipt", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipt_`+p.InvoiceNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}

// @Summary      Есть ли транзакция заданного типа
// @Tags         Subscriptions
// @Param        user_id           query  int     true   "user id"
// @Param        type_transaction  query  string  false  "default topup"
// @Success      200  {object}  map[string]interface{}
// @Router       /transactions/check-status [get]
func (h *SubscriptionHandler) CheckTransactionStatus(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil || userID <= 0 {
		detail(c, http.StatusUnprocessableEntity, "user_id must be a positive integer")
		return
	}
	exists, err := h.service.HasTransaction(c.Request.Context(), userID, c.Query("type_transaction"))
	if err != nil {
		internalError(c, "transactions", "check-status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": exists})
}
