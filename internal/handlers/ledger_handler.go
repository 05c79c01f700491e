package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/authz"
	"mamastoria/internal/models"
	"mamastoria/internal/services"
)

// LedgerHandler: комиссии и вывод средств.
type LedgerHandler struct {
	service services.LedgerService
}

func NewLedgerHandler(service services.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// @Summary      Комиссии пользователя
// @Tags         Ledger
// @Security     BearerAuth
// @Param        id_user  query  int  false  "по умолчанию текущий пользователь"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Router       /commissions [get]
func (h *LedgerHandler) Commissions(c *gin.Context) {
	userID, ok := subjectUserID(c, "id_user")
	if !ok {
		return
	}
	items, total, err := h.service.Commissions(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "commissions", "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": items, "total_commission": total})
}

// @Summary      Начислить комиссию (админ)
// @Tags         Ledger
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.CreateCommissionRequest  true  "commission"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /commissions [post]
func (h *LedgerHandler) AddCommission(c *gin.Context) {
	var req models.CreateCommissionRequest
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.service.AddCommission(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case err != nil:
		internalError(c, "commissions", "create", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Commission added successfully", "data": cm})
}

// @Summary      Заявки на вывод
// @Tags         Ledger
// @Security     BearerAuth
// @Param        id_user  query  int  false  "по умолчанию текущий пользователь"
// @Success      200  {object}  map[string]interface{}
// @Router       /withdrawals [get]
func (h *LedgerHandler) Withdrawals(c *gin.Context) {
	userID, ok := subjectUserID(c, "id_user")
	if !ok {
		return
	}
	items, total, err := h.service.Withdrawals(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "withdrawals", "list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": items, "total_withdrawal": total})
}

// @Summary      Создать заявку на вывод
// @Tags         Ledger
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.CreateWithdrawalRequest  true  "withdrawal"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /withdrawals [post]
func (h *LedgerHandler) RequestWithdrawal(c *gin.Context) {
	self, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateWithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}
	admin := c.GetString("role") == authz.RoleAdmin
	if req.UserID != self && !admin {
		detail(c, http.StatusForbidden, "Not allowed to access another user's data")
		return
	}
	// статус выставляет только админ
	if !admin {
		req.Status = models.WithdrawalPending
	}
	w, err := h.service.RequestWithdrawal(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, services.ErrInsufficientBalance):
		detail(c, http.StatusBadRequest, "Insufficient balance")
		return
	case err != nil:
		internalError(c, "withdrawals", "create", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Withdrawal added successfully", "data": w})
}
