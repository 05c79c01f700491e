package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamastoria/internal/authz"
	"mamastoria/internal/models"
	"mamastoria/internal/services"
)

type fakeLedger struct {
	listedFor []int
	withdrawn []models.CreateWithdrawalRequest
	addErr    error
	wdErr     error
}

func (f *fakeLedger) Commissions(_ context.Context, userID int) ([]*models.Commission, int64, error) {
	f.listedFor = append(f.listedFor, userID)
	return []*models.Commission{{ID: 1, UserID: userID}}, 25, nil
}

func (f *fakeLedger) AddCommission(_ context.Context, req models.CreateCommissionRequest) (*models.Commission, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &models.Commission{ID: 2, UserID: req.UserID, Kredit: req.Kredit}, nil
}

func (f *fakeLedger) Withdrawals(_ context.Context, userID int) ([]*models.Withdrawal, int64, error) {
	f.listedFor = append(f.listedFor, userID)
	return []*models.Withdrawal{}, 0, nil
}

func (f *fakeLedger) RequestWithdrawal(_ context.Context, req models.CreateWithdrawalRequest) (*models.Withdrawal, error) {
	f.withdrawn = append(f.withdrawn, req)
	if f.wdErr != nil {
		return nil, f.wdErr
	}
	return &models.Withdrawal{ID: 1, UserID: req.UserID, Amount: req.Amount, Status: req.Status}, nil
}

// withRole имитирует AuthMiddleware с заданной ролью.
func withRole(id int, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", id)
		c.Set("role", role)
		c.Next()
	}
}

func ledgerRouter(f *fakeLedger, auth gin.HandlerFunc) *gin.Engine {
	h := NewLedgerHandler(f)
	r := gin.New()
	r.Use(auth)
	r.GET("/commissions", h.Commissions)
	r.POST("/commissions", h.AddCommission)
	r.GET("/withdrawals", h.Withdrawals)
	r.POST("/withdrawals", h.RequestWithdrawal)
	return r
}

func TestCommissionsScopedToSelf(t *testing.T) {
	f := &fakeLedger{}
	r := ledgerRouter(f, withUser(4))

	w := doJSON(t, r, http.MethodGet, "/commissions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(25), decode(t, w)["total_commission"])

	w = doJSON(t, r, http.MethodGet, "/commissions?id_user=4", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/commissions?id_user=5", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/withdrawals?id_user=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	admin := ledgerRouter(f, withRole(1, authz.RoleAdmin))
	w = doJSON(t, admin, http.MethodGet, "/withdrawals?id_user=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{4, 4, 5}, f.listedFor)
}

func TestAddCommission(t *testing.T) {
	f := &fakeLedger{}
	r := ledgerRouter(f, withRole(1, authz.RoleAdmin))

	w := doJSON(t, r, http.MethodPost, "/commissions", map[string]any{"kredit": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, "/commissions", map[string]any{"id_user": 4, "kredit": 5, "keterangan": "bonus"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Commission added successfully", decode(t, w)["message"])

	f.addErr = services.ErrUserNotFound
	w = doJSON(t, r, http.MethodPost, "/commissions", map[string]any{"id_user": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestWithdrawal(t *testing.T) {
	f := &fakeLedger{}
	r := ledgerRouter(f, withUser(4))

	w := doJSON(t, r, http.MethodPost, "/withdrawals", map[string]any{"id_user": 4, "amount": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, "/withdrawals", map[string]any{"id_user": 5, "amount": 10})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.withdrawn)

	// клиент не может сам одобрить заявку
	w = doJSON(t, r, http.MethodPost, "/withdrawals", map[string]any{"id_user": 4, "amount": 10, "status": "approved"})
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.withdrawn, 1)
	assert.Equal(t, models.WithdrawalPending, f.withdrawn[0].Status)

	f.wdErr = services.ErrInsufficientBalance
	w = doJSON(t, r, http.MethodPost, "/withdrawals", map[string]any{"id_user": 4, "amount": 1000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient balance", decode(t, w)["detail"])
}
