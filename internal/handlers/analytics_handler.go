package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

// AnalyticsHandler: статистика автора (просмотры, лайки, доход).
type AnalyticsHandler struct {
	service services.AnalyticsService
}

func NewAnalyticsHandler(service services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// rangeQuery: отсутствует -> def; вне [1, max] -> 422.
func rangeQuery(c *gin.Context, name string, def, max int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		detail(c, http.StatusUnprocessableEntity, fmt.Sprintf("%s must be between 1 and %d", name, max))
		return 0, false
	}
	return n, true
}

// @Summary      Сводка
// @Tags         Analytics
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.service.Dashboard(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "analytics", "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": stats})
}

// @Summary      По дням
// @Tags         Analytics
// @Security     BearerAuth
// @Param        days  query  int  false  "1..90, default 7"
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]string
// @Router       /analytics/daily [get]
func (h *AnalyticsHandler) Daily(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, ok := rangeQuery(c, "days", services.DailyDefaultDays, services.DailyMaxDays)
	if !ok {
		return
	}
	rows, err := h.service.Daily(c.Request.Context(), userID, days)
	if err != nil {
		internalError(c, "analytics", "daily", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": rows})
}

// @Summary      По месяцам
// @Tags         Analytics
// @Security     BearerAuth
// @Param        months  query  int  false  "1..24, default 6"
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  map[string]string
// @Router       /analytics/monthly [get]
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	months, ok := rangeQuery(c, "months", services.MonthlyDefaultMonths, services.MonthlyMaxMonths)
	if !ok {
		return
	}
	rows, err := h.service.Monthly(c.Request.Context(), userID, months)
	if err != nil {
		internalError(c, "analytics", "monthly", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": rows})
}

// @Summary      За текущий год
// @Tags         Analytics
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /analytics/yearly [get]
func (h *AnalyticsHandler) Yearly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.service.Yearly(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "analytics", "yearly", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": stats})
}

// @Summary      История транзакций
// @Tags         Analytics
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /analytics/history [get]
func (h *AnalyticsHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	items, total, err := h.service.History(c.Request.Context(), userID, page.Limit(), page.Offset())
	if err != nil {
		internalError(c, "analytics", "history", err)
		return
	}
	paginated(c, page, items, total)
}
