package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/models"
	"mamastoria/internal/realtime"
	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

type NotificationHandler struct {
	service services.NotificationService
	hub     *realtime.NotificationHub
}

func NewNotificationHandler(service services.NotificationService, hub *realtime.NotificationHub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

// @Summary      Поток уведомлений (websocket)
// @Tags         Notifications
// @Security     BearerAuth
// @Success      101
// @Router       /notifications/ws [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.hub == nil {
		detail(c, http.StatusServiceUnavailable, "Realtime notifications are disabled")
		return
	}
	conn, err := h.hub.Upgrade(c.Writer, c.Request)
	if err != nil {
		return
	}
	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)
	conn.Serve()
}

// @Summary      Создать уведомление
// @Tags         Notifications
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.CreateNotificationRequest  true  "notification"
// @Success      200   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req models.CreateNotificationRequest
	if !bindJSON(c, &req) {
		return
	}
	n, err := h.service.Create(c.Request.Context(), req)
	if errors.Is(err, services.ErrUserNotFound) {
		detail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, "notifications", "create", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Notification created successfully", "data": n})
}

// @Summary      Мои уведомления
// @Tags         Notifications
// @Security     BearerAuth
// @Param        unread_only  query  bool  false  "only unread"
// @Param        page         query  int   false  "page"
// @Param        per_page     query  int   false  "per page"
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread_only", "false"))
	page := utils.PageFromQuery(c)
	items, total, err := h.service.List(c.Request.Context(), userID, unreadOnly, page.Limit(), page.Offset())
	if err != nil {
		internalError(c, "notifications", "list", err)
		return
	}
	paginated(c, page, items, total)
}

// @Summary      Количество непрочитанных
// @Tags         Notifications
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "notifications", "unread-count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"unread_count": n}})
}

// parseIDList принимает ?notification_ids=1&notification_ids=2 и "1,2".
func parseIDList(values []string) ([]int, error) {
	var ids []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid notification id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// @Summary      Отметить прочитанными
// @Tags         Notifications
// @Security     BearerAuth
// @Param        notification_ids  query  []int  true  "ids"  collectionFormat(multi)
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/mark-as-read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ids, err := parseIDList(c.QueryArray("notification_ids"))
	if err != nil || len(ids) == 0 {
		detail(c, http.StatusUnprocessableEntity, "notification_ids is required")
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), userID, ids)
	if err != nil {
		internalError(c, "notifications", "mark-read", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "No unread notifications found to mark as read"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": fmt.Sprintf("%d notification(s) marked as read", n)})
}

// @Summary      Отметить одно прочитанным
// @Tags         Notifications
// @Security     BearerAuth
// @Param        id   path  int  true  "notification id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id}/mark-as-read [post]
func (h *NotificationHandler) MarkOneRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.service.MarkOneRead(c.Request.Context(), userID, id)
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		detail(c, http.StatusNotFound, "Notification not found")
		return
	case errors.Is(err, services.ErrAlreadyRead):
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Notification already marked as read"})
		return
	case err != nil:
		internalError(c, "notifications", "mark-one", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Notification marked as read"})
}

// @Summary      Отметить все прочитанными
// @Tags         Notifications
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/mark-all-as-read [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		internalError(c, "notifications", "mark-all", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "No unread notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": fmt.Sprintf("All %d notification(s) marked as read", n)})
}

// @Summary      Удалить уведомление
// @Tags         Notifications
// @Security     BearerAuth
// @Param        id   path  int  true  "notification id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.service.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, services.ErrNotificationNotFound) {
		detail(c, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		internalError(c, "notifications", "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Notification deleted successfully"})
}
