package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mamastoria/internal/authz"
	"mamastoria/internal/utils"
)

// более устойчиво к типам (int / int64 / float64 / string)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

// currentUserID пишет 401, если в контексте нет user_id.
func currentUserID(c *gin.Context) (int, bool) {
	id, ok := getIntFromCtx(c, "user_id")
	if !ok || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return 0, false
	}
	return id, true
}

// optionalUserID for routes behind OptionalAuth.
func optionalUserID(c *gin.Context) *int {
	if id, ok := getIntFromCtx(c, "user_id"); ok && id > 0 {
		return &id
	}
	return nil
}

// subjectUserID: чей ресурс смотрим. По умолчанию свой; чужой только админу.
func subjectUserID(c *gin.Context, param string) (int, bool) {
	self, ok := currentUserID(c)
	if !ok {
		return 0, false
	}
	raw := c.Query(param)
	if raw == "" {
		return self, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		detail(c, http.StatusUnprocessableEntity, param+" must be a positive integer")
		return 0, false
	}
	if id != self && c.GetString("role") != authz.RoleAdmin {
		detail(c, http.StatusForbidden, "Not allowed to access another user's data")
		return 0, false
	}
	return id, true
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

// bindJSON отвечает 422 до любой бизнес-логики.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		detail(c, http.StatusUnprocessableEntity, utils.TranslateValidationError(err))
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		detail(c, http.StatusUnprocessableEntity, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// internalError логирует как "[area][op] internal error" и отвечает 500.
func internalError(c *gin.Context, area, op string, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg("[" + area + "][" + op + "] internal error")
	detail(c, http.StatusInternalServerError, "Internal server error")
}

func paginated(c *gin.Context, page utils.Page, data any, total int64) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data, "meta": page.Meta(total)})
}
