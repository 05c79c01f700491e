package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
)

type MasterHandler struct {
	service services.MasterDataService
}

func NewMasterHandler(service services.MasterDataService) *MasterHandler {
	return &MasterHandler{service: service}
}

func (h *MasterHandler) list(c *gin.Context, op string, fetch func(context.Context) ([]*models.MasterItem, error)) {
	items, err := fetch(c.Request.Context())
	if err != nil {
		internalError(c, "master", op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": items})
}

// @Summary      Жанры
// @Tags         Master
// @Success      200  {object}  map[string]interface{}
// @Router       /master/genres [get]
func (h *MasterHandler) Genres(c *gin.Context) { h.list(c, "genres", h.service.Genres) }

// @Summary      Стили рисовки
// @Tags         Master
// @Success      200  {object}  map[string]interface{}
// @Router       /master/styles [get]
func (h *MasterHandler) Styles(c *gin.Context) { h.list(c, "styles", h.service.Styles) }

// @Summary      Фоны
// @Tags         Master
// @Success      200  {object}  map[string]interface{}
// @Router       /master/backgrounds [get]
func (h *MasterHandler) Backgrounds(c *gin.Context) {
	h.list(c, "backgrounds", h.service.Backgrounds)
}

// HealthHandler отвечает на / и /health.
type HealthHandler struct {
	DB      *sql.DB
	Version string
}

func NewHealthHandler(db *sql.DB, version string) *HealthHandler {
	return &HealthHandler{DB: db, Version: version}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "MamaStoria API", "version": h.Version})
}

func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			dbStatus = "unavailable"
		}
	}
	if dbStatus != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "status": "degraded", "database": dbStatus})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": "healthy", "database": dbStatus})
}
