package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"mamastoria/internal/services"
)

// DownloadHandler отдаёт объекты из хранилища как вложение
// (мобильный клиент не умеет качать по presigned ссылке напрямую).
type DownloadHandler struct {
	storage services.StorageService
}

func NewDownloadHandler(storage services.StorageService) *DownloadHandler {
	return &DownloadHandler{storage: storage}
}

// @Summary      Скачать файл
// @Tags         Downloads
// @Security     BearerAuth
// @Param        url  query  string  true  "ссылка на объект в хранилище"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /download/file [get]
func (h *DownloadHandler) File(c *gin.Context) { h.serve(c, "file", "application/octet-stream") }

// @Summary      Скачать видео
// @Tags         Downloads
// @Security     BearerAuth
// @Param        url  query  string  true  "ссылка на видео в хранилище"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /download/video [get]
func (h *DownloadHandler) Video(c *gin.Context) { h.serve(c, "video", "video/mp4") }

func (h *DownloadHandler) serve(c *gin.Context, op, fallbackType string) {
	if h.storage == nil {
		detail(c, http.StatusServiceUnavailable, services.ErrStorageDisabled.Error())
		return
	}
	raw := c.Query("url")
	if raw == "" {
		detail(c, http.StatusUnprocessableEntity, "url is required")
		return
	}
	key, err := h.storage.ObjectKey(raw)
	if err != nil {
		detail(c, http.StatusBadRequest, "Invalid URL. Must point to the application storage bucket")
		return
	}
	obj, err := h.storage.Open(c.Request.Context(), key)
	switch {
	case errors.Is(err, services.ErrObjectNotFound):
		detail(c, http.StatusNotFound, "File not found: "+key)
		return
	case err != nil:
		internalError(c, "download", op, err)
		return
	}
	defer obj.Body.Close()

	ct := obj.ContentType
	if ct == "" {
		ct = fallbackType
	}
	name := strings.ReplaceAll(obj.Name, `"`, "")
	log.Info().Str("key", key).Int64("size", obj.Size).Msg("[download][" + op + "] streaming")
	c.DataFromReader(http.StatusOK, obj.Size, ct, obj.Body, map[string]string{
		"Content-Disposition":           `attachment; filename="` + name + `"`,
		"Access-Control-Expose-Headers": "Content-Disposition, Content-Length",
	})
}
