package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

type ComicHandler struct {
	service services.ComicService
}

func NewComicHandler(service services.ComicService) *ComicHandler {
	return &ComicHandler{service: service}
}

// comicError maps service errors; returns true when a response was written.
func comicError(c *gin.Context, op string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrComicNotFound):
		detail(c, http.StatusNotFound, "Comic not found")
	case errors.Is(err, services.ErrComicForbidden):
		detail(c, http.StatusNotFound, "Comic not found or you don't have permission")
	case errors.Is(err, services.ErrInvalidGenres), errors.Is(err, services.ErrInvalidStyle),
		errors.Is(err, services.ErrInvalidBackgrounds), errors.Is(err, services.ErrNoDraftJob):
		detail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrGeneratorDisabled):
		detail(c, http.StatusServiceUnavailable, err.Error())
	default:
		internalError(c, "comics", op, err)
	}
	return true
}

// @Summary      Список опубликованных комиксов
// @Tags         Comics
// @Produce      json
// @Param        genre     query  string  false  "genre"
// @Param        style     query  string  false  "style"
// @Param        search    query  string  false  "title/synopsis search"
// @Param        page      query  int     false  "page"
// @Param        per_page  query  int     false  "per page"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics [get]
func (h *ComicHandler) List(c *gin.Context) {
	page := utils.PageFromQuery(c)
	f := models.ComicFilter{Genre: c.Query("genre"), Style: c.Query("style"), Search: c.Query("search")}
	items, total, err := h.service.List(c.Request.Context(), f, page.Limit(), page.Offset())
	if comicError(c, "list", err) {
		return
	}
	paginated(c, page, items, total)
}

// @Summary      Комикс по ID
// @Tags         Comics
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /comics/show/{id} [get]
func (h *ComicHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comic, err := h.service.Show(c.Request.Context(), id, optionalUserID(c))
	if comicError(c, "show", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": comic})
}

// @Summary      Создать черновик из идеи
// @Tags         Comics
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.CreateStoryIdeaRequest  true  "story idea"
// @Success      201   {object}  map[string]interface{}
// @Router       /comics/story-idea [post]
func (h *ComicHandler) CreateStoryIdea(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateStoryIdeaRequest
	if !bindJSON(c, &req) {
		return
	}
	comic, err := h.service.CreateFromStoryIdea(c.Request.Context(), userID, req)
	if comicError(c, "story-idea", err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": "Comic created successfully", "data": comic})
}

// @Summary      Обновить summary
// @Tags         Comics
// @Security     BearerAuth
// @Param        id    path  int                          true  "comic id"
// @Param        body  body  models.UpdateSummaryRequest  true  "summary"
// @Success      200   {object}  map[string]interface{}
// @Router       /comics/{id}/summary [put]
func (h *ComicHandler) UpdateSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateSummaryRequest
	if !bindJSON(c, &req) {
		return
	}
	comic, err := h.service.UpdateSummary(c.Request.Context(), userID, id, req.Summary)
	if comicError(c, "summary", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Summary updated successfully", "data": comic})
}

// @Summary      Выбрать персонажа
// @Tags         Comics
// @Security     BearerAuth
// @Param        id    path  int                            true  "comic id"
// @Param        body  body  models.UpdateCharacterRequest  true  "character"
// @Success      200   {object}  map[string]interface{}
// @Router       /comics/{id}/characters [put]
func (h *ComicHandler) UpdateCharacter(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateCharacterRequest
	if !bindJSON(c, &req) {
		return
	}
	comic, err := h.service.UpdateCharacter(c.Request.Context(), userID, id, req.CharacterKey)
	if comicError(c, "characters", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Character updated successfully", "data": comic})
}

// @Summary      Выбрать фоны
// @Tags         Comics
// @Security     BearerAuth
// @Param        id    path  int                              true  "comic id"
// @Param        body  body  models.UpdateBackgroundsRequest  true  "backgrounds"
// @Success      200   {object}  map[string]interface{}
// @Router       /comics/{id}/backgrounds [put]
func (h *ComicHandler) UpdateBackgrounds(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateBackgroundsRequest
	if !bindJSON(c, &req) {
		return
	}
	comic, err := h.service.UpdateBackgrounds(c.Request.Context(), userID, id, req.BackgroundIDs)
	if comicError(c, "backgrounds", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Backgrounds updated successfully", "data": comic})
}

// @Summary      Мои черновики
// @Tags         Comics
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/drafts [get]
func (h *ComicHandler) Drafts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	items, total, err := h.service.Drafts(c.Request.Context(), userID, page.Limit(), page.Offset())
	if comicError(c, "drafts", err) {
		return
	}
	paginated(c, page, items, total)
}

// @Summary      Опубликовать
// @Tags         Comics
// @Security     BearerAuth
// @Param        id    path  int                         true  "comic id"
// @Param        body  body  models.PublishComicRequest  false "title/synopsis"
// @Success      200   {object}  map[string]interface{}
// @Router       /comics/{id}/publish [post]
func (h *ComicHandler) Publish(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.PublishComicRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	comic, err := h.service.Publish(c.Request.Context(), userID, id, req)
	if comicError(c, "publish", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Comic published successfully", "data": comic})
}

// @Summary      Отметить прочтение
// @Tags         Comics
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/{id}/track-read [post]
func (h *ComicHandler) TrackRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.service.TrackRead(c.Request.Context(), id, optionalUserID(c))
	if comicError(c, "track-read", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Read tracked successfully"})
}

// @Summary      Похожие комиксы
// @Tags         Comics
// @Param        id     path   int  true   "comic id"
// @Param        limit  query  int  false  "max 50"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/{id}/similar [get]
func (h *ComicHandler) Similar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.SimilarDefaultLimit)))
	items, err := h.service.Similar(c.Request.Context(), id, limit)
	if comicError(c, "similar", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": items})
}

// @Summary      Недавно прочитанные
// @Tags         Comics
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/last-read [get]
func (h *ComicHandler) LastRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.service.LastRead(c.Request.Context(), userID)
	if comicError(c, "last-read", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": items})
}

// @Summary      Удалить комикс
// @Tags         Comics
// @Security     BearerAuth
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/{id} [delete]
func (h *ComicHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if comicError(c, "delete", h.service.Delete(c.Request.Context(), userID, id)) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Comic deleted successfully"})
}

// @Summary      Отправить черновик в генератор
// @Tags         Comics
// @Security     BearerAuth
// @Param        id   path  int  true  "comic id"
// @Success      202  {object}  map[string]interface{}
// @Router       /comics/{id}/generate-draft [post]
func (h *ComicHandler) GenerateDraft(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	comic, err := h.service.GenerateDraft(c.Request.Context(), userID, id)
	if comicError(c, "generate-draft", err) {
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"ok":      true,
		"message": "Draft generation started",
		"data":    gin.H{"comic_id": comic.ID, "job_id": comic.DraftJobID, "status": comic.DraftJobStatus},
	})
}

// @Summary      Статус генерации черновика
// @Tags         Comics
// @Security     BearerAuth
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/{id}/draft-status [get]
func (h *ComicHandler) DraftStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	job, err := h.service.DraftStatus(c.Request.Context(), userID, id)
	if comicError(c, "draft-status", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": job})
}
