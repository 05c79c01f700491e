package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

// ComicRequestHandler: заказы печатных комиксов.
type ComicRequestHandler struct {
	service services.ComicRequestService
}

func NewComicRequestHandler(service services.ComicRequestService) *ComicRequestHandler {
	return &ComicRequestHandler{service: service}
}

// @Summary      Заказать печатный комикс
// @Tags         ComicRequests
// @Security     BearerAuth
// @Accept       json
// @Param        body  body  models.CreateComicRequestRequest  true  "доставка"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /comic-requests [post]
func (h *ComicRequestHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.CreateComicRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	cr, left, err := h.service.Create(c.Request.Context(), userID, req)
	var short *services.InsufficientCreditsError
	switch {
	case errors.As(err, &short):
		detail(c, http.StatusBadRequest, short.Error())
		return
	case errors.Is(err, services.ErrUserNotFound):
		detail(c, http.StatusNotFound, "User not found")
		return
	case err != nil:
		internalError(c, "comic-requests", "create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":                true,
		"message":           "Request sent successfully",
		"data":              cr,
		"remaining_credits": left,
	})
}

// @Summary      Мои заказы
// @Tags         ComicRequests
// @Security     BearerAuth
// @Param        page      query  int  false  "page"
// @Param        per_page  query  int  false  "per page"
// @Success      200  {object}  map[string]interface{}
// @Router       /comic-requests [get]
func (h *ComicRequestHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	items, total, err := h.service.List(c.Request.Context(), userID, page.Limit(), page.Offset())
	if err != nil {
		internalError(c, "comic-requests", "list", err)
		return
	}
	paginated(c, page, items, total)
}
