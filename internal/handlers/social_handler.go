package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
	"mamastoria/internal/utils"
)

// SocialHandler: комментарии и лайки к комиксам.
type SocialHandler struct {
	comments services.CommentService
	likes    services.LikeService
}

func NewSocialHandler(comments services.CommentService, likes services.LikeService) *SocialHandler {
	return &SocialHandler{comments: comments, likes: likes}
}

// @Summary      Комментарии к комиксу
// @Tags         Comments
// @Param        id        path   int  true   "comic id"
// @Param        page      query  int  false  "page"
// @Param        per_page  query  int  false  "per page"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /comics/{id}/comments [get]
func (h *SocialHandler) ListComments(c *gin.Context) {
	comicID, ok := paramID(c, "id")
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	items, total, err := h.comments.List(c.Request.Context(), comicID, page.Limit(), page.Offset())
	if errors.Is(err, services.ErrComicNotFound) {
		detail(c, http.StatusNotFound, "Comic not found")
		return
	}
	if err != nil {
		internalError(c, "comments", "list", err)
		return
	}
	paginated(c, page, items, total)
}

// @Summary      Добавить комментарий
// @Tags         Comments
// @Security     BearerAuth
// @Accept       json
// @Param        id    path  int                          true  "comic id"
// @Param        body  body  models.CreateCommentRequest  true  "comment"
// @Success      201   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /comics/{id}/comments [post]
func (h *SocialHandler) CreateComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	comicID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), userID, comicID, req.Body)
	if errors.Is(err, services.ErrComicNotFound) {
		detail(c, http.StatusNotFound, "Comic not found")
		return
	}
	if err != nil {
		internalError(c, "comments", "create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "message": "Comment added successfully", "data": comment})
}

// @Summary      Удалить свой комментарий
// @Tags         Comments
// @Security     BearerAuth
// @Param        id   path  int  true  "comment id"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /comments/{id} [delete]
func (h *SocialHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := h.comments.Delete(c.Request.Context(), userID, id)
	switch {
	case errors.Is(err, services.ErrCommentNotFound):
		detail(c, http.StatusNotFound, "Comment not found")
		return
	case errors.Is(err, services.ErrCommentForbidden):
		detail(c, http.StatusForbidden, "You can only delete your own comments")
		return
	case err != nil:
		internalError(c, "comments", "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Comment deleted successfully"})
}

func likeError(c *gin.Context, op string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrComicNotFound):
		detail(c, http.StatusNotFound, "Comic not found")
	case errors.Is(err, services.ErrAlreadyLiked):
		detail(c, http.StatusBadRequest, "Comic already liked")
	case errors.Is(err, services.ErrNotLiked):
		detail(c, http.StatusBadRequest, "Comic not liked yet")
	default:
		internalError(c, "likes", op, err)
	}
	return true
}

// @Summary      Кто лайкнул комикс
// @Tags         Likes
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/{id}/likes [get]
func (h *SocialHandler) ListLikes(c *gin.Context) {
	comicID, ok := paramID(c, "id")
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	items, total, err := h.likes.List(c.Request.Context(), comicID, page.Limit(), page.Offset())
	if likeError(c, "list", err) {
		return
	}
	paginated(c, page, items, total)
}

// @Summary      Лайкнуть комикс
// @Tags         Likes
// @Security     BearerAuth
// @Param        id   path  int  true  "comic id"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /comics/{id}/likes [post]
func (h *SocialHandler) Like(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	comicID, ok := paramID(c, "id")
	if !ok {
		return
	}
	total, err := h.likes.Like(c.Request.Context(), userID, comicID)
	if likeError(c, "like", err) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":      true,
		"message": "Comic liked successfully",
		"data":    gin.H{"total_likes": total},
	})
}

// @Summary      Убрать лайк
// @Tags         Likes
// @Security     BearerAuth
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /comics/{id}/likes [delete]
func (h *SocialHandler) Unlike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	comicID, ok := paramID(c, "id")
	if !ok {
		return
	}
	total, err := h.likes.Unlike(c.Request.Context(), userID, comicID)
	if likeError(c, "unlike", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": "Comic unliked successfully",
		"data":    gin.H{"total_likes": total},
	})
}

// @Summary      Статус лайка
// @Tags         Likes
// @Security     BearerAuth
// @Param        id   path  int  true  "comic id"
// @Success      200  {object}  map[string]interface{}
// @Router       /comics/{id}/likes/status [get]
func (h *SocialHandler) LikeStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	comicID, ok := paramID(c, "id")
	if !ok {
		return
	}
	liked, total, err := h.likes.Status(c.Request.Context(), userID, comicID)
	if likeError(c, "status", err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"is_liked": liked, "total_likes": total}})
}
