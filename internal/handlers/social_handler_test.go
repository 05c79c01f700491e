package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mamastoria/internal/models"
	"mamastoria/internal/services"
)

type fakeComments struct {
	createErr error
	deleteErr error
	lastBody  string
}

func (f *fakeComments) List(context.Context, int, int, int) ([]*models.Comment, int64, error) {
	return nil, 0, services.ErrComicNotFound
}

func (f *fakeComments) Create(_ context.Context, userID, comicID int, body string) (*models.Comment, error) {
	f.lastBody = body
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Comment{ID: 1, ComicID: comicID, UserID: userID, Body: body}, nil
}

func (f *fakeComments) Delete(context.Context, int, int) error { return f.deleteErr }

type fakeLikes struct {
	err   error
	total int64
	liked bool
}

func (f *fakeLikes) Like(context.Context, int, int) (int64, error)   { return f.total, f.err }
func (f *fakeLikes) Unlike(context.Context, int, int) (int64, error) { return f.total, f.err }

func (f *fakeLikes) Status(context.Context, int, int) (bool, int64, error) {
	return f.liked, f.total, f.err
}

func (f *fakeLikes) List(context.Context, int, int, int) ([]*models.Like, int64, error) {
	return []*models.Like{}, 0, f.err
}

func socialRouter(cm *fakeComments, lk *fakeLikes) *gin.Engine {
	h := NewSocialHandler(cm, lk)
	r := gin.New()
	r.Use(withUser(2))
	r.GET("/comics/:id/comments", h.ListComments)
	r.POST("/comics/:id/comments", h.CreateComment)
	r.DELETE("/comments/:id", h.DeleteComment)
	r.GET("/comics/:id/likes", h.ListLikes)
	r.POST("/comics/:id/likes", h.Like)
	r.DELETE("/comics/:id/likes", h.Unlike)
	r.GET("/comics/:id/likes/status", h.LikeStatus)
	return r
}

func TestComments(t *testing.T) {
	cm := &fakeComments{}
	r := socialRouter(cm, &fakeLikes{})

	w := doJSON(t, r, http.MethodGet, "/comics/5/comments", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/comics/5/comments", map[string]string{"body": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = doJSON(t, r, http.MethodPost, "/comics/5/comments", map[string]string{"body": strings.Repeat("a", 1001)})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, "/comics/5/comments", map[string]string{"body": "nice!"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Comment added successfully", decode(t, w)["message"])
	assert.Equal(t, "nice!", cm.lastBody)

	cm.deleteErr = services.ErrCommentForbidden
	w = doJSON(t, r, http.MethodDelete, "/comments/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "You can only delete your own comments", decode(t, w)["detail"])

	cm.deleteErr = services.ErrCommentNotFound
	w = doJSON(t, r, http.MethodDelete, "/comments/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cm.deleteErr = nil
	w = doJSON(t, r, http.MethodDelete, "/comments/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLikes(t *testing.T) {
	lk := &fakeLikes{total: 3}
	r := socialRouter(&fakeComments{}, lk)

	w := doJSON(t, r, http.MethodPost, "/comics/5/likes", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"ok":true,"message":"Comic liked successfully","data":{"total_likes":3}}`, w.Body.String())

	lk.liked = true
	w = doJSON(t, r, http.MethodGet, "/comics/5/likes/status", nil)
	assert.JSONEq(t, `{"ok":true,"data":{"is_liked":true,"total_likes":3}}`, w.Body.String())

	cases := []struct {
		method string
		err    error
		status int
		detail string
	}{
		{http.MethodPost, services.ErrAlreadyLiked, http.StatusBadRequest, "Comic already liked"},
		{http.MethodDelete, services.ErrNotLiked, http.StatusBadRequest, "Comic not liked yet"},
		{http.MethodPost, services.ErrComicNotFound, http.StatusNotFound, "Comic not found"},
	}
	for _, tc := range cases {
		lk.err = tc.err
		w := doJSON(t, r, tc.method, "/comics/5/likes", nil)
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.detail, decode(t, w)["detail"])
	}
}
