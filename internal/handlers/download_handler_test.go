package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"mamastoria/internal/services"
)

type fakeStorage struct {
	services.StorageService
	objects map[string]string
}

func (f *fakeStorage) ObjectKey(raw string) (string, error) {
	const prefix = "https://storage.test/mamastoria/"
	if !strings.HasPrefix(raw, prefix) {
		return "", services.ErrObjectURL
	}
	return strings.TrimPrefix(raw, prefix), nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (*services.StoredObject, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, services.ErrObjectNotFound
	}
	ct := ""
	if strings.HasSuffix(key, ".pdf") {
		ct = "application/pdf"
	}
	return &services.StoredObject{
		Body:        io.NopCloser(strings.NewReader(body)),
		Size:        int64(len(body)),
		ContentType: ct,
		Name:        key[strings.LastIndex(key, "/")+1:],
	}, nil
}

func downloadRouter(storage services.StorageService) *gin.Engine {
	h := NewDownloadHandler(storage)
	r := gin.New()
	r.GET("/download/file", h.File)
	r.GET("/download/video", h.Video)
	return r
}

func TestDownloadFile(t *testing.T) {
	r := downloadRouter(&fakeStorage{objects: map[string]string{
		"exports/3/book.pdf": "%PDF-1.4",
		"exports/3/clip":     "\x00\x00",
	}})

	w := doJSON(t, r, http.MethodGet, "/download/file?url=https://storage.test/mamastoria/exports/3/book.pdf", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="book.pdf"`, w.Header().Get("Content-Disposition"))

	w = doJSON(t, r, http.MethodGet, "/download/video?url=https://storage.test/mamastoria/exports/3/clip", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))

	w = doJSON(t, r, http.MethodGet, "/download/file?url=https://storage.test/mamastoria/missing.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/download/file?url=https://elsewhere.example/x.pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/download/file", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDownloadWithoutStorage(t *testing.T) {
	w := doJSON(t, downloadRouter(nil), http.MethodGet, "/download/file?url=https://storage.test/mamastoria/a", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
