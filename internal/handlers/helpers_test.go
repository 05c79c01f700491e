package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamastoria/internal/services"
)

// captureLog подменяет глобальный логгер на время теста.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = log.Output(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestInternalErrorLogPrefix(t *testing.T) {
	buf := captureLog(t)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { internalError(c, "verify", "check-code", errors.New("db gone")) })

	w := doJSON(t, r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["detail"])

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[verify][check-code] internal error", entry["message"])
	assert.Equal(t, "/x", entry["path"])
	assert.Equal(t, "db gone", entry["error"])
}

func TestVerifyInternalErrorsAreTagged(t *testing.T) {
	buf := captureLog(t)
	f := &fakeVerification{validateErr: errors.New("db gone"), resetErr: errors.New("db gone")}
	r := verifyRouter(f)

	doJSON(t, r, http.MethodPost, "/users/check-verification-code",
		map[string]string{"email": "a@b.co", "verification_code": "123456"})
	assert.Contains(t, buf.String(), `"[verify][check-code] internal error"`)

	buf.Reset()
	doJSON(t, r, http.MethodPost, "/password/reset-password",
		map[string]string{"email": "a@b.co", "reset_token": "123456", "new_password": "secret123"})
	assert.Contains(t, buf.String(), `"[verify][reset] internal error"`)

	buf.Reset()
	w := doJSON(t, comicRouter(&fakeComics{err: services.ErrCodeExpired}, 1), http.MethodGet, "/comics", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"[comics][list] internal error"`)
	assert.NotContains(t, buf.String(), "][[")
}
