package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/moviedb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondWithAppError(t *testing.T) {
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		c.Set(RequestIDKey, "req-1")
		RespondWithError(c, types.NewNotFoundError("movie", "7"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "movie not found", resp.Error.Message)
	assert.Equal(t, "7", resp.Error.Context["id"])
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

func TestRespondWithPlainErrorHidesCause(t *testing.T) {
	router := gin.New()
	router.GET("/x", func(c *gin.Context) {
		RespondWithError(c, errors.New("dial tcp: connection refused"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestErrorMiddlewareRecoversPanic(t *testing.T) {
	router := gin.New()
	router.Use(ErrorMiddleware())
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Error.Code)
}

func TestNoRoute(t *testing.T) {
	router := gin.New()
	router.NoRoute(NoRoute)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "/nope", decodeError(t, w).Error.Context["path"])
}
