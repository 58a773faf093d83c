package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler gin.HandlerFunc, reqHeaders map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(nil), ErrorHandler())
	r.GET("/t", handler)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", http.NoBody)
	for k, v := range reqHeaders {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRespondWithError(t *testing.T) {
	t.Run("Should render request errors as problem documents", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			RespondWithError(c, BadRequest("Query cannot be empty", nil))
		}, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
		body := decode(t, w)
		assert.Equal(t, "Query cannot be empty", body["detail"])
		assert.Equal(t, "Query cannot be empty", body["details"])
		assert.Equal(t, ErrBadRequestCode, body["code"])
		assert.Equal(t, "Bad Request", body["error"])
		assert.EqualValues(t, 400, body["status"])
	})

	t.Run("Should prefix internal errors with their cause", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			RespondWithError(c, Internal("Error processing query", errors.New("processing query: boom")))
		}, nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Error processing query: processing query: boom", body["details"])
		assert.Equal(t, ErrInternalCode, body["code"])
	})

	t.Run("Should hide unknown errors behind a generic 500", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			RespondWithError(c, errors.New("secret internals"))
		}, nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret internals")
	})

	t.Run("Should render errors attached to the context", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) {
			_ = c.Error(NewRequestError(http.StatusNotFound, "missing", nil))
		}, nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, ErrNotFoundCode, decode(t, w)["code"])
	})
}

func TestRequestID(t *testing.T) {
	t.Run("Should assign a request id when absent", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) { c.Status(http.StatusNoContent) }, nil)

		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})

	t.Run("Should echo the caller request id", func(t *testing.T) {
		w := serve(t, func(c *gin.Context) { c.Status(http.StatusNoContent) }, map[string]string{
			RequestIDHeader: "abc-123",
		})

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}
