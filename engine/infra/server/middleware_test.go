package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/helpdesk/pkg/config"
)

func corsEngine(cfg config.CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORSMiddleware(cfg))
	r.POST("/api/chat", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("Should echo any origin for the wildcard", func(t *testing.T) {
		r := corsEngine(config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true, MaxAge: 600})
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", http.NoBody)
		req.Header.Set("Origin", "https://portal.example.edu")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://portal.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("Should not allow unlisted origins", func(t *testing.T) {
		r := corsEngine(config.CORSConfig{AllowedOrigins: []string{"https://a.example"}})
		req := httptest.NewRequest(http.MethodPost, "/api/chat", http.NoBody)
		req.Header.Set("Origin", "https://b.example")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should allow nothing without configured origins", func(t *testing.T) {
		assert.False(t, originAllowed(nil, "https://a.example"))
		assert.True(t, originAllowed([]string{"https://a.example"}, "https://a.example"))
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("Should attach a deadline to the request context", func(t *testing.T) {
		r := gin.New()
		r.Use(TimeoutMiddleware(time.Minute))
		var hasDeadline bool
		r.GET("/", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		require.True(t, hasDeadline)
	})

	t.Run("Should leave the context alone when disabled", func(t *testing.T) {
		r := gin.New()
		r.Use(TimeoutMiddleware(0))
		hasDeadline := true
		r.GET("/", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

		assert.False(t, hasDeadline)
	})
}
