package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"homegallery/logger"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(r http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Hour)
	r := gin.New()
	r.GET("/fetch_image", rl.Middleware(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusOK, get(r, "/fetch_image", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/fetch_image", nil).Code)

	w := get(r, "/fetch_image", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	rl.reset()
	assert.Equal(t, http.StatusOK, get(r, "/fetch_image", nil).Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1, time.Hour)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOutput("gallery", "info", &buf)

	r := gin.New()
	r.Use(RequestLog(log))
	r.GET("/faces", func(c *gin.Context) {
		Log(c).Info("handler ran")
		c.String(http.StatusInternalServerError, "boom")
	})

	w := get(r, "/faces", http.Header{RequestIDHeader: {"req-42"}})
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var access map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "req-42", access["request_id"])
	assert.Equal(t, "gallery", access["service"])
	assert.Equal(t, "error", access["level"])
	assert.Equal(t, float64(http.StatusInternalServerError), access["status"])
	assert.Equal(t, "/faces", access["route"])
}

func TestRequestLogGeneratesID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLog(logger.Discard()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestTracingPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Tracing())
	r.GET("/cctv", func(c *gin.Context) {
		assert.NotNil(t, c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, get(r, "/cctv", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/missing", nil).Code)
}
