package route

import (
	"context"
	"homegallery/controller"
	"homegallery/logger"
	mw "homegallery/middlewares"
	"homegallery/models"
	"homegallery/resolver"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type emptyStore struct{}

func (emptyStore) Latest(context.Context, string) (*models.ImageRecord, error) {
	return &models.ImageRecord{Data: []byte("img")}, nil
}

func (emptyStore) NewestFirst(context.Context, string) ([]models.ImageRecord, error) {
	return nil, nil
}

func (emptyStore) ByID(context.Context, string, bson.ObjectID) (*models.ImageRecord, error) {
	return nil, nil
}

func (emptyStore) Summaries(context.Context, string) iter.Seq2[models.ImageSummary, error] {
	return func(func(models.ImageSummary, error) bool) {}
}

type noFetcher struct{}

func (noFetcher) Fetch(context.Context, string, string, io.Writer) error { return nil }

func newServer(t *testing.T, limit int) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.Discard()
	res := resolver.New(noFetcher{}, t.TempDir(), log.Entry())
	gallery := controller.NewGallery(emptyStore{}, res, "photos", "faces")

	router := Engine(log)
	Pages(router, gallery)
	Images(router, gallery, mw.NewRateLimiter(ctx, limit, time.Hour))
	Auth(router)
	Ops(router)
	return router
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRoutes(t *testing.T) {
	r := newServer(t, 100)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/profile", http.StatusOK},
		{http.MethodGet, "/cctv", http.StatusOK},
		{http.MethodGet, "/faces", http.StatusOK},
		{http.MethodGet, "/fetch_image", http.StatusOK},
		{http.MethodGet, "/fetch_face_image/0", http.StatusNotFound},
		{http.MethodGet, "/login", http.StatusOK},
		{http.MethodGet, "/signup", http.StatusOK},
		{http.MethodPost, "/login", http.StatusNotImplemented},
		{http.MethodPost, "/signup", http.StatusNotImplemented},
		{http.MethodGet, "/logout", http.StatusNotImplemented},
		{http.MethodPost, "/logout", http.StatusNotImplemented},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := serve(r, tt.method, tt.path)
		assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		assert.NotEmpty(t, w.Header().Get(mw.RequestIDHeader), "%s %s", tt.method, tt.path)
	}
}

func TestImagesAreRateLimited(t *testing.T) {
	r := newServer(t, 1)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/fetch_image").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/fetch_image").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/fetch_face_image/0").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/").Code, "pages are not limited")
}

func TestMetricsExposeOutcomes(t *testing.T) {
	r := newServer(t, 100)
	serve(r, http.MethodGet, "/fetch_image")

	w := serve(r, http.MethodGet, "/metrics")
	assert.Contains(t, w.Body.String(), `gallery_resolve_total{outcome="ok",route="fetch_image"}`)
}
