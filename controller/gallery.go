package controller

import (
	"context"
	"errors"
	"homegallery/database"
	"homegallery/middlewares"
	"homegallery/models"
	"homegallery/resolver"
	"homegallery/telemetry"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ImageStore is the document side of the gallery.
type ImageStore interface {
	Latest(ctx context.Context, collection string) (*models.ImageRecord, error)
	NewestFirst(ctx context.Context, collection string) ([]models.ImageRecord, error)
	ByID(ctx context.Context, collection string, id bson.ObjectID) (*models.ImageRecord, error)
	Summaries(ctx context.Context, collection string) iter.Seq2[models.ImageSummary, error]
}

// ImageResolver turns records into base64 payloads.
type ImageResolver interface {
	Resolve(ctx context.Context, record *models.ImageRecord) (resolver.EncodedImage, error)
	ResolveIndexed(ctx context.Context, records []models.ImageRecord, index int, load resolver.Loader) (*models.ImageRecord, resolver.EncodedImage, error)
}

type Gallery struct {
	store            ImageStore
	resolver         ImageResolver
	photosCollection string
	facesCollection  string
}

func NewGallery(store ImageStore, res ImageResolver, photos, faces string) *Gallery {
	return &Gallery{
		store:            store,
		resolver:         res,
		photosCollection: photos,
		facesCollection:  faces,
	}
}

func (g *Gallery) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Home"})
}

func (g *Gallery) Profile(c *gin.Context) {
	c.HTML(http.StatusOK, "profile.html", gin.H{"Title": "Profile"})
}

func (g *Gallery) CCTV(c *gin.Context) {
	c.HTML(http.StatusOK, "cctv.html", gin.H{"Title": "CCTV"})
}

// Faces lists every face capture, newest first.
func (g *Gallery) Faces(c *gin.Context) {
	var faces []models.ImageSummary
	for summary, err := range g.store.Summaries(c.Request.Context(), g.facesCollection) {
		if err != nil {
			middlewares.Log(c).WithError(err).WithField("collection", g.facesCollection).Error("list faces")
			if errors.Is(err, database.ErrConnection) {
				c.String(http.StatusInternalServerError, "Error connecting to MongoDB: %v", err)
				return
			}
			c.String(http.StatusInternalServerError, "An error occurred")
			return
		}
		faces = append(faces, summary)
	}

	c.HTML(http.StatusOK, "faces.html", gin.H{"Title": "Faces", "Faces": faces})
}

// FetchFaceImage returns the face at :index of the newest-first list.
func (g *Gallery) FetchFaceImage(c *gin.Context) {
	const route = "fetch_face_image"
	log := middlewares.Log(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		log.WithError(err).WithField("index", c.Param("index")).Warn("bad face index")
		observe(route, resolver.ErrInvalidIndex)
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid index"})
		return
	}

	ctx := c.Request.Context()
	records, err := g.store.NewestFirst(ctx, g.facesCollection)
	if err != nil {
		log.WithError(err).WithField("collection", g.facesCollection).Error("load faces")
		observe(route, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		return
	}

	// The list carries no image bytes; only the picked face is loaded in full.
	load := func(ctx context.Context, picked *models.ImageRecord) (*models.ImageRecord, error) {
		return g.store.ByID(ctx, g.facesCollection, picked.ID)
	}
	record, img, err := g.resolver.ResolveIndexed(ctx, records, index, load)
	observe(route, err)
	if err != nil {
		status := statusFor(err)
		entry := log.WithError(err).WithField("index", index)
		if status >= http.StatusInternalServerError {
			entry.Error("resolve face image")
		} else {
			entry.Warn("face image unavailable")
		}
		c.JSON(status, gin.H{"error": errorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, models.FaceImageResponse{
		ImageID:   record.ID.Hex(),
		BsonTime:  bsonTime(record.Time),
		ImageData: img.Data,
	})
}

// FetchImage returns the newest photo as a base64 text body.
func (g *Gallery) FetchImage(c *gin.Context) {
	const route = "fetch_image"
	log := middlewares.Log(c)
	ctx := c.Request.Context()

	record, err := g.store.Latest(ctx, g.photosCollection)
	if err != nil {
		log.WithError(err).WithField("collection", g.photosCollection).Error("load latest photo")
		observe(route, err)
		c.String(http.StatusInternalServerError, "%s", errorMessage(err))
		return
	}

	img, err := g.resolver.Resolve(ctx, record)
	observe(route, err)
	if err != nil {
		status := statusFor(err)
		entry := log.WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("resolve latest photo")
		} else {
			entry.Warn("no latest photo")
		}
		c.String(status, "%s", errorMessage(err))
		return
	}

	c.Data(http.StatusOK, img.MediaType+"; charset=utf-8", []byte(img.Data))
}

// statusFor maps resolver and store errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, resolver.ErrNotFound), errors.Is(err, resolver.ErrInvalidIndex):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return "Couldn't find a picture"
	case errors.Is(err, resolver.ErrInvalidIndex):
		return "Invalid index"
	case errors.Is(err, resolver.ErrMalformedReference):
		return "Malformed image reference"
	case errors.Is(err, resolver.ErrStorageFetch):
		return "Error fetching image from S3"
	case errors.Is(err, resolver.ErrEncoding):
		return "Error encoding image"
	case errors.Is(err, database.ErrConnection):
		return "Error connecting to MongoDB"
	default:
		return "An error occurred"
	}
}

func observe(route string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, resolver.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, resolver.ErrInvalidIndex):
		outcome = "invalid_index"
	case errors.Is(err, resolver.ErrMalformedReference):
		outcome = "malformed_reference"
	case errors.Is(err, resolver.ErrStorageFetch):
		outcome = "storage_fetch_failed"
	case errors.Is(err, resolver.ErrEncoding):
		outcome = "encoding_failed"
	case errors.Is(err, database.ErrConnection):
		outcome = "db_connection_failed"
	default:
		outcome = "error"
	}
	telemetry.ResolveOutcomes.WithLabelValues(route, outcome).Inc()
}

// bsonTime renders the capture time the way the stored value reads.
func bsonTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
