// Package resolver turns image records into base64 payloads, reading the
// bytes either from the record itself or from S3.
package resolver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"homegallery/models"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MediaTypeText tags base64 payloads.
const MediaTypeText = "text/plain"

var tracer = otel.Tracer("homegallery/resolver")

// Fetcher downloads an object into w.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string, w io.Writer) error
}

type EncodedImage struct {
	Data      string
	MediaType string
}

type Resolver struct {
	fetcher    Fetcher
	stagingDir string
	log        *logrus.Entry
}

func New(fetcher Fetcher, stagingDir string, log *logrus.Entry) *Resolver {
	if stagingDir == "" {
		stagingDir = os.TempDir()
	}
	return &Resolver{fetcher: fetcher, stagingDir: stagingDir, log: log}
}

// Resolve returns the encoded image of record. It fails with ErrNotFound when
// there is nothing to show, ErrMalformedReference or ErrStorageFetch when the
// S3 reference cannot be followed. A record with an S3 reference never falls
// back to its inline bytes, and whatever S3 returns is encoded as is, an
// empty object included.
func (r *Resolver) Resolve(ctx context.Context, record *models.ImageRecord) (EncodedImage, error) {
	ctx, span := tracer.Start(ctx, "resolver.Resolve")
	defer span.End()

	img, err := r.resolve(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return img, err
}

func (r *Resolver) resolve(ctx context.Context, record *models.ImageRecord) (EncodedImage, error) {
	if !record.HasImage() {
		return EncodedImage{}, ErrNotFound
	}

	if record.S3URL != "" {
		bucket, key, err := ParseReference(record.S3URL)
		if err != nil {
			return EncodedImage{}, err
		}
		raw, err := r.download(ctx, bucket, key)
		if err != nil {
			return EncodedImage{}, err
		}
		return encode(raw), nil
	}
	return encode(record.Data), nil
}

// Loader completes a record picked from a list that was loaded without its
// image bytes. A nil record means it no longer exists.
type Loader func(ctx context.Context, record *models.ImageRecord) (*models.ImageRecord, error)

// ResolveIndexed resolves records[index]. An empty list is ErrNotFound
// whatever the index; otherwise an index outside [0, len) is ErrInvalidIndex.
// When load is set, the picked record goes through it before resolving.
func (r *Resolver) ResolveIndexed(ctx context.Context, records []models.ImageRecord, index int, load Loader) (*models.ImageRecord, EncodedImage, error) {
	if len(records) == 0 {
		return nil, EncodedImage{}, ErrNotFound
	}
	if index < 0 || index >= len(records) {
		return nil, EncodedImage{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, len(records))
	}

	record := &records[index]
	if load != nil {
		full, err := load(ctx, record)
		if err != nil {
			return record, EncodedImage{}, err
		}
		if full == nil {
			return record, EncodedImage{}, fmt.Errorf("%w: %s was removed", ErrNotFound, record.ID.Hex())
		}
		record = full
	}

	img, err := r.Resolve(ctx, record)
	if err != nil {
		return record, EncodedImage{}, err
	}
	return record, img, nil
}

// download stages the object in a uniquely named file and reads it back.
// The file is removed on every path; a failed removal is only logged.
func (r *Resolver) download(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "resolver.download")
	span.SetAttributes(attribute.String("s3.bucket", bucket), attribute.String("s3.key", key))
	defer span.End()

	path := filepath.Join(r.stagingDir, "gallery-"+uuid.NewString()+".img")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: create staging file: %v", ErrStorageFetch, err)
	}
	defer func() {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			r.log.WithError(err).WithField("staging", path).Warn("close staging file")
		}
		if err := os.Remove(path); err != nil {
			r.log.WithError(err).WithField("staging", path).Error("remove staging file")
		}
	}()

	if err := r.fetcher.Fetch(ctx, bucket, key, f); err != nil {
		return nil, fmt.Errorf("%w: s3://%s/%s: %v", ErrStorageFetch, bucket, key, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewind staging file: %v", ErrStorageFetch, err)
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read staging file: %v", ErrStorageFetch, err)
	}
	return raw, nil
}

func encode(raw []byte) EncodedImage {
	return EncodedImage{
		Data:      base64.StdEncoding.EncodeToString(raw),
		MediaType: MediaTypeText,
	}
}
