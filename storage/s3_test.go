package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeS3(t *testing.T, objects map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/cams" {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, ok := objects[r.URL.Path]
		if r.Method != http.MethodGet || !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T, endpoint string) *S3Fetcher {
	t.Helper()
	f, err := NewS3Fetcher(context.Background(), S3Config{
		Region:    "us-east-1",
		AccessKey: "test",
		SecretKey: "test",
		Endpoint:  endpoint,
	})
	require.NoError(t, err)
	return f
}

func TestS3FetchStreamsObject(t *testing.T) {
	body := []byte("frame-0001")
	srv := newFakeS3(t, map[string][]byte{"/cams/img/42.jpg": body})
	f := newTestFetcher(t, srv.URL)

	var buf bytes.Buffer
	require.NoError(t, f.Fetch(context.Background(), "cams", "img/42.jpg", &buf))
	assert.Equal(t, body, buf.Bytes())
}

func TestS3FetchMissingObject(t *testing.T) {
	srv := newFakeS3(t, nil)
	f := newTestFetcher(t, srv.URL)

	var buf bytes.Buffer
	err := f.Fetch(context.Background(), "cams", "img/404.jpg", &buf)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestS3FetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	f := newTestFetcher(t, endpoint)
	err := f.Fetch(context.Background(), "mybucket", "img/42.jpg", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestS3Probe(t *testing.T) {
	srv := newFakeS3(t, nil)
	f := newTestFetcher(t, srv.URL)

	assert.NoError(t, f.Probe(context.Background(), "cams"))
	assert.Error(t, f.Probe(context.Background(), "other"))
}
