package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3BlobStorage_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "configuration is required"},
		{name: "missing bucket", cfg: &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, wantErr: "bucket is required"},
		{name: "missing keys", cfg: &config.StorageConfig{Bucket: "b"}, wantErr: "secret key are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3BlobStorage(ctx, tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	s, err := NewS3BlobStorage(ctx, &config.StorageConfig{
		Bucket: "attachments", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000", UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "attachments", s.Bucket())
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"", false, ""},
		{"minio:9000", false, "http://minio:9000"},
		{"minio:9000", true, "https://minio:9000"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.in, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// fakeS3 records the requests an S3 client sends in path-style mode
type fakeS3 struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	if r.Method == http.MethodPost && r.URL.Query().Has("delete") {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newFakeS3Storage(t *testing.T) (*S3BlobStorage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3BlobStorage(context.Background(), &config.StorageConfig{
		Endpoint: srv.URL, Region: "us-east-1", Bucket: "attachments",
		AccessKey: "k", SecretKey: "s", UsePathStyle: true,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3BlobStorage_Upload(t *testing.T) {
	s, fake := newFakeS3Storage(t)

	err := s.Upload(context.Background(), "invoice/INV-1/a.pdf", []byte("hello"), "application/pdf")
	require.NoError(t, err)

	require.Len(t, fake.requests, 1)
	assert.True(t, strings.HasPrefix(fake.requests[0], "PUT /attachments/invoice/INV-1/a.pdf"), fake.requests[0])
	assert.Contains(t, fake.bodies[0], "hello")

	assert.Error(t, s.Upload(context.Background(), "", nil, ""))
}

func TestS3BlobStorage_Remove(t *testing.T) {
	s, fake := newFakeS3Storage(t)

	require.NoError(t, s.Remove(context.Background(), nil))
	assert.Empty(t, fake.requests)

	require.NoError(t, s.Remove(context.Background(), []string{"a/1.pdf", "a/2.pdf"}))
	require.Len(t, fake.requests, 1)
	assert.True(t, strings.HasPrefix(fake.requests[0], "POST /attachments"), fake.requests[0])
	assert.Contains(t, fake.bodies[0], "<Key>a/1.pdf</Key>")
	assert.Contains(t, fake.bodies[0], "<Key>a/2.pdf</Key>")
}

func TestMemoryBlobStorage(t *testing.T) {
	m := NewMemoryBlobStorage()
	ctx := context.Background()

	require.NoError(t, m.Upload(ctx, "b", []byte("2"), ""))
	require.NoError(t, m.Upload(ctx, "a", []byte("1"), ""))
	assert.Equal(t, []string{"a", "b"}, m.Paths())

	data, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), data)

	require.NoError(t, m.Remove(ctx, []string{"a", "missing"}))
	assert.Equal(t, []string{"b"}, m.Paths())
	assert.Error(t, m.Upload(ctx, "", nil, ""))
}
