package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCloudinary(t *testing.T, baseURL string) *CloudinaryStorage {
	t.Helper()
	s, err := NewCloudinaryStorage(CloudinaryConfig{
		CloudName: "demo",
		APIKey:    "test-key",
		APISecret: "test-secret",
	})
	require.NoError(t, err)
	s.baseURL = baseURL
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestNewCloudinaryStorageRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  CloudinaryConfig
	}{
		{"missing cloud name", CloudinaryConfig{APIKey: "k", APISecret: "s"}},
		{"missing api key", CloudinaryConfig{CloudName: "demo", APISecret: "s"}},
		{"missing api secret", CloudinaryConfig{CloudName: "demo", APIKey: "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCloudinaryStorage(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestCloudinaryStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auto/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "tax-docs", r.FormValue("folder"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.Equal(t, "test-key", r.FormValue("api_key"))
		// The signature covers the signed params only, not the api key.
		assert.Equal(t, signParams(map[string]string{
			"folder":    "tax-docs",
			"timestamp": "1700000000",
		}, "test-secret"), r.FormValue("signature"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "invoice.pdf", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://res.cloudinary.com/demo/invoice.pdf",
			"public_id":  "tax-docs/invoice",
		})
	}))
	defer srv.Close()

	s := newTestCloudinary(t, srv.URL)
	stored, err := s.Store(context.Background(), []byte("%PDF-1.4"), "invoice.pdf", "tax-docs")
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/invoice.pdf", stored.URL)
	assert.Equal(t, "tax-docs/invoice", stored.ProviderID)
}

func TestCloudinaryStoreReportsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "Invalid signature"},
		})
	}))
	defer srv.Close()

	s := newTestCloudinary(t, srv.URL)
	_, err := s.Store(context.Background(), []byte("%PDF-1.4"), "invoice.pdf", "tax-docs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid signature")
}

func TestCloudinaryDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tax-docs/invoice", r.FormValue("public_id"))
		assert.Equal(t, "test-key", r.FormValue("api_key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	}))
	defer srv.Close()

	s := newTestCloudinary(t, srv.URL)
	assert.NoError(t, s.Delete(context.Background(), "tax-docs/invoice"))
}

func TestCloudinaryDeleteReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestCloudinary(t, srv.URL)
	assert.Error(t, s.Delete(context.Background(), "tax-docs/missing"))
}

func TestSignParams(t *testing.T) {
	params := map[string]string{
		"timestamp": "1700000000",
		"folder":    "tax-docs",
	}

	first := signParams(params, "test-secret")
	second := signParams(params, "test-secret")
	assert.Equal(t, first, second, "signature is deterministic")
	assert.Regexp(t, `^[0-9a-f]{40}$`, first, "SHA-1 hex digest")

	assert.NotEqual(t, first, signParams(params, "other-secret"))
	assert.NotEqual(t, first, signParams(map[string]string{
		"timestamp": "1700000001",
		"folder":    "tax-docs",
	}, "test-secret"))
}
