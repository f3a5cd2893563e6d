package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFileTwoPhase(t *testing.T) {
	payload := []byte("%PDF-1.4 fake document bytes")
	var startSeen, transferSeen bool

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		startSeen = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "resumable", r.Header.Get("X-Goog-Upload-Protocol"))
		assert.Equal(t, "start", r.Header.Get("X-Goog-Upload-Command"))
		assert.Equal(t, "28", r.Header.Get("X-Goog-Upload-Header-Content-Length"))
		assert.Equal(t, "application/pdf", r.Header.Get("X-Goog-Upload-Header-Content-Type"))
		w.Header().Set("X-Goog-Upload-Url", srv.URL+"/session/xyz")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/session/xyz", func(w http.ResponseWriter, r *http.Request) {
		transferSeen = true
		assert.Equal(t, "upload, finalize", r.Header.Get("X-Goog-Upload-Command"))
		assert.Equal(t, "0", r.Header.Get("X-Goog-Upload-Offset"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, payload, body)
		w.Write([]byte(`{"file":{"uri":"https://generativelanguage.googleapis.com/v1beta/files/xyz"}}`))
	})

	c, err := New(Options{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	uri, err := c.UploadFile(context.Background(), "paper.pdf", payload, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/files/xyz", uri)
	assert.True(t, startSeen)
	assert.True(t, transferSeen)
}

func TestUploadFileStartRejected(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("quota exceeded"))
	})
	_, err := c.UploadFile(context.Background(), "p.pdf", []byte("x"), "application/pdf")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestUploadFileMissingSessionURL(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK) // no x-goog-upload-url header
	})
	_, err := c.UploadFile(context.Background(), "p.pdf", []byte("x"), "application/pdf")
	require.Error(t, err)
	assert.True(t, IsMalformedResponse(err))
}

func TestUploadFileFinalizeMissingURI(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Goog-Upload-Url", srv.URL+"/session/1")
	})
	mux.HandleFunc("/session/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"file":{}}`))
	})

	c, err := New(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.UploadFile(context.Background(), "p.pdf", []byte("x"), "application/pdf")
	require.Error(t, err)
	assert.True(t, IsMalformedResponse(err))
}

func TestUploadFileFinalizeRejected(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Goog-Upload-Url", srv.URL+"/session/1")
	})
	mux.HandleFunc("/session/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken pipe", http.StatusBadGateway)
	})

	c, err := New(Options{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.UploadFile(context.Background(), "p.pdf", []byte("x"), "application/pdf")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}
