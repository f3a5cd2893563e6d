package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/readercompanion/internal/archive"
	"github.com/local/readercompanion/internal/config"
	"github.com/local/readercompanion/internal/gemini"
	"github.com/local/readercompanion/internal/orchestrator"
	"github.com/local/readercompanion/internal/pdf"
	"github.com/local/readercompanion/internal/statuscheck"
	"github.com/local/readercompanion/internal/uistate"
)

type stubClient struct {
	answer string
	err    error
}

func (c *stubClient) Generate(context.Context, gemini.GenerateRequest) (string, error) {
	return c.answer, c.err
}

func (c *stubClient) UploadFile(context.Context, string, []byte, string) (string, error) {
	return "files/u", nil
}

type stubExtractor struct{}

func (stubExtractor) RenderPages(string) ([]pdf.PageImage, error) { return nil, nil }

func newTestServer(t *testing.T, client *stubClient) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(docPath, []byte("%PDF-1.4 test"), 0o644))

	settings := func() (config.Settings, error) {
		return config.Settings{
			Model:           "gemini-2.0-flash",
			MaxOutputTokens: 64,
			PDFContext:      config.ContextNone,
			FontSize:        16,
		}, nil
	}
	orch := orchestrator.New(orchestrator.Dependencies{
		Client:    client,
		Extractor: stubExtractor{},
		Settings:  settings,
	}, orchestrator.Document{Path: docPath, Name: "paper.pdf", MIME: "application/pdf"})

	archiver, err := archive.New(context.Background(), config.ArchiveConfig{Dir: filepath.Join(dir, "archive")})
	require.NoError(t, err)

	return New(Options{
		Orchestrator: orch,
		UIState:      uistate.Open(filepath.Join(dir, "uistate.json")),
		Archiver:     archiver,
		Checker:      statuscheck.New(statuscheck.Options{DocumentPath: docPath}),
		Settings:     settings,
	}), docPath
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersPanel(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})
	rec := doRequest(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "paper.pdf")
	assert.Contains(t, rec.Body.String(), "font-size: 16px")
}

func TestDocServedInline(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})
	rec := doRequest(t, s, http.MethodGet, "/doc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())
}

func TestAskReturnsAnswer(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "chapter three covers gradients"})
	rec := doRequest(t, s, http.MethodPost, "/ask", `{"query":"what is chapter 3 about?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chapter three covers gradients", resp.Answer)
	assert.Empty(t, resp.Error)
}

func TestAskFailureRendersErrorText(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{err: &gemini.TransportError{Status: 503, Body: "overloaded"}})
	rec := doRequest(t, s, http.MethodPost, "/ask", `{"query":"q"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Answer)
	assert.Contains(t, resp.Error, "503")
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})
	rec := doRequest(t, s, http.MethodPost, "/ask", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})
	rec := doRequest(t, s, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Turns []gemini.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Turns)
}

func TestUIStateGetPut(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})

	rec := doRequest(t, s, http.MethodPut, "/uistate", `{"window_width":1000,"window_height":800,"split_ratio":0.4,"sidebar_visible":true,"last_page":7}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/uistate", "")
	var st uistate.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1000, st.WindowWidth)
	assert.Equal(t, 7, st.LastPage)
}

func TestTranscriptSaveNothingToSave(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})
	rec := doRequest(t, s, http.MethodPost, "/transcript/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nothing to save")
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &stubClient{answer: "ok"})
	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
