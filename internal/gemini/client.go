package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Fixed MIME types for the two context kinds.
const (
	imageMIME = "image/png"
	pdfMIME   = "application/pdf"
)

// Options configures the client. The API key is read once at construction;
// timeouts bound each remote call.
type Options struct {
	APIKey         string
	BaseURL        string
	UploadBaseURL  string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// Client talks to the Gemini generateContent and file upload endpoints.
type Client struct {
	http           *http.Client
	apiKey         string
	baseURL        string
	uploadBaseURL  string
	requestTimeout time.Duration
	uploadTimeout  time.Duration
}

// New builds a Client. An empty API key is ErrMissingCredential, fatal to
// the caller at startup.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingCredential
	}
	if opts.BaseURL == "" { opts.BaseURL = "https://generativelanguage.googleapis.com" }
	if opts.UploadBaseURL == "" { opts.UploadBaseURL = opts.BaseURL }
	if opts.RequestTimeout <= 0 { opts.RequestTimeout = 120 * time.Second }
	if opts.UploadTimeout <= 0 { opts.UploadTimeout = 300 * time.Second }
	return &Client{
		http:           &http.Client{},
		apiKey:         opts.APIKey,
		baseURL:        opts.BaseURL,
		uploadBaseURL:  opts.UploadBaseURL,
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
	}, nil
}

// GenerateRequest describes one send. At most one of Images and FileURI may
// be set; History entries precede the current turn in order.
type GenerateRequest struct {
	Model           string
	MaxOutputTokens int
	SystemPrompt    string
	Query           string
	Images          []string // base64 PNG, one per page, page order
	FileURI         string   // uploaded-file reference
	History         []Turn
}

// Generate sends one chat-style request and returns the answer text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if len(req.Images) > 0 && req.FileURI != "" {
		return "", errors.New("gemini: image and file context are mutually exclusive")
	}

	var contents []content
	for _, h := range req.History {
		contents = append(contents, content{Role: h.Role, Parts: []part{{Text: h.Text}}})
	}

	var parts []part
	for _, img := range req.Images {
		parts = append(parts, part{InlineData: &inlineData{MIMEType: imageMIME, Data: img}})
	}
	if req.FileURI != "" {
		parts = append(parts, part{FileData: &fileData{MIMEType: pdfMIME, FileURI: req.FileURI}})
	}
	parts = append(parts, part{Text: req.Query})
	contents = append(contents, content{Role: RoleUser, Parts: parts})

	body := generateBody{
		GenerationConfig:  generationConfig{MaxOutputTokens: req.MaxOutputTokens},
		SystemInstruction: systemInstruction{Parts: part{Text: req.SystemPrompt}},
		Contents:          contents,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, req.Model, c.apiKey)
	cctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if resp.StatusCode >= 400 {
		return "", &TransportError{Status: resp.StatusCode, Body: string(raw)}
	}

	var result generateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", &MalformedResponseError{Reason: "invalid json", Body: string(raw)}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &MalformedResponseError{Reason: "missing candidates/content/parts", Body: string(raw)}
	}

	log.Debug().
		Str("model", req.Model).
		Int("history_turns", len(req.History)).
		Int("image_parts", len(req.Images)).
		Bool("file_ref", req.FileURI != "").
		Dur("took", time.Since(started)).
		Msg("generateContent ok")

	return result.Candidates[0].Content.Parts[0].Text, nil
}
