package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// UploadFile performs the two-phase resumable upload protocol and returns
// the file reference URI. No retries: a failed attempt surfaces immediately
// and the caller decides whether to re-invoke.
func (c *Client) UploadFile(ctx context.Context, name string, data []byte, mime string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	// Phase 1: announce upload intent, receive the session upload URL.
	meta, _ := json.Marshal(map[string]any{"file": map[string]any{"display_name": name}})
	startURL := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.uploadBaseURL, c.apiKey)
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, startURL, bytes.NewReader(meta))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", fmt.Sprintf("%d", len(data)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mime)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &TransportError{Status: resp.StatusCode, Body: string(body)}
	}
	sessionURL := resp.Header.Get("x-goog-upload-url")
	if sessionURL == "" {
		return "", &MalformedResponseError{Reason: "missing x-goog-upload-url header", Body: string(body)}
	}

	// Phase 2: transfer the full payload and finalize in one command.
	started := time.Now()
	req, err = http.NewRequestWithContext(cctx, http.MethodPost, sessionURL, bytes.NewReader(data))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err = c.http.Do(req)
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

	var result uploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", &MalformedResponseError{Reason: "invalid json", Body: string(raw)}
	}
	if result.File.URI == "" {
		return "", &MalformedResponseError{Reason: "missing file.uri", Body: string(raw)}
	}

	log.Info().Str("name", name).Int("bytes", len(data)).Dur("took", time.Since(started)).Msg("file uploaded")
	return result.File.URI, nil
}
