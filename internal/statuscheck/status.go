package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Checker aggregates readiness checks for the panel's status row.
type Checker struct {
	apiKey        string
	baseURL       string
	documentPath  string
	archiveBucket string
	httpClient    *http.Client
}

// Options configures the Checker.
type Options struct {
	APIKey        string
	BaseURL       string
	DocumentPath  string
	ArchiveBucket string
	HTTPClient    *http.Client
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Gemini   Status `json:"gemini"`
	Document Status `json:"document"`
	Archive  Status `json:"archive"`
}

// New creates a Checker with the provided options.
func New(opts Options) *Checker {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Checker{
		apiKey:        strings.TrimSpace(opts.APIKey),
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		documentPath:  opts.DocumentPath,
		archiveBucket: opts.ArchiveBucket,
		httpClient:    client,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Gemini:   c.checkGemini(ctx),
		Document: c.checkDocument(),
		Archive:  c.checkArchive(ctx),
	}
}

func (c *Checker) checkGemini(ctx context.Context) Status {
	if c.apiKey == "" {
		return Status{OK: false, Message: "API key missing"}
	}
	url := fmt.Sprintf("%s/v1beta/models?key=%s&pageSize=1", c.baseURL, c.apiKey)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Status{OK: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkDocument() Status {
	f, err := os.Open(c.documentPath)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	f.Close()
	return Status{OK: true, Message: "Readable"}
}

func (c *Checker) checkArchive(ctx context.Context) Status {
	if c.archiveBucket == "" {
		return Status{OK: true, Message: "Disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	cli := s3.NewFromConfig(cfg)
	if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.archiveBucket}); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
