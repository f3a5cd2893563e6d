package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/readercompanion/internal/config"
	"github.com/local/readercompanion/internal/gemini"
)

// Transcript is the exportable record of one reading session.
type Transcript struct {
	SessionID string        `json:"session_id"`
	Document  string        `json:"document"`
	Model     string        `json:"model,omitempty"`
	SavedAt   time.Time     `json:"saved_at"`
	Turns     []gemini.Turn `json:"turns"`
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes session transcripts to a local directory and, when a
// bucket is configured, mirrors them to S3. A non-empty password turns on
// transcript encryption for both destinations.
type Archiver struct {
	dir      string
	bucket   string
	prefix   string
	password string
	s3       objectPutter
}

// New builds an Archiver from config. The AWS credential chain is only
// touched when a bucket is configured.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	a := &Archiver{
		dir:      cfg.Dir,
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
		password: cfg.Password,
	}
	if cfg.S3Bucket != "" {
		awsCfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		a.s3 = s3.NewFromConfig(awsCfg)
	}
	return a, nil
}

// Save writes the transcript and returns the local file path. An empty
// transcript is skipped, not an error.
func (a *Archiver) Save(ctx context.Context, tr Transcript) (string, error) {
	if len(tr.Turns) == 0 {
		return "", nil
	}
	if tr.SavedAt.IsZero() {
		tr.SavedAt = time.Now().UTC()
	}

	raw, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}

	name := fmt.Sprintf("transcript-%s-%s.json", tr.SavedAt.Format("20060102-150405"), tr.SessionID)
	if a.password != "" {
		raw, err = Encrypt(raw, a.password)
		if err != nil {
			return "", fmt.Errorf("encrypt transcript: %w", err)
		}
		name += ".enc"
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	local := filepath.Join(a.dir, name)
	if err := os.WriteFile(local, raw, 0o600); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	log.Info().Str("path", local).Int("turns", len(tr.Turns)).Bool("encrypted", a.password != "").Msg("transcript saved")

	if a.s3 != nil {
		key := path.Join(a.prefix, name)
		_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(raw),
			Metadata: map[string]string{
				"session-id": tr.SessionID,
				"document":   tr.Document,
				"encrypted":  fmt.Sprintf("%t", a.password != ""),
			},
		})
		if err != nil {
			// Local copy exists; S3 mirroring is best-effort.
			log.Warn().Err(err).Str("bucket", a.bucket).Str("key", key).Msg("transcript s3 upload failed")
			return local, nil
		}
		log.Info().Str("bucket", a.bucket).Str("key", key).Msg("transcript mirrored to s3")
	}
	return local, nil
}

// Load reads a transcript file back, decrypting when needed.
func (a *Archiver) Load(path string) (Transcript, error) {
	var tr Transcript
	raw, err := os.ReadFile(path)
	if err != nil {
		return tr, fmt.Errorf("read transcript: %w", err)
	}
	if filepath.Ext(path) == ".enc" {
		raw, err = Decrypt(raw, a.password)
		if err != nil {
			return tr, err
		}
	}
	if err := json.Unmarshal(raw, &tr); err != nil {
		return tr, fmt.Errorf("decode transcript: %w", err)
	}
	return tr, nil
}
