package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// GeminiConfig defines the remote generation/upload endpoints and limits.
type GeminiConfig struct {
	BaseURL        string
	UploadBaseURL  string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

// ServerConfig defines the local panel HTTP server.
type ServerConfig struct {
	Listen          string
	ShutdownTimeout time.Duration
}

// ArchiveConfig controls transcript export.
type ArchiveConfig struct {
	Dir           string
	S3Bucket      string
	S3Prefix      string
	Password      string
	SaveOnExit    bool
}

// Config is the top-level ambient configuration. The per-send settings
// document (model, prompts, context strategy) lives in settings.go and is
// re-read from disk on every send instead.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Gemini  GeminiConfig
	Server  ServerConfig
	Archive ArchiveConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/readercompanion.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "50"), 50),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "5"), 5),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_readercompanion",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Gemini = GeminiConfig{
		BaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		UploadBaseURL:  getEnv("GEMINI_UPLOAD_BASE_URL", ""),
		RequestTimeout: parseDuration(getEnv("GEMINI_REQUEST_TIMEOUT", "120s"), 120*time.Second),
		UploadTimeout:  parseDuration(getEnv("GEMINI_UPLOAD_TIMEOUT", "300s"), 300*time.Second),
	}
	if cfg.Gemini.UploadBaseURL == "" { cfg.Gemini.UploadBaseURL = cfg.Gemini.BaseURL }

	cfg.Server = ServerConfig{
		Listen:          getEnv("LISTEN", "127.0.0.1:8080"),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
	}

	cfg.Archive = ArchiveConfig{
		Dir:        getEnv("TRANSCRIPT_DIR", "transcripts"),
		S3Bucket:   getEnv("TRANSCRIPT_S3_BUCKET", ""),
		S3Prefix:   getEnv("TRANSCRIPT_S3_PREFIX", "transcripts"),
		Password:   getEnv("TRANSCRIPT_PASSWORD", ""),
		SaveOnExit: parseBool(getEnv("TRANSCRIPT_SAVE_ON_EXIT", "0")),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" { return def }
	if n, err := strconv.Atoi(s); err == nil { return n }
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" { return def }
	if d, err := time.ParseDuration(s); err == nil { return d }
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" { return "true" }
	return "false"
}
