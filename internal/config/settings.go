package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ContextStrategy controls what document material accompanies a query.
type ContextStrategy string

const (
	ContextNone   ContextStrategy = "none"   // query only
	ContextPages  ContextStrategy = "pages"  // one inline PNG per page
	ContextUpload ContextStrategy = "upload" // whole file uploaded once, referenced by URI
)

// Settings is the live-editable per-send document. It is re-read from disk on
// every send so external edits take effect on the next query; do not cache it.
type Settings struct {
	Model                  string          `json:"model"`
	MaxOutputTokens        int             `json:"max_output_tokens"`
	History                bool            `json:"history"`
	PDFContext             ContextStrategy `json:"pdf_context"`
	SystemPromptWithPDF    string          `json:"system_prompt_with_pdf"`
	SystemPromptWithoutPDF string          `json:"system_prompt_without_pdf"`
	FontSize               int             `json:"font_size"`
}

// SystemPrompt returns the prompt matching the active context strategy: the
// with-PDF prompt whenever image or file context is attached.
func (s Settings) SystemPrompt() string {
	if s.PDFContext == ContextPages || s.PDFContext == ContextUpload {
		return s.SystemPromptWithPDF
	}
	return s.SystemPromptWithoutPDF
}

// LoadSettings reads and validates the settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the fields a send depends on.
func (s Settings) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("settings: model must not be empty")
	}
	if s.MaxOutputTokens <= 0 {
		return fmt.Errorf("settings: max_output_tokens must be positive, got %d", s.MaxOutputTokens)
	}
	switch s.PDFContext {
	case ContextNone, ContextPages, ContextUpload:
	default:
		return fmt.Errorf("settings: unknown pdf_context %q (want none, pages or upload)", s.PDFContext)
	}
	return nil
}
