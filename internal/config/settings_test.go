package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadSettings(t *testing.T) {
	p := writeSettings(t, `{
		"model": "gemini-2.0-flash",
		"max_output_tokens": 2048,
		"history": true,
		"pdf_context": "pages",
		"system_prompt_with_pdf": "with",
		"system_prompt_without_pdf": "without",
		"font_size": 14
	}`)

	s, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", s.Model)
	assert.Equal(t, 2048, s.MaxOutputTokens)
	assert.True(t, s.History)
	assert.Equal(t, ContextPages, s.PDFContext)
	assert.Equal(t, 14, s.FontSize)
}

func TestLoadSettingsReloadsFreshContent(t *testing.T) {
	p := writeSettings(t, `{"model":"m1","max_output_tokens":1,"pdf_context":"none"}`)
	s, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, "m1", s.Model)

	// External edit takes effect on the next load.
	require.NoError(t, os.WriteFile(p, []byte(`{"model":"m2","max_output_tokens":9,"pdf_context":"upload"}`), 0o644))
	s, err = LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, "m2", s.Model)
	assert.Equal(t, ContextUpload, s.PDFContext)
}

func TestLoadSettingsErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{model:`},
		{"missing model", `{"max_output_tokens":10,"pdf_context":"none"}`},
		{"zero tokens", `{"model":"m","max_output_tokens":0,"pdf_context":"none"}`},
		{"bad strategy", `{"model":"m","max_output_tokens":10,"pdf_context":"whole_pdf"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSystemPromptSelection(t *testing.T) {
	s := Settings{SystemPromptWithPDF: "with", SystemPromptWithoutPDF: "without"}

	s.PDFContext = ContextNone
	assert.Equal(t, "without", s.SystemPrompt())
	s.PDFContext = ContextPages
	assert.Equal(t, "with", s.SystemPrompt())
	s.PDFContext = ContextUpload
	assert.Equal(t, "with", s.SystemPrompt())
}
