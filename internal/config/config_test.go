package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := fromViper(newViper())

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLMBaseURL)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 6*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 128, cfg.PlaylistCacheSize)
	assert.Equal(t, 20, cfg.PDFMaxPages)
	assert.Equal(t, 8000, cfg.PDFMaxChars)
	assert.Equal(t, OCRTesseract, cfg.OCRProvider)
	assert.Equal(t, 6, cfg.OCRPageSegMode)
	assert.Equal(t, 30*time.Second, cfg.OCRTimeout)
	assert.Empty(t, cfg.GCPCredentials)
	assert.Equal(t, int64(50_000_000), cfg.OCRMaxPixels)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("SEARCH_TIMEOUT", "2s")
	t.Setenv("PLAYLIST_CACHE_SIZE", "16")
	t.Setenv("PDF_BACKEND", "MuPDF")
	t.Setenv("GCP_CREDENTIALS_FILE", "/etc/vision.json")
	t.Setenv("OCR_MAX_PIXELS", "1000000")

	cfg := fromViper(newViper())

	assert.Equal(t, "sk-fallback", cfg.LLMKey)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, 2*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 16, cfg.PlaylistCacheSize)
	assert.Equal(t, PDFBackendMuPDF, cfg.PDFBackend)
	assert.Equal(t, "/etc/vision.json", cfg.GCPCredentials)
	assert.Equal(t, int64(1_000_000), cfg.OCRMaxPixels)
}

func TestOpenRouterKeyWins(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("OPENAI_API_KEY", "sk-other")

	cfg := fromViper(newViper())
	assert.Equal(t, "or-key", cfg.LLMKey)
}
