package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	OCRTesseract = "tesseract"
	OCRGoogle    = "gcp"
	OCRVisionLLM = "llm"

	PDFBackendLedongthuc = "ledongthuc"
	PDFBackendMuPDF      = "mupdf"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port      int
	LogMode   string
	StaticDir string

	LLMProvider string
	LLMKey      string
	LLMBaseURL  string
	LLMModel    string
	GeminiKey   string
	GeminiModel string
	LLMTimeout  time.Duration
	AppReferer  string
	AppTitle    string

	YouTubeKey        string
	SearchTimeout     time.Duration
	PlaylistCacheSize int
	EnrichConcurrency int

	PDFBackend  string
	PDFMaxPages int
	PDFMaxChars int

	OCRProvider    string
	TesseractPath  string
	OCRPageSegMode int
	OCRTimeout     time.Duration
	OCRVisionModel string
	OCRMaxPixels   int64
	GCPCredentials string

	MaxUploadBytes int64
	JobRetention   time.Duration
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("STATIC_DIR", "./static")
	v.SetDefault("LLM_PROVIDER", ProviderOpenAI)
	v.SetDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("LLM_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("LLM_TIMEOUT", "30s")
	v.SetDefault("APP_REFERER", "http://localhost")
	v.SetDefault("APP_TITLE", "Study Buddy")
	v.SetDefault("SEARCH_TIMEOUT", "6s")
	v.SetDefault("PLAYLIST_CACHE_SIZE", 128)
	v.SetDefault("ENRICH_CONCURRENCY", 4)
	v.SetDefault("PDF_BACKEND", PDFBackendLedongthuc)
	v.SetDefault("PDF_MAX_PAGES", 20)
	v.SetDefault("PDF_MAX_CHARS", 8000)
	v.SetDefault("OCR_PROVIDER", OCRTesseract)
	v.SetDefault("TESSERACT_PATH", "tesseract")
	v.SetDefault("OCR_PSM", 6)
	v.SetDefault("OCR_TIMEOUT", "30s")
	v.SetDefault("OCR_VISION_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("OCR_MAX_PIXELS", 50_000_000)
	v.SetDefault("MAX_UPLOAD_BYTES", 16<<20)
	v.SetDefault("JOB_RETENTION", "1h")
	return v
}

func fromViper(v *viper.Viper) Config {
	// OpenRouter is the default upstream; a plain OpenAI key works against any
	// OpenAI-compatible base URL.
	llmKey := v.GetString("OPENROUTER_API_KEY")
	if llmKey == "" {
		llmKey = v.GetString("OPENAI_API_KEY")
	}

	return Config{
		Port:      v.GetInt("PORT"),
		LogMode:   v.GetString("LOG_MODE"),
		StaticDir: v.GetString("STATIC_DIR"),

		LLMProvider: strings.ToLower(v.GetString("LLM_PROVIDER")),
		LLMKey:      llmKey,
		LLMBaseURL:  v.GetString("LLM_BASE_URL"),
		LLMModel:    v.GetString("LLM_MODEL"),
		GeminiKey:   v.GetString("GEMINI_API_KEY"),
		GeminiModel: v.GetString("GEMINI_MODEL"),
		LLMTimeout:  v.GetDuration("LLM_TIMEOUT"),
		AppReferer:  v.GetString("APP_REFERER"),
		AppTitle:    v.GetString("APP_TITLE"),

		YouTubeKey:        v.GetString("YOUTUBE_API_KEY"),
		SearchTimeout:     v.GetDuration("SEARCH_TIMEOUT"),
		PlaylistCacheSize: v.GetInt("PLAYLIST_CACHE_SIZE"),
		EnrichConcurrency: v.GetInt("ENRICH_CONCURRENCY"),

		PDFBackend:  strings.ToLower(v.GetString("PDF_BACKEND")),
		PDFMaxPages: v.GetInt("PDF_MAX_PAGES"),
		PDFMaxChars: v.GetInt("PDF_MAX_CHARS"),

		OCRProvider:    strings.ToLower(v.GetString("OCR_PROVIDER")),
		TesseractPath:  v.GetString("TESSERACT_PATH"),
		OCRPageSegMode: v.GetInt("OCR_PSM"),
		OCRTimeout:     v.GetDuration("OCR_TIMEOUT"),
		OCRVisionModel: v.GetString("OCR_VISION_MODEL"),
		OCRMaxPixels:   v.GetInt64("OCR_MAX_PIXELS"),
		GCPCredentials: v.GetString("GCP_CREDENTIALS_FILE"),

		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		JobRetention:   v.GetDuration("JOB_RETENTION"),
	}
}
