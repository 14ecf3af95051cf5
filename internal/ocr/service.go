package ocr

import (
	"context"
	"strings"

	"study-buddy/internal/logger"
)

// NewService creates the OCR service for config.Provider. If Google Vision
// cannot be initialised the tesseract provider is used instead.
func NewService(ctx context.Context, config Config, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case ProviderGoogle:
		svc, err := NewGoogleVision(ctx, config, log)
		if err == nil {
			return svc
		}
		log.Warn("google vision unavailable, falling back to tesseract", "error", err)
	case ProviderLLM:
		return NewVisionLLM(config, log)
	case "", ProviderTesseract:
	default:
		log.Warn("unknown OCR provider, using tesseract", "provider", config.Provider)
	}
	return NewTesseract(config, log)
}
