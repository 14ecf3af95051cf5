// Package ocr turns photographed syllabus pages into plain text.
package ocr

import (
	"context"
	"io"
	"time"
)

const (
	ProviderTesseract = "tesseract"
	ProviderGoogle    = "gcp"
	ProviderLLM       = "llm"
)

// Service extracts text from an image. ExtractText never fails: an
// undecodable image, a missing engine or any OCR error yields "".
type Service interface {
	ExtractText(ctx context.Context, r io.Reader) string
	Close() error
}

// Config holds configuration for OCR services
type Config struct {
	// Provider is "tesseract" (default), "gcp" or "llm".
	Provider string

	// Tesseract binary name or path (default: tesseract)
	TesseractPath string

	// Tesseract page segmentation mode (default: 6, a single uniform block
	// of text, which suits printed syllabi)
	PageSegMode int

	// Per-image timeout (default: 30s)
	Timeout time.Duration

	// Images whose header declares more pixels are rejected before decoding
	// (default: 50 megapixels).
	MaxPixels int64

	// Service account file for Google Vision; empty uses application
	// default credentials.
	GCPCredentialsFile string

	// OpenAI-compatible endpoint used by the "llm" provider.
	VisionAPIKey  string
	VisionBaseURL string
	VisionModel   string
}

const (
	defaultTesseractPath = "tesseract"
	defaultPageSegMode   = 6
	defaultTimeout       = 30 * time.Second
	DefaultMaxPixels     = 50_000_000
)

func (c Config) withDefaults() Config {
	if c.TesseractPath == "" {
		c.TesseractPath = defaultTesseractPath
	}
	if c.PageSegMode <= 0 {
		c.PageSegMode = defaultPageSegMode
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxPixels <= 0 {
		c.MaxPixels = DefaultMaxPixels
	}
	return c
}
