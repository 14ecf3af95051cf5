package ocr

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"study-buddy/internal/logger"
)

// tesseractService shells out to the tesseract CLI, feeding the image on
// stdin and reading text from stdout.
type tesseractService struct {
	config Config
	log    *logger.Logger
}

// NewTesseract creates a tesseract-backed OCR service. The binary is looked
// up on every call, so installing it later needs no restart.
func NewTesseract(config Config, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	return &tesseractService{
		config: config.withDefaults(),
		log:    log.With("service", "ocr", "provider", ProviderTesseract),
	}
}

func (s *tesseractService) ExtractText(ctx context.Context, r io.Reader) string {
	binary, err := exec.LookPath(s.config.TesseractPath)
	if err != nil {
		s.log.Warn("tesseract not available", "path", s.config.TesseractPath, "error", err)
		return ""
	}

	img, err := grayscalePNG(r, s.config.MaxPixels, 0)
	if err != nil {
		s.log.Warn("image preprocessing failed", "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "stdin", "stdout", "--psm", strconv.Itoa(s.config.PageSegMode))
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.log.Warn("tesseract failed", "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return ""
	}
	return strings.TrimSpace(stdout.String())
}

func (s *tesseractService) Close() error {
	return nil
}
