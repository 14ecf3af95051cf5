package services

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"study-buddy/internal/logger"
)

const (
	DefaultPDFMaxPages = 20
	DefaultPDFMaxChars = 8000
)

// pageVisitor receives the raw text of each page in order and returns false
// to stop reading.
type pageVisitor func(text string) bool

// pdfBackend walks the pages of a PDF.
type pdfBackend func(r io.ReaderAt, size int64, visit pageVisitor) error

// PDFService extracts bounded plain text from uploaded PDFs.
type PDFService struct {
	backend  pdfBackend
	name     string
	maxPages int
	maxChars int
	log      *logger.Logger
}

// NewPDFService returns a PDF extractor. backend is "ledongthuc" (default) or
// "mupdf"; non-positive limits fall back to the defaults.
func NewPDFService(backend string, maxPages, maxChars int, log *logger.Logger) *PDFService {
	if maxPages <= 0 {
		maxPages = DefaultPDFMaxPages
	}
	if maxChars <= 0 {
		maxChars = DefaultPDFMaxChars
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &PDFService{
		backend:  readLedongthuc,
		name:     "ledongthuc",
		maxPages: maxPages,
		maxChars: maxChars,
		log:      log.With("service", "pdf"),
	}
	if strings.EqualFold(backend, "mupdf") {
		s.backend = readMuPDF
		s.name = "mupdf"
	}
	return s
}

// ExtractText reads at most maxPages pages and stops once more than maxChars
// characters have been collected. Pages are trimmed, stripped of NUL bytes and
// joined with newlines. Any failure, including a panic inside the parser,
// yields "".
func (s *PDFService) ExtractText(r io.ReaderAt, size int64) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Warn("pdf parser panicked", "backend", s.name, "panic", fmt.Sprint(rec))
			text = ""
		}
	}()

	if r == nil || size <= 0 {
		return ""
	}

	var (
		chunks []string
		total  int
		pages  int
	)
	err := s.backend(r, size, func(raw string) bool {
		if pages >= s.maxPages {
			return false
		}
		pages++
		if cleaned := NormalizeText(raw); cleaned != "" {
			chunks = append(chunks, cleaned)
			total += utf8.RuneCountInString(cleaned)
		}
		return total <= s.maxChars
	})
	if err != nil {
		s.log.Warn("pdf extraction failed", "backend", s.name, "error", err)
		return ""
	}

	return truncateRunes(strings.TrimSpace(strings.Join(chunks, "\n")), s.maxChars)
}

func readLedongthuc(r io.ReaderAt, size int64, visit pageVisitor) error {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			// Missing page objects still count toward the page limit.
			if !visit("") {
				break
			}
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("read page %d: %w", i, err)
		}
		if !visit(content) {
			break
		}
	}
	return nil
}
