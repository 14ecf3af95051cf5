package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"study-buddy/internal/logger"
	"study-buddy/internal/models"
	"study-buddy/internal/playlists"
)

const DefaultEnrichConcurrency = 4

// ProgressCallback is called during analysis to report progress. During
// enrichment it may be called from several goroutines, one call at a time.
type ProgressCallback func(step, message string, current, total int)

// PDFExtractor produces bounded plain text from a PDF. It never fails; ""
// means nothing usable was found.
type PDFExtractor interface {
	ExtractText(r io.ReaderAt, size int64) string
}

// ImageExtractor produces plain text from an image via OCR. It never fails.
type ImageExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) string
}

type SourceKind string

const (
	SourceText  SourceKind = "text"
	SourcePDF   SourceKind = "pdf"
	SourceImage SourceKind = "image"
)

// Source is one syllabus input. Text is used for SourceText; Reader and Size
// describe the uploaded file for SourcePDF and SourceImage.
type Source struct {
	Kind   SourceKind
	Text   string
	Reader io.ReaderAt
	Size   int64
}

// AnalysisService runs the syllabus pipeline: acquire text, generate,
// repair, validate and optionally attach playlists.
type AnalysisService struct {
	generator   Generator
	playlists   playlists.Searcher
	pdf         PDFExtractor
	images      ImageExtractor
	concurrency int
	log         *logger.Logger
}

func NewAnalysisService(
	generator Generator,
	searcher playlists.Searcher,
	pdf PDFExtractor,
	images ImageExtractor,
	concurrency int,
	log *logger.Logger,
) *AnalysisService {
	if concurrency <= 0 {
		concurrency = DefaultEnrichConcurrency
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisService{
		generator:   generator,
		playlists:   searcher,
		pdf:         pdf,
		images:      images,
		concurrency: concurrency,
		log:         log.With("service", "analysis"),
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, text string, includePlaylists bool) (*models.SyllabusOutline, error) {
	return s.AnalyzeWithProgress(ctx, text, includePlaylists, nil)
}

func (s *AnalysisService) AnalyzeWithProgress(ctx context.Context, text string, includePlaylists bool, progress ProgressCallback) (*models.SyllabusOutline, error) {
	text = NormalizeText(text)
	if !TextLongEnough(text, MinPipelineChars) {
		return nil, ErrInputTooShort
	}
	if s.generator == nil {
		return nil, ErrAIUnavailable
	}

	started := time.Now()
	if progress != nil {
		progress("generate", "Generating study outline", 10, 100)
	}

	raw, err := s.generator.Generate(ctx, text)
	if err != nil {
		s.log.Error("outline generation failed", "error", err)
		return nil, err
	}

	if progress != nil {
		progress("repair", "Parsing AI response", 60, 100)
	}

	outline, err := RepairOutline(raw)
	if err != nil {
		s.log.Warn("outline repair failed", "error", err, "raw", truncateRunes(raw, 500))
		return nil, err
	}
	for _, warning := range ValidateOutline(outline, MinTopicsPerCategory) {
		s.log.Warn("outline validation", "subject", outline.Subject, "warning", warning)
	}

	if includePlaylists {
		if progress != nil {
			progress("enrich", "Finding playlists", 70, 100)
		}
		s.enrich(ctx, outline, progress)
	}

	if progress != nil {
		progress("complete", "Analysis complete", 100, 100)
	}

	s.log.Info("outline ready",
		"subject", outline.Subject,
		"units", len(outline.Units),
		"playlists", includePlaylists,
		"duration", time.Since(started),
	)
	return outline, nil
}

// AnalyzeSource acquires text from src and runs the pipeline on it.
func (s *AnalysisService) AnalyzeSource(ctx context.Context, src Source, includePlaylists bool, progress ProgressCallback) (*models.SyllabusOutline, error) {
	if progress != nil {
		progress("extract", "Extracting text", 0, 100)
	}
	text, err := s.AcquireText(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeWithProgress(ctx, text, includePlaylists, progress)
}

// AcquireText turns a Source into plain text. Extraction problems yield ""
// rather than an error; only an unknown kind fails.
func (s *AnalysisService) AcquireText(ctx context.Context, src Source) (string, error) {
	switch src.Kind {
	case SourceText:
		return src.Text, nil
	case SourcePDF:
		if s.pdf == nil || src.Reader == nil {
			return "", nil
		}
		return s.pdf.ExtractText(src.Reader, src.Size), nil
	case SourceImage:
		if s.images == nil || src.Reader == nil {
			return "", nil
		}
		return s.images.ExtractText(ctx, io.NewSectionReader(src.Reader, 0, src.Size)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, src.Kind)
	}
}

// enrich attaches a playlist to every very_important and important topic.
// Lookups run concurrently but each result is written back to its own slot,
// so topic order is unchanged. optional topics stay bare strings.
func (s *AnalysisService) enrich(ctx context.Context, outline *models.SyllabusOutline, progress ProgressCallback) {
	var targets []*models.Topic
	for i := range outline.Units {
		unit := &outline.Units[i]
		for j := range unit.VeryImportant {
			targets = append(targets, &unit.VeryImportant[j])
		}
		for j := range unit.Important {
			targets = append(targets, &unit.Important[j])
		}
	}
	if len(targets) == 0 {
		return
	}

	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, topic := range targets {
		g.Go(func() error {
			topic.Enriched = true
			if s.playlists != nil && strings.TrimSpace(topic.Name) != "" {
				topic.Playlist = s.playlists.Lookup(ctx, playlists.TopicQuery(topic.Name))
			}

			if progress != nil {
				mu.Lock()
				done++
				pct := 70 + (29 * done / len(targets))
				progress("enrich", fmt.Sprintf("Found playlists for %d of %d topics", done, len(targets)), pct, 100)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	found := 0
	for _, topic := range targets {
		if topic.Playlist != nil {
			found++
		}
	}
	s.log.Debug("enrichment finished", "topics", len(targets), "found", found)
}
