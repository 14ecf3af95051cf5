package main

import (
	"context"
	"fmt"

	"study-buddy/internal/config"
	"study-buddy/internal/logger"
	"study-buddy/internal/ocr"
	"study-buddy/internal/playlists"
	"study-buddy/internal/services"
)

// app holds the wired pipeline shared by the serve and analyze commands.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	ocr      ocr.Service
	analysis *services.AnalysisService
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	searcher, err := playlists.NewSearcher(ctx, playlists.Config{
		APIKey:    cfg.YouTubeKey,
		Timeout:   cfg.SearchTimeout,
		CacheSize: cfg.PlaylistCacheSize,
	}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("create playlist searcher: %w", err)
	}

	pdf := services.NewPDFService(cfg.PDFBackend, cfg.PDFMaxPages, cfg.PDFMaxChars, log)
	images := ocr.NewService(ctx, ocr.Config{
		Provider:           cfg.OCRProvider,
		TesseractPath:      cfg.TesseractPath,
		PageSegMode:        cfg.OCRPageSegMode,
		Timeout:            cfg.OCRTimeout,
		MaxPixels:          cfg.OCRMaxPixels,
		GCPCredentialsFile: cfg.GCPCredentials,
		VisionAPIKey:       cfg.LLMKey,
		VisionBaseURL:      cfg.LLMBaseURL,
		VisionModel:        cfg.OCRVisionModel,
	}, log)

	analysis := services.NewAnalysisService(generator, searcher, pdf, images, cfg.EnrichConcurrency, log)

	log.Info("pipeline configured",
		"llm_provider", cfg.LLMProvider,
		"pdf_backend", cfg.PDFBackend,
		"ocr_provider", cfg.OCRProvider,
		"playlists", cfg.YouTubeKey != "",
	)

	return &app{cfg: cfg, log: log, ocr: images, analysis: analysis}, nil
}

func newGenerator(ctx context.Context, cfg config.Config) (services.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiService(ctx, services.GeminiConfig{
			APIKey:  cfg.GeminiKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return gemini, nil
	case config.ProviderOpenAI, "":
		return services.NewAIService(services.AIConfig{
			APIKey:  cfg.LLMKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
			Referer: cfg.AppReferer,
			Title:   cfg.AppTitle,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)", cfg.LLMProvider, config.ProviderOpenAI, config.ProviderGemini)
	}
}

func (a *app) Close() {
	if a.ocr != nil {
		if err := a.ocr.Close(); err != nil {
			a.log.Warn("close ocr service", "error", err)
		}
	}
	a.log.Sync()
}
