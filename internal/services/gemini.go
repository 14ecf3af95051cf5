package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration

	// BaseURL overrides the Gemini API endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiService generates outlines with Google's Gemini models.
type GeminiService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiService creates a Gemini generator. A missing key yields a
// disabled service whose Generate returns ErrAIUnavailable.
func NewGeminiService(ctx context.Context, cfg GeminiConfig) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return &GeminiService{}, nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiService{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

func (g *GeminiService) disabled() bool {
	return g.client == nil || g.model == ""
}

func (g *GeminiService) Generate(ctx context.Context, text string) (string, error) {
	text = NormalizeText(text)
	if !TextLongEnough(text, MinGenerateChars) {
		return "", ErrEmptyInput
	}
	if g.disabled() {
		return "", ErrAIUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(buildOutlinePrompt(text), genai.RoleUser),
	}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(outlineSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](outlineTemperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: request gemini: %w", ErrUpstream, err)
	}
	if res == nil || len(res.Candidates) == 0 {
		return "", fmt.Errorf("%w: %w", ErrUpstream, errors.New("gemini returned no candidates"))
	}

	content := strings.TrimSpace(res.Text())
	if content == "" {
		return "", fmt.Errorf("%w: %w", ErrUpstream, errors.New("gemini returned empty output"))
	}
	return content, nil
}
