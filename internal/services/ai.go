package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultLLMBaseURL = "https://openrouter.ai/api/v1"
	DefaultLLMModel   = "openai/gpt-4o-mini"
	DefaultLLMTimeout = 30 * time.Second
)

// Generator turns syllabus text into the model's raw outline reply.
type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// AIConfig configures the OpenAI-compatible generator.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Referer and Title are sent as HTTP-Referer and X-Title, which
	// OpenRouter uses for app attribution.
	Referer string
	Title   string

	HTTPClient *http.Client
}

// AIService generates outlines through any OpenAI-compatible chat endpoint.
type AIService struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewAIService(cfg AIConfig) *AIService {
	if cfg.APIKey == "" {
		return &AIService{}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultLLMBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clientCfg.HTTPClient = &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: &headerTransport{base: base, headers: attributionHeaders(cfg.Referer, cfg.Title)},
	}

	return &AIService{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

// Generate sends the text with the outline prompt and returns the trimmed
// reply. It does not parse the reply.
func (s *AIService) Generate(ctx context.Context, text string) (string, error) {
	text = NormalizeText(text)
	if !TextLongEnough(text, MinGenerateChars) {
		return "", ErrEmptyInput
	}
	if s.disabled() {
		return "", ErrAIUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: outlineSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildOutlinePrompt(text),
			},
		},
		Temperature: outlineTemperature,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: request chat completion: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", ErrUpstream, errors.New("llm returned no choices"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: %w", ErrUpstream, errors.New("llm returned empty output"))
	}
	return content, nil
}

func attributionHeaders(referer, title string) map[string]string {
	headers := make(map[string]string, 2)
	if referer != "" {
		headers["HTTP-Referer"] = referer
	}
	if title != "" {
		headers["X-Title"] = title
	}
	return headers
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
