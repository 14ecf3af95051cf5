package ocr

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"study-buddy/internal/logger"
)

const (
	defaultVisionModel = "openai/gpt-4o-mini"

	// Keeps the base64 payload small; syllabus text stays legible at this size.
	visionMaxEdge = 2048

	transcribePrompt = "Transcribe all text in this image exactly as written, preserving line breaks. " +
		"Output only the transcribed text with no commentary. If there is no text, output nothing."
)

// visionLLMService reads images with a vision-capable chat model behind an
// OpenAI-compatible endpoint.
type visionLLMService struct {
	client *openai.Client
	config Config
	log    *logger.Logger
}

// NewVisionLLM creates an OCR service backed by a multimodal chat model.
// Without an API key every call returns "".
func NewVisionLLM(config Config, log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	config = config.withDefaults()
	if config.VisionModel == "" {
		config.VisionModel = defaultVisionModel
	}

	s := &visionLLMService{
		config: config,
		log:    log.With("service", "ocr", "provider", ProviderLLM),
	}
	if config.VisionAPIKey == "" {
		s.log.Warn("vision OCR has no API key; image extraction disabled")
		return s
	}

	clientCfg := openai.DefaultConfig(config.VisionAPIKey)
	if config.VisionBaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(config.VisionBaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: config.Timeout}
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

func (s *visionLLMService) ExtractText(ctx context.Context, r io.Reader) string {
	if s.client == nil {
		return ""
	}

	img, err := grayscalePNG(r, s.config.MaxPixels, visionMaxEdge)
	if err != nil {
		s.log.Warn("image preprocessing failed", "error", err)
		return ""
	}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
	s.log.Debug("vision OCR request", "payload_kb", len(dataURI)/1024)

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI, Detail: openai.ImageURLDetailHigh},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: transcribePrompt,
					},
				},
			},
		},
		Temperature: 0,
	})
	if err != nil {
		s.log.Warn("vision OCR request failed", "error", err)
		return ""
	}
	if len(resp.Choices) == 0 {
		s.log.Warn("vision OCR returned no choices")
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func (s *visionLLMService) Close() error {
	return nil
}
