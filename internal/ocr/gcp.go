package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"study-buddy/internal/logger"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

type gcpService struct {
	annotate annotateFunc
	closer   io.Closer
	config   Config
	log      *logger.Logger
}

// NewGoogleVision creates an OCR service backed by Google Cloud Vision
// DOCUMENT_TEXT_DETECTION.
func NewGoogleVision(ctx context.Context, config Config, log *logger.Logger) (Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	config = config.withDefaults()

	var opts []option.ClientOption
	if config.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.GCPCredentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	annotate := func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return client.BatchAnnotateImages(ctx, req)
	}
	return newGCPService(annotate, client, config, log), nil
}

func newGCPService(annotate annotateFunc, closer io.Closer, config Config, log *logger.Logger) *gcpService {
	if log == nil {
		log = logger.Nop()
	}
	return &gcpService{
		annotate: annotate,
		closer:   closer,
		config:   config.withDefaults(),
		log:      log.With("service", "ocr", "provider", ProviderGoogle),
	}
}

func (s *gcpService) ExtractText(ctx context.Context, r io.Reader) string {
	img, err := grayscalePNG(r, s.config.MaxPixels, 0)
	if err != nil {
		s.log.Warn("image preprocessing failed", "error", err)
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	resp, err := s.annotate(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		s.log.Warn("vision BatchAnnotateImages failed", "error", err)
		return ""
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return ""
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		s.log.Warn("vision annotate error", "error", r0.Error.Message)
		return ""
	}
	return strings.TrimSpace(r0.GetFullTextAnnotation().GetText())
}

func (s *gcpService) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
