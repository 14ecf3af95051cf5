package playlists

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"study-buddy/internal/cache"
	"study-buddy/internal/logger"
	"study-buddy/internal/models"
)

const (
	defaultTimeout = 6 * time.Second
	minQueryChars  = 5
	querySuffix    = " full course playlist"
	playlistURL    = "https://www.youtube.com/playlist?list="
)

// TopicQuery shapes a topic name into a search query biased towards full
// course playlists.
func TopicQuery(topic string) string {
	return topic + querySuffix
}

// service implements the Searcher interface on top of the YouTube Data API.
type service struct {
	config Config
	yt     *youtube.Service
	cache  *cache.LRU[*models.PlaylistRef]
	log    *logger.Logger
}

// NewSearcher creates a playlist searcher. A missing API key is not an error:
// the searcher is created but every lookup returns nil.
func NewSearcher(ctx context.Context, config Config, log *logger.Logger) (Searcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	lru, err := cache.NewLRU[*models.PlaylistRef](config.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &service{
		config: config,
		cache:  lru,
		log:    log.With("service", "playlists"),
	}
	if config.APIKey == "" {
		s.log.Warn("YOUTUBE_API_KEY not set; playlist enrichment disabled")
		return s, nil
	}

	// With an explicit HTTP client the library ignores credential options, so
	// the key is sent per call as a query parameter.
	opts := []option.ClientOption{option.WithHTTPClient(config.HTTPClient)}
	if config.Endpoint != "" {
		endpoint := config.Endpoint
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	yt, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	s.yt = yt
	return s, nil
}

// Lookup implements Searcher.
func (s *service) Lookup(ctx context.Context, query string) *models.PlaylistRef {
	if s.yt == nil {
		return nil
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryChars {
		return nil
	}

	ref, err := s.cache.GetOrLoad(ctx, query, s.search)
	if err != nil {
		s.log.Warn("playlist lookup failed", "query", query, "error", err)
		return nil
	}
	return ref
}

// search performs one uncached search. A nil ref with a nil error means the
// API answered but had no usable match; that absence is cached. Errors are
// transport or quota failures and are not cached.
func (s *service) search(ctx context.Context, query string) (*models.PlaylistRef, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	call := s.yt.Search.List([]string{"snippet"}).
		Q(query).
		Type("playlist").
		MaxResults(1).
		Context(ctx)

	resp, err := call.Do(googleapi.QueryParameter("key", s.config.APIKey))
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil || len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	if item == nil || item.Id == nil || item.Snippet == nil {
		return nil, nil
	}
	playlistID := strings.TrimSpace(item.Id.PlaylistId)
	title := strings.TrimSpace(item.Snippet.Title)
	if playlistID == "" || title == "" {
		return nil, nil
	}

	return &models.PlaylistRef{
		Title: title,
		URL:   playlistURL + playlistID,
	}, nil
}

func classifyError(err error) *SearchError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		code := fmt.Sprintf("http_%d", apiErr.Code)
		message := "YouTube API request failed"
		switch apiErr.Code {
		case http.StatusBadRequest:
			message = "Bad request - invalid parameters"
		case http.StatusUnauthorized:
			message = "Unauthorized - invalid API key"
		case http.StatusForbidden:
			message = "Forbidden - quota exceeded or key restricted"
		case http.StatusTooManyRequests:
			message = "Rate limit exceeded"
		}
		return &SearchError{Code: code, Message: message, Details: apiErr.Message}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &SearchError{Code: "timeout", Message: "YouTube API request timed out", Details: err.Error()}
	}
	return &SearchError{Code: "network_error", Message: "Network request failed", Details: err.Error()}
}
