package playlists

import (
	"context"
	"net/http"
	"time"

	"study-buddy/internal/models"
)

// Searcher finds a video playlist for a study topic.
type Searcher interface {
	// Lookup never fails: any problem (missing key, short query, quota or
	// network error, empty result) yields nil.
	Lookup(ctx context.Context, query string) *models.PlaylistRef
}

// Config holds configuration for the YouTube playlist searcher.
type Config struct {
	APIKey string

	// Endpoint overrides the YouTube Data API base URL (tests, proxies).
	Endpoint string

	// Per-request timeout (default: 6s)
	Timeout time.Duration

	// Number of cached queries (default: 128)
	CacheSize int

	HTTPClient *http.Client
}

// SearchError represents an error that occurred during search. It never
// leaves the package; Lookup logs it and degrades to nil.
type SearchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *SearchError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
