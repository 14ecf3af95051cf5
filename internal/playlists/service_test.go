package playlists

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeYouTube struct {
	hits    int32
	status  int
	body    string
	delay   time.Duration
	lastReq atomic.Value
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.hits, 1)
	f.lastReq.Store(r.URL.Query())
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(f.body))
}

func (f *fakeYouTube) Hits() int {
	return int(atomic.LoadInt32(&f.hits))
}

func newTestSearcher(t *testing.T, fake *fakeYouTube, key string, timeout time.Duration) Searcher {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewSearcher(context.Background(), Config{
		APIKey:   key,
		Endpoint: srv.URL,
		Timeout:  timeout,
	}, nil)
	require.NoError(t, err)
	return s
}

const playlistBody = `{"items":[{"id":{"kind":"youtube#playlist","playlistId":"PLabc123"},"snippet":{"title":"Data Structures Full Course"}}]}`

func TestLookupReturnsFirstPlaylist(t *testing.T) {
	fake := &fakeYouTube{body: playlistBody}
	s := newTestSearcher(t, fake, "test-key", time.Second)

	ref := s.Lookup(context.Background(), "  Linked Lists full course playlist ")
	require.NotNil(t, ref)
	assert.Equal(t, "Data Structures Full Course", ref.Title)
	assert.Equal(t, "https://www.youtube.com/playlist?list=PLabc123", ref.URL)

	q, ok := fake.lastReq.Load().(url.Values)
	require.True(t, ok)
	assert.Equal(t, []string{"Linked Lists full course playlist"}, q["q"])
	assert.Equal(t, []string{"playlist"}, q["type"])
	assert.Equal(t, []string{"1"}, q["maxResults"])
	assert.Equal(t, []string{"snippet"}, q["part"])
	assert.Equal(t, []string{"test-key"}, q["key"])
}

func TestLookupIsCached(t *testing.T) {
	fake := &fakeYouTube{body: playlistBody}
	s := newTestSearcher(t, fake, "test-key", time.Second)

	first := s.Lookup(context.Background(), "Graphs full course playlist")
	second := s.Lookup(context.Background(), "Graphs full course playlist")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.Hits())
}

func TestLookupCachesEmptyResults(t *testing.T) {
	fake := &fakeYouTube{body: `{"items":[]}`}
	s := newTestSearcher(t, fake, "test-key", time.Second)

	assert.Nil(t, s.Lookup(context.Background(), "Obscure topic full course playlist"))
	assert.Nil(t, s.Lookup(context.Background(), "Obscure topic full course playlist"))
	assert.Equal(t, 1, fake.Hits())
}

func TestLookupMissingAPIKey(t *testing.T) {
	fake := &fakeYouTube{body: playlistBody}
	s := newTestSearcher(t, fake, "", time.Second)

	assert.Nil(t, s.Lookup(context.Background(), "Sorting full course playlist"))
	assert.Equal(t, 0, fake.Hits())
}

func TestLookupShortQuery(t *testing.T) {
	fake := &fakeYouTube{body: playlistBody}
	s := newTestSearcher(t, fake, "test-key", time.Second)

	for _, q := range []string{"", "   ", "abcd", "  ab  "} {
		assert.Nil(t, s.Lookup(context.Background(), q), "query %q", q)
	}
	assert.Equal(t, 0, fake.Hits())
}

func TestLookupNonSuccessStatus(t *testing.T) {
	fake := &fakeYouTube{
		status: http.StatusForbidden,
		body:   `{"error":{"code":403,"message":"quotaExceeded"}}`,
	}
	s := newTestSearcher(t, fake, "test-key", time.Second)

	assert.Nil(t, s.Lookup(context.Background(), "Heaps full course playlist"))
	// Quota failures are not remembered, so a later call tries again.
	assert.Nil(t, s.Lookup(context.Background(), "Heaps full course playlist"))
	assert.Equal(t, 2, fake.Hits())
}

func TestLookupTimeout(t *testing.T) {
	fake := &fakeYouTube{body: playlistBody, delay: 500 * time.Millisecond}
	s := newTestSearcher(t, fake, "test-key", 50*time.Millisecond)

	start := time.Now()
	assert.Nil(t, s.Lookup(context.Background(), "Tries full course playlist"))
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestLookupMalformedItem(t *testing.T) {
	fake := &fakeYouTube{body: `{"items":[{"id":{"kind":"youtube#playlist"},"snippet":{"title":"No id"}}]}`}
	s := newTestSearcher(t, fake, "test-key", time.Second)

	assert.Nil(t, s.Lookup(context.Background(), "Hashing full course playlist"))
}

func TestTopicQuery(t *testing.T) {
	assert.Equal(t, "Binary Trees full course playlist", TopicQuery("Binary Trees"))
}

func TestSearchErrorMessage(t *testing.T) {
	err := &SearchError{Code: "http_403", Message: "Forbidden", Details: "quotaExceeded"}
	assert.Equal(t, "Forbidden: quotaExceeded", err.Error())

	err = &SearchError{Code: "timeout", Message: "timed out"}
	assert.Equal(t, "timed out", err.Error())
}
