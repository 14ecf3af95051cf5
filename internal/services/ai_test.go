package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatCompletionBody(contents ...string) string {
	choices := make([]map[string]any, 0, len(contents))
	for i, c := range contents {
		choices = append(choices, map[string]any{
			"index":         i,
			"message":       map[string]any{"role": "assistant", "content": c},
			"finish_reason": "stop",
		})
	}
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "openai/gpt-4o-mini",
		"choices": choices,
	})
	return string(body)
}

func newChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAIServiceGenerate(t *testing.T) {
	var (
		got     chatRequest
		headers http.Header
		path    string
	)
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody("  \n" + sampleOutline + "\n  ")))
	})

	svc := NewAIService(AIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/api/v1/",
		Model:   "openai/gpt-4o-mini",
		Referer: "http://localhost",
		Title:   "Study Buddy",
	})

	out, err := svc.Generate(context.Background(), "  Data Structures  ")
	require.NoError(t, err)
	assert.Equal(t, sampleOutline, out)

	assert.Equal(t, "/api/v1/chat/completions", path)
	assert.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	assert.Equal(t, "http://localhost", headers.Get("HTTP-Referer"))
	assert.Equal(t, "Study Buddy", headers.Get("X-Title"))

	assert.Equal(t, "openai/gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 0.0001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "AT LEAST 3 very_important topics")
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "Input:\nData Structures\n")
	assert.Contains(t, got.Messages[1].Content, `"unit_name": ""`)
}

func TestAIServiceGenerateRejectsShortInput(t *testing.T) {
	var hits int32
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})
	svc := NewAIService(AIConfig{APIKey: "sk-test", BaseURL: srv.URL})

	for _, text := range []string{"", "   ", "ab", " a\x00b "} {
		_, err := svc.Generate(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyInput, "%q", text)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestAIServiceGenerateDisabled(t *testing.T) {
	svc := NewAIService(AIConfig{})
	_, err := svc.Generate(context.Background(), "Operating Systems")
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestAIServiceGenerateUpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			},
		},
		{
			name: "quota",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(chatCompletionBody()))
			},
		},
		{
			name: "blank content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(chatCompletionBody("   \n ")))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newChatServer(t, tt.handler)
			svc := NewAIService(AIConfig{APIKey: "sk-test", BaseURL: srv.URL})

			out, err := svc.Generate(context.Background(), "Computer Networks")
			assert.Empty(t, out)
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestAIServiceGenerateTimeout(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	svc := NewAIService(AIConfig{APIKey: "sk-test", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := svc.Generate(context.Background(), "Compiler Design")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestGeminiServiceWithoutKey(t *testing.T) {
	svc, err := NewGeminiService(context.Background(), GeminiConfig{})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "Databases")
	assert.ErrorIs(t, err, ErrAIUnavailable)

	_, err = svc.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyInput)
}
