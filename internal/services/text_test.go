package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Data Structures", NormalizeText("  \tData\x00 Structures\n "))
	assert.Equal(t, "", NormalizeText("\x00 \x00"))
}

func TestTextLongEnough(t *testing.T) {
	tests := []struct {
		text string
		min  int
		want bool
	}{
		{"", MinGenerateChars, false},
		{"ab", MinGenerateChars, false},
		{"abc", MinGenerateChars, true},
		{"   abcd   ", MinPipelineChars, false},
		{"abcde", MinPipelineChars, true},
		{"日本語の本", MinPipelineChars, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TextLongEnough(tt.text, tt.min), "%q", tt.text)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "unbounded", truncateRunes("unbounded", 0))
}
