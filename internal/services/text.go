package services

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinGenerateChars is the shortest text a Generator accepts.
	MinGenerateChars = 3
	// MinPipelineChars is the shortest text the analysis pipeline accepts.
	MinPipelineChars = 5
)

// NormalizeText trims surrounding whitespace and drops NUL bytes that some
// extractors leave behind.
func NormalizeText(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\x00", ""))
}

// TextLongEnough reports whether the normalised text has at least min characters.
func TextLongEnough(text string, min int) bool {
	return utf8.RuneCountInString(NormalizeText(text)) >= min
}

// truncateRunes cuts s to at most limit runes without splitting a character.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
