package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"study-buddy/internal/models"
)

// MinTopicsPerCategory is how many very_important and important topics the
// prompt asks for in every unit.
const MinTopicsPerCategory = 3

var codeFencePattern = regexp.MustCompile("(?i)```json|```")

// stripCodeFences removes markdown fence markers wherever they appear.
func stripCodeFences(content string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(content, ""))
}

// RepairOutline locates the outline JSON inside a model reply. It tries the
// whole reply first, then balanced {...} spans in order, then the widest span
// from the first '{' to the last '}'.
func RepairOutline(raw string) (*models.SyllabusOutline, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyOutput
	}

	content := stripCodeFences(raw)
	if outline, err := decodeOutline(content); err == nil {
		return outline, nil
	}

	if outline, ok := firstBalancedOutline(content); ok {
		return outline, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, ErrNoJSONFound
	}
	outline, err := decodeOutline(content[start : end+1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return outline, nil
}

func decodeOutline(candidate string) (*models.SyllabusOutline, error) {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") {
		return nil, fmt.Errorf("expected a json object")
	}
	var outline models.SyllabusOutline
	if err := json.Unmarshal([]byte(candidate), &outline); err != nil {
		return nil, err
	}
	return &outline, nil
}

// looksLikeOutline rejects nested objects (a single unit, say) that happen to
// be balanced when the enclosing object is not.
func looksLikeOutline(candidate string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return false
	}
	_, hasSubject := fields["subject"]
	_, hasUnits := fields["units"]
	return hasSubject || hasUnits
}

// maxBraceScans bounds how many opening braces are tried as span starts, so
// a reply full of unmatched braces costs a few linear passes at most.
const maxBraceScans = 32

// firstBalancedOutline walks the '{' positions of s in order and returns the
// first shortest span closing at depth zero that decodes as an outline.
// Braces inside JSON strings are ignored.
func firstBalancedOutline(s string) (*models.SyllabusOutline, bool) {
	start := strings.IndexByte(s, '{')
	for scans := 0; start != -1 && scans < maxBraceScans; scans++ {
		if end := matchBrace(s, start); end != -1 {
			candidate := s[start : end+1]
			if looksLikeOutline(candidate) {
				if outline, err := decodeOutline(candidate); err == nil {
					return outline, true
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}
	return nil, false
}

func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ValidateOutline reports units that break the shape the prompt asks for.
// It never rejects an outline; nil topic lists are replaced with empty ones
// so they encode as [].
func ValidateOutline(outline *models.SyllabusOutline, minTopics int) []string {
	if outline == nil {
		return []string{"outline is empty"}
	}

	var warnings []string
	if strings.TrimSpace(outline.Subject) == "" {
		warnings = append(warnings, "subject is empty")
	}
	if len(outline.Units) == 0 {
		warnings = append(warnings, "outline has no units")
	}
	if outline.Units == nil {
		outline.Units = []models.Unit{}
	}

	for i := range outline.Units {
		unit := &outline.Units[i]
		label := fmt.Sprintf("unit %d", i+1)
		if name := strings.TrimSpace(unit.Name); name != "" {
			label = fmt.Sprintf("unit %d (%s)", i+1, name)
		} else {
			warnings = append(warnings, label+": unit_name is empty")
		}

		if n := len(unit.VeryImportant); n < minTopics {
			warnings = append(warnings, fmt.Sprintf("%s: very_important has %d topics, want at least %d", label, n, minTopics))
		}
		if n := len(unit.Important); n < minTopics {
			warnings = append(warnings, fmt.Sprintf("%s: important has %d topics, want at least %d", label, n, minTopics))
		}

		if unit.VeryImportant == nil {
			unit.VeryImportant = []models.Topic{}
		}
		if unit.Important == nil {
			unit.Important = []models.Topic{}
		}
		if unit.Optional == nil {
			unit.Optional = []models.Topic{}
		}
	}
	return warnings
}
