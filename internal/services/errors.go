package services

import "errors"

var (
	// ErrInputTooShort is returned by the pipeline when the acquired text is
	// too short to analyze. It maps to a client error.
	ErrInputTooShort = errors.New("syllabus text is too short or empty")

	// ErrEmptyInput is returned by a Generator for blank or near-blank text.
	ErrEmptyInput = errors.New("input text too short for analysis")

	// ErrUpstream wraps failures of the remote completion call.
	ErrUpstream = errors.New("ai request failed")

	// ErrAIUnavailable is returned when no LLM provider is configured.
	ErrAIUnavailable = errors.New("llm integration is not configured")

	ErrEmptyOutput   = errors.New("empty ai response")
	ErrNoJSONFound   = errors.New("no json found in ai response")
	ErrMalformedJSON = errors.New("ai returned invalid json")
)

// ErrUnsupportedSource is returned for a Source whose Kind is unknown.
var ErrUnsupportedSource = errors.New("unsupported source kind")
