package orchestrator

import "errors"

var (
	// ErrGenerationFailed is returned when the segment generator fails. Any
	// partially composed audio is discarded.
	ErrGenerationFailed = errors.New("segment generation failed")

	// ErrInvalidConfig is returned for chunk, overlap or duration combinations
	// rejected before generation starts
	ErrInvalidConfig = errors.New("invalid generation configuration")

	// ErrNilProvider is returned when a required provider is nil
	ErrNilProvider = errors.New("required provider is nil")

	// ErrInvalidSampleRate is returned when a generator reports a non-positive rate
	ErrInvalidSampleRate = errors.New("generator reported an invalid sample rate")
)
