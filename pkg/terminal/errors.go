package terminal

import "errors"

var (
	// ErrInterrupted is returned by a LineReader when the user aborts the
	// prompt. The session treats it as a clean exit.
	ErrInterrupted = errors.New("input interrupted")

	// ErrPersistFailed wraps encode and write failures of the output file.
	ErrPersistFailed = errors.New("failed to persist audio")

	// ErrPlaybackFailed wraps playback failures. They are logged, never returned
	// from Run.
	ErrPlaybackFailed = errors.New("audio playback failed")
)
