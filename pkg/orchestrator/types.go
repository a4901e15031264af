package orchestrator

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(msg string, args ...interface{})

	Info(msg string, args ...interface{})

	Warn(msg string, args ...interface{})

	Error(msg string, args ...interface{})
}

type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string, args ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string, args ...interface{}) {}

// SegmentGenerator produces at most MaxChunkSecs of audio per call.
type SegmentGenerator interface {
	// Generate returns PCM samples for secs seconds of audio. continuity holds
	// the trailing samples of the previous chunk and is nil for the first one.
	Generate(ctx context.Context, prompt string, secs int, continuity []float32) ([]float32, error)
	// SampleRate is the rate of the samples returned by Generate. It is the only
	// rate used to convert overlap seconds into sample counts.
	SampleRate() int
	Name() string
}

// ProgressFunc receives cumulative generated seconds and the requested total
// after every chunk. Returning true stops generation after the current chunk.
type ProgressFunc func(elapsed, total float64) bool

const (
	// DefaultSampleRate is the output rate of the MusicGen family of models.
	DefaultSampleRate = 32000

	// MaxChunkSecs is the longest segment a generator produces in one call.
	MaxChunkSecs = 30
)

type CompositionMode string

const (
	// CrossFade blends the overlapping window with a linear ramp.
	CrossFade CompositionMode = "crossfade"
	// SkipDuplicate drops the overlapping prefix of every chunk after the first.
	SkipDuplicate CompositionMode = "skip"
)

// ParseCompositionMode accepts the names used on the command line and in config files.
func ParseCompositionMode(s string) (CompositionMode, error) {
	switch CompositionMode(s) {
	case CrossFade, "":
		return CrossFade, nil
	case SkipDuplicate:
		return SkipDuplicate, nil
	}
	return "", fmt.Errorf("%w: unknown composition mode %q (must be crossfade or skip)", ErrInvalidConfig, s)
}

type Config struct {
	ChunkSecs   int
	OverlapSecs int
	Mode        CompositionMode
}

func DefaultConfig() Config {
	return Config{
		ChunkSecs:   MaxChunkSecs,
		OverlapSecs: 10,
		Mode:        CrossFade,
	}
}

// GenerationRequest lives for exactly one GenerateInfinite call.
type GenerationRequest struct {
	Prompt      string
	TotalSecs   int
	ChunkSecs   int
	OverlapSecs int
}

// Validate rejects combinations the scheduler cannot honour. It never calls
// the generator.
func (r GenerationRequest) Validate() error {
	if r.TotalSecs < 1 {
		return fmt.Errorf("%w: total duration (%d) must be at least 1 second", ErrInvalidConfig, r.TotalSecs)
	}
	return ValidateChunking(r.ChunkSecs, r.OverlapSecs)
}

// ValidateChunking checks a chunk/overlap pair against MaxChunkSecs.
func ValidateChunking(chunkSecs, overlapSecs int) error {
	if chunkSecs < 1 {
		return fmt.Errorf("%w: chunk size (%d) must be at least 1 second", ErrInvalidConfig, chunkSecs)
	}
	if chunkSecs > MaxChunkSecs {
		return fmt.Errorf("%w: chunk size (%d) must be <= %d seconds", ErrInvalidConfig, chunkSecs, MaxChunkSecs)
	}
	if overlapSecs < 0 {
		return fmt.Errorf("%w: overlap (%d) must not be negative", ErrInvalidConfig, overlapSecs)
	}
	if overlapSecs >= chunkSecs {
		return fmt.Errorf("%w: overlap (%d) must be less than chunk size (%d)", ErrInvalidConfig, overlapSecs, chunkSecs)
	}
	return nil
}

// ChunkingMatters reports whether totalSecs spans more than one chunk.
func ChunkingMatters(totalSecs, chunkSecs int) bool {
	return totalSecs > chunkSecs
}

type EventType string

const (
	JobStarted    EventType = "JOB_STARTED"
	ChunkProgress EventType = "CHUNK_PROGRESS"
	JobStopped    EventType = "JOB_STOPPED"
	JobCompleted  EventType = "JOB_COMPLETED"
	ErrorEvent    EventType = "ERROR"
)

// Progress is the payload of ChunkProgress events.
type Progress struct {
	Elapsed float64 `json:"elapsed"`
	Total   float64 `json:"total"`
}

type JobEvent struct {
	Type  EventType   `json:"type"`
	JobID string      `json:"job_id"`
	Data  interface{} `json:"data,omitempty"`
}
