package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/lokutor-ai/lokutor-musicgen/pkg/audio"
)

// Orchestrator turns a segment-bounded generator into arbitrarily long audio.
// The generator is shared for the lifetime of the orchestrator.
type Orchestrator struct {
	gen    SegmentGenerator
	config Config
	logger Logger
	mu     sync.RWMutex
}

// New creates a new orchestrator around gen using a no-op logger
func New(gen SegmentGenerator, config Config) *Orchestrator {
	return NewWithLogger(gen, config, &NoOpLogger{})
}

// NewWithLogger creates a new orchestrator with a custom logger
func NewWithLogger(gen SegmentGenerator, config Config, logger Logger) *Orchestrator {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	if config.Mode == "" {
		config.Mode = CrossFade
	}
	return &Orchestrator{
		gen:    gen,
		config: config,
		logger: logger,
	}
}

// Request builds a GenerationRequest using the configured chunk and overlap sizes.
func (o *Orchestrator) Request(prompt string, totalSecs int) GenerationRequest {
	cfg := o.GetConfig()
	return GenerationRequest{
		Prompt:      prompt,
		TotalSecs:   totalSecs,
		ChunkSecs:   cfg.ChunkSecs,
		OverlapSecs: cfg.OverlapSecs,
	}
}

// Generate produces secs seconds in a single generator call with no
// continuity. onProgress is told (secs, secs) once; its answer is irrelevant.
func (o *Orchestrator) Generate(ctx context.Context, prompt string, secs int, onProgress ProgressFunc) ([]float32, error) {
	if _, err := o.sampleRate(); err != nil {
		return nil, err
	}

	samples, err := o.gen.Generate(ctx, prompt, secs, nil)
	if err != nil {
		o.logger.Error("segment generation failed", "generator", o.gen.Name(), "secs", secs, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	o.logger.Info("segment generated", "secs", secs, "samples", len(samples), "rms", audio.RMS(samples))
	if onProgress != nil {
		_ = onProgress(float64(secs), float64(secs))
	}
	return samples, nil
}

// GenerateInfinite runs the chunked generation loop. Chunks are generated
// strictly in order, each seeded with the tail of the previous raw chunk. A
// true answer from onProgress ends the loop and the audio composed so far is
// returned. A generator failure discards everything and returns an error
// wrapping ErrGenerationFailed.
func (o *Orchestrator) GenerateInfinite(ctx context.Context, req GenerationRequest, onProgress ProgressFunc) ([]float32, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rate, err := o.sampleRate()
	if err != nil {
		return nil, err
	}

	mode := o.GetConfig().Mode
	window := SecsToSamples(req.OverlapSecs, rate)
	comp := NewCompositor(mode, window)

	o.logger.Info("starting chunked generation",
		"total", req.TotalSecs, "chunk", req.ChunkSecs, "overlap", req.OverlapSecs,
		"mode", mode, "sampleRate", rate)

	var history []float32
	generated := 0
	for i, secs := range PlanChunks(req.TotalSecs, req.ChunkSecs) {
		o.logger.Debug("generating chunk", "index", i, "secs", secs, "remaining", req.TotalSecs-generated)

		chunk, err := o.gen.Generate(ctx, req.Prompt, secs, history)
		if err != nil {
			o.logger.Error("chunk generation failed", "index", i, "generator", o.gen.Name(), "error", err)
			return nil, fmt.Errorf("%w: chunk %d: %v", ErrGenerationFailed, i, err)
		}

		comp.Add(chunk)
		history = continuityFrom(chunk, window)
		generated += secs

		o.logger.Info("chunk generated",
			"index", i, "samples", len(chunk), "rms", audio.RMS(chunk),
			"generated", generated, "total", req.TotalSecs)

		if onProgress != nil && onProgress(float64(generated), float64(req.TotalSecs)) {
			o.logger.Info("stopping early on progress callback", "generated", generated, "total", req.TotalSecs)
			break
		}
	}

	o.logger.Info("chunked generation finished", "samples", comp.Len(), "chunks", comp.Chunks())
	return comp.Samples(), nil
}

func (o *Orchestrator) sampleRate() (int, error) {
	if o.gen == nil {
		return 0, ErrNilProvider
	}
	rate := o.gen.SampleRate()
	if rate <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSampleRate, rate)
	}
	return rate, nil
}

// SampleRate is the generator's output rate, or 0 without a usable generator.
func (o *Orchestrator) SampleRate() int {
	rate, _ := o.sampleRate()
	return rate
}

// UpdateConfig updates the orchestrator configuration
func (o *Orchestrator) UpdateConfig(cfg Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cfg.Mode == "" {
		cfg.Mode = CrossFade
	}
	o.config = cfg
}

// GetConfig returns the current configuration
func (o *Orchestrator) GetConfig() Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.config
}

// GetProviders returns information about the current providers
func (o *Orchestrator) GetProviders() map[string]string {
	name := ""
	if o.gen != nil {
		name = o.gen.Name()
	}
	return map[string]string{
		"generator": name,
	}
}
