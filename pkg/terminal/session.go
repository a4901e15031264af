// Package terminal runs the interactive prompt/generate/play/save loop.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/audio"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/orchestrator"
	"golang.org/x/sync/errgroup"
)

const promptMarker = ">>> "

// Processor generates audio for a prompt. *orchestrator.Orchestrator
// implements it.
type Processor interface {
	Generate(ctx context.Context, prompt string, secs int, onProgress orchestrator.ProgressFunc) ([]float32, error)
	GenerateInfinite(ctx context.Context, req orchestrator.GenerationRequest, onProgress orchestrator.ProgressFunc) ([]float32, error)
}

// Player starts playback of a buffer it may keep.
type Player interface {
	Play(samples []float32) (audio.Stream, error)
}

// Persister encodes samples and writes them to path.
type Persister interface {
	Save(path string, samples []float32) error
}

type Options struct {
	Prompt        string
	Secs          int
	Output        string
	NoPlayback    bool
	NoInteractive bool
	Infinite      bool
	ChunkSecs     int
	OverlapSecs   int
}

// Session is one run of the read/generate/play/save loop.
type Session struct {
	ID string

	proc        Processor
	input       LineReader
	player      Player
	persister   Persister
	newProgress ProgressFactory
	logger      orchestrator.Logger

	opts   Options
	state  State
	stream audio.Stream
}

// NewSession wires a session. player may be nil, which behaves like
// Options.NoPlayback. input may be nil when Options.NoInteractive is set.
func NewSession(proc Processor, input LineReader, player Player, persister Persister, opts Options, logger orchestrator.Logger) *Session {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Session{
		ID:          "session_" + uuid.NewString(),
		proc:        proc,
		input:       input,
		player:      player,
		persister:   persister,
		newProgress: NopProgress,
		logger:      logger,
		opts:        opts,
		state: State{
			Prompt: opts.Prompt,
			Secs:   opts.Secs,
			Output: opts.Output,
		},
	}
}

// SetProgress replaces the progress indicator factory.
func (s *Session) SetProgress(f ProgressFactory) {
	if f == nil {
		f = NopProgress
	}
	s.newProgress = f
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	return s.state
}

// Validate checks the options once before the loop starts. A total that fits
// in a single chunk only produces a warning.
func (s *Session) Validate() error {
	if s.proc == nil || s.persister == nil {
		return orchestrator.ErrNilProvider
	}
	if s.opts.NoInteractive && strings.TrimSpace(s.opts.Prompt) == "" {
		return fmt.Errorf("%w: a prompt must be provided when not in interactive mode", orchestrator.ErrInvalidConfig)
	}
	if !s.opts.NoInteractive && s.input == nil {
		return fmt.Errorf("%w: interactive mode needs an input reader", orchestrator.ErrNilProvider)
	}
	if !s.opts.Infinite {
		return nil
	}
	if err := orchestrator.ValidateChunking(s.opts.ChunkSecs, s.opts.OverlapSecs); err != nil {
		return err
	}
	if !orchestrator.ChunkingMatters(s.opts.Secs, s.opts.ChunkSecs) {
		s.logger.Warn("infinite mode has no effect: total duration fits in one chunk",
			"secs", s.opts.Secs, "chunk", s.opts.ChunkSecs)
	}
	return nil
}

// Run loops until the user exits, input ends, ctx is cancelled, or after one
// iteration in non-interactive mode. Generation and persistence failures end
// only the current iteration, except in non-interactive mode where they are
// returned.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	defer s.stopPlayback()

	if s.input != nil && s.state.Prompt != "" {
		s.input.AppendHistory(s.state.Prompt)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		if s.state.Prompt == "" {
			line, err := s.input.ReadLine(promptMarker)
			if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			s.input.AppendHistory(line)
			if strings.TrimSpace(line) == ExitKeyword {
				return nil
			}
			s.state.Apply(line)
		}

		if strings.TrimSpace(s.state.Prompt) == "" {
			s.state.Prompt = ""
			continue
		}

		err := s.iterate(ctx)
		if err != nil {
			if s.opts.NoInteractive {
				return err
			}
			s.logger.Error("generation iteration failed", "sessionID", s.ID, "error", err)
		}

		s.state.Prompt = ""
		if s.opts.NoInteractive {
			s.waitPlayback(ctx)
			return nil
		}
	}
}

func (s *Session) iterate(ctx context.Context) error {
	prompt, secs := s.state.Prompt, s.state.Secs
	s.logger.Info("generating", "sessionID", s.ID, "prompt", prompt, "secs", secs, "infinite", s.opts.Infinite)

	bar := s.newProgress("Generating audio")
	onProgress := func(elapsed, total float64) bool {
		bar.Update(elapsed, total)
		return false
	}

	var (
		samples []float32
		err     error
	)
	if s.opts.Infinite {
		samples, err = s.proc.GenerateInfinite(ctx, orchestrator.GenerationRequest{
			Prompt:      prompt,
			TotalSecs:   secs,
			ChunkSecs:   s.opts.ChunkSecs,
			OverlapSecs: s.opts.OverlapSecs,
		}, onProgress)
	} else {
		samples, err = s.proc.Generate(ctx, prompt, secs, onProgress)
	}
	bar.Finish()
	if err != nil {
		return err
	}

	return s.dispatch(samples)
}

// dispatch hands independent copies of samples to playback and persistence.
// Only persistence can fail the iteration.
func (s *Session) dispatch(samples []float32) error {
	s.state.Output = EnsureExtension(s.state.Output)
	output := s.state.Output

	var g errgroup.Group
	if s.player != nil && !s.opts.NoPlayback {
		playCopy := slices.Clone(samples)
		g.Go(func() error {
			s.startPlayback(playCopy)
			return nil
		})
	}

	saveCopy := slices.Clone(samples)
	g.Go(func() error {
		if err := s.persister.Save(output, saveCopy); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
		s.logger.Info("audio saved", "sessionID", s.ID, "path", output, "samples", len(saveCopy))
		return nil
	})

	return g.Wait()
}

func (s *Session) startPlayback(samples []float32) {
	stream, err := s.player.Play(samples)
	if err != nil {
		s.logger.Warn("playback unavailable", "sessionID", s.ID, "error", fmt.Errorf("%w: %v", ErrPlaybackFailed, err))
		return
	}
	if s.stream != nil && s.stream != stream {
		_ = s.stream.Close()
	}
	s.stream = stream
}

func (s *Session) waitPlayback(ctx context.Context) {
	if s.stream == nil {
		return
	}
	select {
	case <-s.stream.Done():
	case <-ctx.Done():
	}
}

func (s *Session) stopPlayback() {
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
}
