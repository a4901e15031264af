package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lokutor-ai/lokutor-musicgen/pkg/audio"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/audio/playback"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/config"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/logging"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/orchestrator"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/providers/generator"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/terminal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Loader{}.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("musicgen", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: musicgen [flags] [prompt]\n\n")
		fs.PrintDefaults()
	}
	config.BindFlags(fs, &cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() > 0 {
		cfg.Prompt = strings.Join(fs.Args(), " ")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	gen, closeGen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	defer closeGen()

	orch := orchestrator.NewWithLogger(gen, cfg.Orchestrator(), logger.With("generator", gen.Name()))
	logger.Info("generator ready", "generator", gen.Name(), "sampleRate", orch.SampleRate())

	var player terminal.Player
	if !cfg.NoPlayback {
		p, err := playback.NewPlayer(orch.SampleRate())
		if err != nil {
			logger.Warn("audio output unavailable, playback disabled", "error", err)
		} else {
			defer p.Close()
			player = p
		}
	}

	var input terminal.LineReader
	if !cfg.NoInteractive {
		reader := terminal.NewLinerReader(cfg.HistoryPath(), logger)
		defer reader.Close()
		input = reader
	}

	session := terminal.NewSession(orch, input, player, audio.NewWAVPersister(orch.SampleRate()), terminal.Options{
		Prompt:        cfg.Prompt,
		Secs:          cfg.Secs,
		Output:        cfg.Output,
		NoPlayback:    cfg.NoPlayback,
		NoInteractive: cfg.NoInteractive,
		Infinite:      cfg.Infinite,
		ChunkSecs:     cfg.ChunkSecs,
		OverlapSecs:   cfg.OverlapSecs,
	}, logger)
	session.SetProgress(terminal.NewBarProgress(os.Stderr))

	if cfg.Infinite {
		fmt.Printf("Infinite mode: %ds chunks, %ds overlap, %s stitching\n", cfg.ChunkSecs, cfg.OverlapSecs, cfg.Mode)
	}
	if !cfg.NoInteractive {
		fmt.Println("Type a prompt and press Enter. Use --secs N and --output PATH inline, \"exit\" to quit.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return session.Run(ctx)
}

// newGenerator picks the remote model server when one is configured and
// falls back to the tone generator otherwise.
func newGenerator(cfg config.Config, logger *logging.Logger) (orchestrator.SegmentGenerator, func(), error) {
	if cfg.GeneratorURL == "" {
		logger.Warn("no generator url configured, using the built-in tone generator")
		return generator.NewTone(cfg.SampleRate), func() {}, nil
	}

	remote, err := generator.NewRemote(cfg.GeneratorURL, cfg.GeneratorAPIKey, cfg.SampleRate)
	if err != nil {
		return nil, nil, err
	}
	return remote, func() { _ = remote.Close() }, nil
}
