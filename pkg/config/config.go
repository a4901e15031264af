// Package config resolves CLI configuration from defaults, an optional YAML
// file, .env files, the environment and command-line flags.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lokutor-ai/lokutor-musicgen/pkg/logging"
	"github.com/lokutor-ai/lokutor-musicgen/pkg/orchestrator"
)

const (
	DefaultSecs        = 10
	DefaultOutput      = "musicgen-generated.wav"
	DefaultOverlapSecs = 10
	DefaultLogLevel    = "info"
	DefaultMode        = string(orchestrator.CrossFade)

	appDir = "lokutor-musicgen"
)

type Config struct {
	Prompt          string `yaml:"prompt"`
	Secs            int    `yaml:"secs"`
	Output          string `yaml:"output"`
	Infinite        bool   `yaml:"infinite"`
	ChunkSecs       int    `yaml:"chunk_secs"`
	OverlapSecs     int    `yaml:"overlap_secs"`
	Mode            string `yaml:"mode"`
	NoPlayback      bool   `yaml:"no_playback"`
	NoInteractive   bool   `yaml:"no_interactive"`
	DataPath        string `yaml:"data_path"`
	GeneratorURL    string `yaml:"generator_url"`
	GeneratorAPIKey string `yaml:"generator_api_key"`
	SampleRate      int    `yaml:"sample_rate"`
	LogLevel        string `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		Secs:        DefaultSecs,
		Output:      DefaultOutput,
		ChunkSecs:   orchestrator.MaxChunkSecs,
		OverlapSecs: DefaultOverlapSecs,
		Mode:        DefaultMode,
		SampleRate:  orchestrator.DefaultSampleRate,
		LogLevel:    DefaultLogLevel,
	}
}

// Validate checks startup requirements. Chunk and overlap sizes are only
// checked here when infinite mode is on, matching when they are used.
func (c *Config) Validate() error {
	if c.Secs < 1 {
		return fmt.Errorf("config: --secs must be > 0, got %d", c.Secs)
	}
	if c.NoInteractive && c.Prompt == "" {
		return fmt.Errorf("config: a prompt must be provided when not in interactive mode")
	}
	if c.Output == "" {
		return fmt.Errorf("config: output path is required")
	}
	if c.SampleRate < 1 {
		return fmt.Errorf("config: sample rate must be > 0, got %d", c.SampleRate)
	}
	if _, err := orchestrator.ParseCompositionMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Infinite {
		if err := orchestrator.ValidateChunking(c.ChunkSecs, c.OverlapSecs); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// Orchestrator returns the chunking settings for orchestrator.New.
func (c Config) Orchestrator() orchestrator.Config {
	mode, _ := orchestrator.ParseCompositionMode(c.Mode)
	return orchestrator.Config{
		ChunkSecs:   c.ChunkSecs,
		OverlapSecs: c.OverlapSecs,
		Mode:        mode,
	}
}

func (c Config) HistoryPath() string {
	return filepath.Join(c.DataPath, "history.txt")
}

// BindFlags registers flags whose defaults are the current values of c, so
// parsing fs afterwards overrides only what was passed.
func BindFlags(fs *flag.FlagSet, c *Config) {
	fs.IntVar(&c.Secs, "secs", c.Secs, "seconds of audio to generate")
	fs.StringVar(&c.Output, "output", c.Output, "output path for the resulting .wav file")
	fs.BoolVar(&c.Infinite, "infinite", c.Infinite, "generate in overlapping chunks to exceed the per-call limit")
	fs.IntVar(&c.ChunkSecs, "chunksize", c.ChunkSecs, "duration in seconds of each chunk in infinite mode")
	fs.IntVar(&c.OverlapSecs, "overlap", c.OverlapSecs, "seconds of overlap between consecutive chunks")
	fs.StringVar(&c.Mode, "mode", c.Mode, "chunk stitching: crossfade or skip")
	fs.BoolVar(&c.NoPlayback, "no-playback", c.NoPlayback, "do not play the audio after generation")
	fs.BoolVar(&c.NoInteractive, "no-interactive", c.NoInteractive, "generate once for the given prompt and exit")
	fs.StringVar(&c.DataPath, "data-path", c.DataPath, "directory for history and the optional musicgen.yaml")
	fs.StringVar(&c.GeneratorURL, "generator-url", c.GeneratorURL, "websocket url of the model server (empty uses the built-in tone generator)")
	fs.IntVar(&c.SampleRate, "sample-rate", c.SampleRate, "sample rate produced by the generator")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

func defaultDataPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDir)
	}
	return "." + appDir
}
