package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix   = "MUSICGEN_"
	EnvConfig   = EnvPrefix + "CONFIG_FILE"
	EnvDataPath = EnvPrefix + "DATA_PATH"

	configFileName = "musicgen.yaml"
)

// Loader resolves configuration from environment variables. Tests can
// override Lookup and EnvFiles to inject deterministic inputs.
type Loader struct {
	Lookup func(string) (string, bool)
	// EnvFiles are read with godotenv; real environment variables win over
	// their entries. Defaults to ".env", which may be absent.
	EnvFiles []string
}

// Load applies defaults, then the YAML file, then .env entries and the
// environment. It does not validate; flags are usually applied afterwards.
func (l Loader) Load() (Config, error) {
	lookup, err := l.lookup()
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	path, required := "", false
	if v, ok := lookup(EnvConfig); ok && strings.TrimSpace(v) != "" {
		path, required = strings.TrimSpace(v), true
	} else {
		dataPath := defaultDataPath()
		if v, ok := lookup(EnvDataPath); ok && strings.TrimSpace(v) != "" {
			dataPath = strings.TrimSpace(v)
		}
		path = filepath.Join(dataPath, configFileName)
	}
	if err := applyYAML(path, required, &cfg); err != nil {
		return Config{}, err
	}

	overrideString(lookup, "PROMPT", &cfg.Prompt)
	overrideString(lookup, "OUTPUT", &cfg.Output)
	overrideString(lookup, "MODE", &cfg.Mode)
	overrideString(lookup, "DATA_PATH", &cfg.DataPath)
	overrideString(lookup, "GENERATOR_URL", &cfg.GeneratorURL)
	overrideString(lookup, "GENERATOR_API_KEY", &cfg.GeneratorAPIKey)
	overrideString(lookup, "LOG_LEVEL", &cfg.LogLevel)

	for key, target := range map[string]*int{
		"SECS":         &cfg.Secs,
		"CHUNK_SECS":   &cfg.ChunkSecs,
		"OVERLAP_SECS": &cfg.OverlapSecs,
		"SAMPLE_RATE":  &cfg.SampleRate,
	} {
		if err := overrideInt(lookup, key, target); err != nil {
			return Config{}, err
		}
	}
	for key, target := range map[string]*bool{
		"INFINITE":       &cfg.Infinite,
		"NO_PLAYBACK":    &cfg.NoPlayback,
		"NO_INTERACTIVE": &cfg.NoInteractive,
	} {
		if err := overrideBool(lookup, key, target); err != nil {
			return Config{}, err
		}
	}

	if cfg.DataPath == "" {
		cfg.DataPath = defaultDataPath()
	}
	return cfg, nil
}

func (l Loader) lookup() (func(string) (string, bool), error) {
	base := l.Lookup
	if base == nil {
		base = os.LookupEnv
	}

	files := l.EnvFiles
	if files == nil {
		files = []string{".env"}
	}
	dotenv := map[string]string{}
	for _, f := range files {
		entries, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", f, err)
		}
		for k, v := range entries {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func applyYAML(path string, required bool, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	value, ok := lookup(EnvPrefix + key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*target = n
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(EnvPrefix + key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*target = b
	return nil
}
