// Package config loads engine settings from the environment, with an
// optional YAML profile for per-engine UCI parameters. A .env file next
// to the binary is picked up automatically.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Logs   LogConfig    `yaml:"logs"`
}

type EngineConfig struct {
	Path        string            `yaml:"path"`
	Depth       int               `yaml:"depth"`
	MoveTimeMS  int               `yaml:"move_time_ms"`
	UseMoveTime bool              `yaml:"use_move_time"` // search by time instead of depth
	Workers     int               `yaml:"workers"`
	Parameters  map[string]string `yaml:"parameters"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Style string `yaml:"style"` // "console" or "json"
}

// Load reads configuration from the environment. Unset values fall back
// to defaults; malformed numbers are an error rather than a silent
// default.
func Load() (*Config, error) {
	cfg := &Config{
		Engine: EngineConfig{
			Path:       "stockfish",
			Depth:      15,
			MoveTimeMS: 1000,
			Workers:    1,
		},
		Logs: LogConfig{Level: "info", Style: "json"},
	}

	if v := os.Getenv("ENGINE_PATH"); v != "" {
		cfg.Engine.Path = v
	}
	var err error
	if cfg.Engine.Depth, err = intEnv("ENGINE_DEPTH", cfg.Engine.Depth); err != nil {
		return nil, err
	}
	if cfg.Engine.MoveTimeMS, err = intEnv("ENGINE_MOVE_TIME_MS", cfg.Engine.MoveTimeMS); err != nil {
		return nil, err
	}
	if cfg.Engine.Workers, err = intEnv("ENGINE_WORKERS", cfg.Engine.Workers); err != nil {
		return nil, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logs.Level = v
	}
	if v := os.Getenv("LOG_STYLE"); v != "" {
		cfg.Logs.Style = v
	}
	return cfg, nil
}

// LoadProfile overlays a YAML profile file onto cfg. Profiles carry the
// settings that don't belong in env vars, most usefully the default UCI
// parameters applied at session start.
func (c *Config) LoadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return nil
}

// Logger builds a zerolog logger matching the configured level and
// style.
func (c *Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Logs.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if c.Logs.Style == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
