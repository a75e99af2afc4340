package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFile  = "talesim.yaml"
	DefaultIndex = "sqlite://:memory:"
)

type ProjectConfig struct {
	Project    string          `yaml:"project"`
	Version    int             `yaml:"version"`
	World      string          `yaml:"world"`
	Seed       *uint64         `yaml:"seed"`
	Rounds     int             `yaml:"rounds"`
	Vocabulary string          `yaml:"vocabulary"`
	Log        LogConfig       `yaml:"log"`
	Chronicle  ChronicleConfig `yaml:"chronicle"`

	// Dir is the directory the config was loaded from; relative paths
	// resolve against it.
	Dir string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ChronicleConfig struct {
	Archive string `yaml:"archive"`
	Index   string `yaml:"index"`
}

// Default is the configuration used when no talesim.yaml exists.
func Default() *ProjectConfig {
	return &ProjectConfig{
		Project:   "talesim",
		Version:   1,
		Rounds:    1,
		Log:       LogConfig{Level: "info", Format: "text"},
		Chronicle: ChronicleConfig{Index: DefaultIndex},
		Dir:       ".",
	}
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateDocument(projectSchema, data); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.Dir = filepath.Dir(path)

	if err := validateProjectConfig(cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return cfg, nil
}

// Resolve makes p relative to the config directory unless it is absolute
// or empty.
func (c *ProjectConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Rounds < 0 {
		return fmt.Errorf("rounds must not be negative: %d", cfg.Rounds)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", cfg.Log.Format)
	}
	if idx := cfg.Chronicle.Index; idx != "" && !strings.HasPrefix(idx, "sqlite://") {
		return fmt.Errorf("chronicle index must be a sqlite:// DSN, got %q", idx)
	}
	return nil
}
