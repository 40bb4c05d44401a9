package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Default returns a configuration with every default applied and no scene.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}
	return &cfg, nil
}

// Load reads a run configuration from a YAML file. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	cfg.Dir = filepath.Dir(path)

	return cfg, nil
}

// LoadProject loads a configuration from a project directory.
// It looks for config.yaml in the given directory.
func LoadProject(projectDir string) (*Config, error) {
	return Load(filepath.Join(projectDir, "config.yaml"))
}

// ScenePath returns the scene file path, resolved against the config
// directory when relative.
func (c *Config) ScenePath() string {
	if c.Simulator.Scene == "" || filepath.IsAbs(c.Simulator.Scene) {
		return c.Simulator.Scene
	}
	return filepath.Join(c.Dir, c.Simulator.Scene)
}
