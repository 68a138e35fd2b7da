package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quantlabs/minvar/models"
)

// Load reads a backtest configuration from a YAML file, fills defaults and
// validates it. A missing file is an error; a missing optional key is not.
func Load(path string) (models.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg models.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return models.Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return models.Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a configuration back out as YAML, e.g. to record the exact
// settings of a sweep winner.
func Save(path string, cfg models.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
