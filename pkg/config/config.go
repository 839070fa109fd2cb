package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for a training run
type Config struct {
	Dataset   string  `koanf:"dataset"`
	DataDir   string  `koanf:"data-dir"`
	SubNodes  int     `koanf:"sub-nodes"`
	HiddenDim int     `koanf:"hidden-dim"`
	LR        float64 `koanf:"lr"`
	Epochs    int     `koanf:"epochs"`
	Dropout   float64 `koanf:"dropout"`
	Seed      int64   `koanf:"seed"`
	SavePreds bool    `koanf:"save-preds"`
	WebMode   bool    `koanf:"web"`
	Port      int     `koanf:"port"`
	Verbosity string  `koanf:"verbosity"`
	LogJSON   bool    `koanf:"log-json"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults mirror the reference hyperparameters for ogbn-products
	defaults := map[string]interface{}{
		"dataset":    "ogbn-products",
		"data-dir":   "data",
		"sub-nodes":  100000,
		"hidden-dim": 256,
		"lr":         0.01,
		"epochs":     200,
		"dropout":    0.5,
		"seed":       1,
		"save-preds": false,
		"web":        false,
		"port":       8080,
		"verbosity":  "",
		"log-json":   false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - gcn-trainer.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("gcn-trainer.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: GCN_TRAINER_ (e.g., GCN_TRAINER_EPOCHS=50)
	if err := k.Load(env.Provider("GCN_TRAINER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "GCN_TRAINER_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SubNodes <= 0 {
		return fmt.Errorf("sub-nodes must be positive, got %d", c.SubNodes)
	}
	if c.HiddenDim <= 0 {
		return fmt.Errorf("hidden-dim must be positive, got %d", c.HiddenDim)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be positive, got %g", c.LR)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("dropout must be in [0, 1), got %g", c.Dropout)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
