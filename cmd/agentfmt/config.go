package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFile mirrors the flag surface so a YAML file can supply defaults
// that explicitly set flags override (no environment variables are read),
// generalizing the teacher's
// discovery.ConfigFile layering to agentfmt's own options.
type ConfigFile struct {
	Vendor        string   `yaml:"vendor"`
	Format        string   `yaml:"format"`
	CollapseTools bool     `yaml:"collapse_tools"`
	HideTools     bool     `yaml:"hide_tools"`
	HideCost      bool     `yaml:"hide_cost"`
	HideDebug     bool     `yaml:"hide_debug"`
	Only          []string `yaml:"only"`
	Output        string   `yaml:"output"`
	Pace          float64  `yaml:"pace"`
	Stats         bool     `yaml:"stats"`
}

// loadConfig reads path (if non-empty) as YAML and layers it under viper so
// flags set on cmd take precedence over file values, and file values take
// precedence over the zero-value defaults (spec §6: CLI flags, not an env
// var contract — the core consults none).
func loadConfig(path string) (*ConfigFile, error) {
	cfg := &ConfigFile{Vendor: "auto", Format: "ansi"}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// bindViper wires the config file's settings as viper defaults so cobra's
// pflag-backed flags transparently override them when explicitly set.
func bindViper(v *viper.Viper, cfg *ConfigFile) {
	v.SetDefault("vendor", cfg.Vendor)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("collapse-tools", cfg.CollapseTools)
	v.SetDefault("hide-tools", cfg.HideTools)
	v.SetDefault("hide-cost", cfg.HideCost)
	v.SetDefault("hide-debug", cfg.HideDebug)
	v.SetDefault("only", cfg.Only)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("pace", cfg.Pace)
	v.SetDefault("stats", cfg.Stats)
}
