// Package config loads build settings from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hackvm/pkg/translator"
	"hackvm/pkg/vm"
)

// DefaultMaxCycles bounds emulator runs started from the command line.
const DefaultMaxCycles = 10_000_000

// Config holds the settings shared by the command line tools.
type Config struct {
	Entry     string `yaml:"entry"`
	Bootstrap bool   `yaml:"bootstrap"`
	StackBase int    `yaml:"stack_base"`
	Comments  bool   `yaml:"comments"`
	Hack      bool   `yaml:"hack"`
	MaxCycles uint64 `yaml:"max_cycles"`
	LogLevel  string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Entry:     translator.DefaultEntry,
		Bootstrap: true,
		StackBase: translator.DefaultStackBase,
		MaxCycles: DefaultMaxCycles,
		LogLevel:  "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if !vm.IsIdentifier(c.Entry) {
		return fmt.Errorf("invalid entry function %q", c.Entry)
	}
	if c.StackBase <= 0 || c.StackBase > 0x7FFF {
		return fmt.Errorf("stack_base out of range: %d", c.StackBase)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps log_level to a slog level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}

// TranslatorOptions returns the code generation options for this config.
func (c Config) TranslatorOptions() translator.Options {
	return translator.Options{
		Bootstrap: c.Bootstrap,
		Entry:     c.Entry,
		StackBase: c.StackBase,
		Comments:  c.Comments,
	}
}
