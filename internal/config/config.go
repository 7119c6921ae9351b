// Package config holds the runtime settings of the OCR server.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs of the server.
type Config struct {
	Addr          string `yaml:"addr"`
	ModelPath     string `yaml:"model_path"`
	PersistToDisk bool   `yaml:"persist_to_disk"`
	HiddenNodes   int    `yaml:"hidden_nodes"`
	MaxBackups    int    `yaml:"max_backups"`
	DatasetPath   string `yaml:"dataset_path"`
	Seed          int64  `yaml:"seed"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Addr        string
	ModelPath   string
	HiddenNodes int
	MaxBackups  int
	DatasetPath string
	Seed        int64
	// Memory disables persistence when set.
	Memory bool
}

// Default returns the settings used when nothing else is given.
func Default() *Config {
	return &Config{
		Addr:          ":3000",
		ModelPath:     "models/ocr_neural_network.json",
		PersistToDisk: true,
		HiddenNodes:   20,
		MaxBackups:    5,
	}
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := parseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv updates cfg from PORT, OCR_MODEL_PATH, OCR_HIDDEN_NODES and
// OCR_DATASET as reported by lookup (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Addr = ":" + v
	}
	if v, ok := lookup("OCR_MODEL_PATH"); ok && v != "" {
		c.ModelPath = v
	}
	if v, ok := lookup("OCR_HIDDEN_NODES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OCR_HIDDEN_NODES: %w", err)
		}
		c.HiddenNodes = n
	}
	if v, ok := lookup("OCR_DATASET"); ok && v != "" {
		c.DatasetPath = v
	}
	return nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.ModelPath != "" {
		c.ModelPath = o.ModelPath
	}
	if o.HiddenNodes > 0 {
		c.HiddenNodes = o.HiddenNodes
	}
	if o.MaxBackups > 0 {
		c.MaxBackups = o.MaxBackups
	}
	if o.DatasetPath != "" {
		c.DatasetPath = o.DatasetPath
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Memory {
		c.PersistToDisk = false
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Addr == "" {
		return errors.New("addr must be set")
	}
	if c.PersistToDisk && c.ModelPath == "" {
		return errors.New("model_path must be set when persist_to_disk is on")
	}
	if c.HiddenNodes <= 0 {
		return fmt.Errorf("hidden_nodes must be > 0 (got %d)", c.HiddenNodes)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("max_backups must be >= 0 (got %d)", c.MaxBackups)
	}
	return nil
}
