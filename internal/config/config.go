package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Output       string  `yaml:"output"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
	LogLevel     string  `yaml:"log_level"`
	LogFile      string  `yaml:"log_file"`
	SamplesOut   string  `yaml:"samples_out"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Output     string
	Epochs     int
	BatchSize  int
	Seed       int64
	LogEvery   int
	LogLevel   string
	LogFile    string
	SamplesOut string
}

// Load reads YAML from path on top of base. Keys absent from the file keep
// their base value; unknown keys are an error.
func Load(path string, base Config) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}

	cfg := base
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.SamplesOut != "" {
		c.SamplesOut = o.SamplesOut
	}
}

// Validate verifies the config is runnable and fills optional defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Output == "" {
		return errors.New("output path must be set")
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate < 0 {
		return errors.Errorf("learning_rate must be >= 0 (got %g)", c.LearningRate)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 100
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}
