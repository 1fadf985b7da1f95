package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"github.com/ysh86/DPtools/fm"
	"github.com/ysh86/DPtools/frame"
)

type Config struct {
	LogLevel    string `yaml:"log_level"`
	InitialLine int    `yaml:"initial_line"`
	SyncBytes   int    `yaml:"sync_bytes"`
	TextColumns int    `yaml:"text_columns"`
	Wav         struct {
		SampleRate    int `yaml:"sample_rate"`
		SamplesPerBit int `yaml:"samples_per_bit"`
	} `yaml:"wav"`
}

func Default() Config {
	var c Config
	c.LogLevel = "info"
	c.InitialLine = 0
	c.SyncBytes = frame.DefaultSyncBytes
	c.TextColumns = 64
	c.Wav.SampleRate = 48000
	c.Wav.SamplesPerBit = 8
	return c
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(contents, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.InitialLine != 0 && c.InitialLine != 1 {
		return fmt.Errorf("initial_line must be 0 or 1, got %d", c.InitialLine)
	}
	if c.SyncBytes < 0 {
		return fmt.Errorf("sync_bytes must not be negative, got %d", c.SyncBytes)
	}
	if c.Wav.SampleRate < 1 || c.Wav.SamplesPerBit < 1 {
		return fmt.Errorf("wav: sample_rate %d and samples_per_bit %d must be positive", c.Wav.SampleRate, c.Wav.SamplesPerBit)
	}
	return nil
}

func (c Config) Line() fm.LineState {
	return fm.LineOf(byte(c.InitialLine))
}

// Level returns the configured log level, info if it does not parse.
func (c Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
