package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/GonzoDMX/modextract/internal/labels"
	"github.com/GonzoDMX/modextract/internal/pipeline"
)

var ErrInvalid = errors.New("invalid configuration")

// Load returns CurrentDefaults overlaid with the YAML file at path. An
// empty path yields the defaults.
func Load(path string) (SystemConfig, error) {
	cfg := CurrentDefaults
	cfg.Categories = append([]string(nil), CurrentDefaults.Categories...)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the window geometry and label set are usable.
func (c SystemConfig) Validate() error {
	if _, err := c.Chunker(); err != nil {
		return fmt.Errorf("%w: training: %v", ErrInvalid, err)
	}
	if _, err := c.Windower(); err != nil {
		return fmt.Errorf("%w: inference: %v", ErrInvalid, err)
	}
	if c.Inference.MaxTokens+2 > c.ClassifierModel.ContextLength && c.ClassifierModel.ContextLength > 0 {
		return fmt.Errorf("%w: inference.max_tokens %d plus markers exceeds classifier context %d",
			ErrInvalid, c.Inference.MaxTokens, c.ClassifierModel.ContextLength)
	}
	if c.Inference.BatchSize < 0 {
		return fmt.Errorf("%w: inference.batch_size must be >= 0", ErrInvalid)
	}
	if _, err := c.LabelTable(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// LabelTable builds the label table for the configured categories.
func (c SystemConfig) LabelTable() (*labels.Table, error) {
	return labels.NewTable(c.Categories)
}

// Chunker builds the training chunker.
func (c SystemConfig) Chunker() (*pipeline.Chunker, error) {
	return pipeline.NewChunker(c.Training.ChunkSize, c.Training.Stride, c.Markers)
}

// Windower builds the inference windower.
func (c SystemConfig) Windower() (*pipeline.Windower, error) {
	return pipeline.NewWindower(c.Inference.MaxTokens, c.Inference.Overlap, c.Markers)
}

// LabelSet is the fingerprint stamped into databases.
func (c SystemConfig) LabelSet() string {
	return strings.Join(c.Categories, ",")
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
