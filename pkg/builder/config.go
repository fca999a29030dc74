// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pranavsaji/Project-builder/pkg/llm"
)

// Config is the top-level configuration, loaded from configuration.yaml.
type Config struct {
	Build  BuildConfig  `yaml:"build"`
	LLM    llm.Config   `yaml:"llm"`
	Export ExportConfig `yaml:"export"`
}

// BuildConfig tunes the reconstruction pipeline. The tri-state bools
// default to true when absent from the file.
type BuildConfig struct {
	Mode               string `yaml:"mode"`
	RootFallback       string `yaml:"root_fallback"`
	MarkerFile         string `yaml:"marker_file"`
	BlobBatchSize      int    `yaml:"blob_batch_size"`
	UseLLMStructure    *bool  `yaml:"use_llm_structure"`
	UseLLMBackfill     *bool  `yaml:"use_llm_backfill"`
	CreatePlaceholders *bool  `yaml:"create_placeholders"`

	// Force ignores the run marker and rebuilds even when the dump is
	// unchanged. Set from the CLI, never from YAML.
	Force bool `yaml:"-"`
}

// ExportConfig tunes folder harvesting for document export.
type ExportConfig struct {
	MaxFileBytes  int64    `yaml:"max_file_bytes"`
	ExcludeTokens []string `yaml:"exclude_tokens"`
	IncludeHidden bool     `yaml:"include_hidden"`
}

func (c *Config) applyDefaults() {
	if c.Build.Mode == "" {
		c.Build.Mode = ModeSkip
	}
	if c.Build.RootFallback == "" {
		c.Build.RootFallback = "project"
	}
	if c.Build.MarkerFile == "" {
		c.Build.MarkerFile = defaultMarkerFile
	}
	if c.Build.BlobBatchSize == 0 {
		c.Build.BlobBatchSize = blobBatchDefault
	}
	if c.Export.MaxFileBytes == 0 {
		c.Export.MaxFileBytes = 1 << 20
	}
	if len(c.Export.ExcludeTokens) == 0 {
		c.Export.ExcludeTokens = []string{"node_modules", "__pycache__", ".venv", "dist"}
	}
}

// UseStructure reports whether gateway structure inference is enabled.
func (c *BuildConfig) UseStructure() bool {
	return c.UseLLMStructure == nil || *c.UseLLMStructure
}

// UseBackfill reports whether gateway fabrication is enabled.
func (c *BuildConfig) UseBackfill() bool {
	return c.UseLLMBackfill == nil || *c.UseLLMBackfill
}

// Placeholders reports whether content-less declared paths become
// zero-byte files.
func (c *BuildConfig) Placeholders() bool {
	return c.CreatePlaceholders == nil || *c.CreatePlaceholders
}

// DefaultConfig returns a ready-to-use configuration.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML configuration file and applies defaults. A
// missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Build.Mode != "" && cfg.Build.Mode != ModeSkip && cfg.Build.Mode != ModeOverwrite {
		return cfg, fmt.Errorf("config %s: invalid build.mode %q (want %q or %q)",
			path, cfg.Build.Mode, ModeSkip, ModeOverwrite)
	}
	cfg.applyDefaults()
	return cfg, nil
}
