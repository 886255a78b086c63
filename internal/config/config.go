package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML presets shape. Every field is optional;
// nil means "not set" so that command-line flags and defaults fill the gap.
type FileConfig struct {
	FilePatterns *string `yaml:"file_patterns"`
	Exclude      *string `yaml:"exclude"`
	Recursive    *bool   `yaml:"recursive"`
	IgnoreCase   *bool   `yaml:"ignore_case"`
	FixedStrings *bool   `yaml:"fixed_strings"`
	NoColor      *bool   `yaml:"no_color"`
	Verbose      *bool   `yaml:"verbose"`
	Encoding     *string `yaml:"encoding"`
	MaxFileBytes *int64  `yaml:"max_file_bytes"`

	// Archive handling mirrors the CLI flags
	ExtractArchives *bool  `yaml:"extract_archives"`
	MaxDepth        *int   `yaml:"max_depth"`
	MaxArchiveBytes *int64 `yaml:"max_archive_bytes"`
	MaxEntries      *int   `yaml:"max_entries"`
}

// LoadFile reads a YAML presets file from the provided path. Unknown keys
// are rejected so that typos do not silently fall back to defaults. An empty
// file yields an empty FileConfig.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
