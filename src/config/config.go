package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".docedit.yaml"

// Config holds the editor settings.
type Config struct {
	// HistoryLimit bounds the undo stack of each document (default: 1000)
	HistoryLimit int `yaml:"history_limit,omitempty"`

	// StateFile stores the workspace session between runs (default: .editor_workspace)
	StateFile string `yaml:"state_file,omitempty"`

	// XMLExtensions lists file extensions opened as XML documents (default: [".xml"])
	XMLExtensions []string `yaml:"xml_extensions,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	SpellCheck SpellCheckConfig `yaml:"spell_check,omitempty"`
}

// LogConfig configures the per-document command log.
type LogConfig struct {
	// TimeLayout is a Go time layout for log timestamps (default: 20060102 15:04:05)
	TimeLayout string `yaml:"time_layout,omitempty"`
}

// SpellCheckConfig configures the spell checker.
type SpellCheckConfig struct {
	// ExtraWords are accepted in addition to the built-in dictionary
	ExtraWords []string `yaml:"extra_words,omitempty"`

	// MaxSuggestions caps suggestions per word (default: 3)
	MaxSuggestions int `yaml:"max_suggestions,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HistoryLimit:  1000,
		StateFile:     ".editor_workspace",
		XMLExtensions: []string{".xml"},
		Log:           LogConfig{TimeLayout: "20060102 15:04:05"},
		SpellCheck:    SpellCheckConfig{MaxSuggestions: 3},
	}
}

// Load reads path and fills unset fields with defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.merge(loaded)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.HistoryLimit != 0 {
		c.HistoryLimit = o.HistoryLimit
	}
	if o.StateFile != "" {
		c.StateFile = o.StateFile
	}
	if len(o.XMLExtensions) > 0 {
		c.XMLExtensions = o.XMLExtensions
	}
	if o.Log.TimeLayout != "" {
		c.Log.TimeLayout = o.Log.TimeLayout
	}
	if len(o.SpellCheck.ExtraWords) > 0 {
		c.SpellCheck.ExtraWords = o.SpellCheck.ExtraWords
	}
	if o.SpellCheck.MaxSuggestions != 0 {
		c.SpellCheck.MaxSuggestions = o.SpellCheck.MaxSuggestions
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.SpellCheck.MaxSuggestions < 1 {
		return fmt.Errorf("spell_check.max_suggestions must be positive, got %d", c.SpellCheck.MaxSuggestions)
	}
	for i, ext := range c.XMLExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("xml_extensions[%d]: %q must start with a dot", i, ext)
		}
	}
	return nil
}

// IsXML reports whether path has one of the configured XML extensions.
func (c *Config) IsXML(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.XMLExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
