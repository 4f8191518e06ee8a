package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/githubnext/rulecheck/pkg/constants"
)

// Config is the project configuration read from .rulecheck.yaml. Command line
// flags take precedence over every value here.
type Config struct {
	// Schema is a rule schema file replacing the embedded one
	Schema string `yaml:"schema"`
	// Catalog is a semantic catalog file replacing the embedded one
	Catalog string `yaml:"catalog"`
	// Lines annotates diagnostics with line numbers
	Lines *bool `yaml:"lines"`
	// Filter enables the cascade filter; defaults to true
	Filter *bool `yaml:"filter"`
	// Concurrency bounds how many files are validated in parallel
	Concurrency int `yaml:"concurrency"`
	// Exclude lists glob patterns of files skipped when expanding directories
	Exclude []string `yaml:"exclude"`
}

// LoadConfig reads the configuration file at path. An empty path looks for the
// default file in the working directory, and a missing default file is not an error.
// Relative schema and catalog paths are resolved against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = constants.DefaultConfigFile
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.Concurrency < 0 {
		return nil, fmt.Errorf("invalid config %s: concurrency must not be negative", path)
	}
	for _, pattern := range config.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid config %s: bad exclude pattern %q: %w", path, pattern, err)
		}
	}

	dir := filepath.Dir(path)
	config.Schema = resolveRelative(dir, config.Schema)
	config.Catalog = resolveRelative(dir, config.Catalog)
	return &config, nil
}

func resolveRelative(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// excluded reports whether file matches one of the configured exclude patterns,
// either by base name or by its slash-separated path
func (c *Config) excluded(file string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := filepath.Match(pattern, filepath.Base(file)); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.ToSlash(file)); ok {
			return true
		}
	}
	return false
}

// ValidateOptions holds the settings of a validate, watch or audit run after merging
// flags over the config file
type ValidateOptions struct {
	SchemaPath  string
	CatalogPath string
	Lines       bool
	NoFilter    bool
	JSON        bool
	Watch       bool
	Concurrency int
	Verbose     bool
}

// FlagOverrides carries the command line flags the user set explicitly
type FlagOverrides struct {
	SchemaPath  *string
	CatalogPath *string
	Lines       *bool
	NoFilter    *bool
	Concurrency *int
}

// Merge applies config values and then explicit flag values on top of base
func (c *Config) Merge(base ValidateOptions, flags FlagOverrides) ValidateOptions {
	opts := base
	if c.Schema != "" {
		opts.SchemaPath = c.Schema
	}
	if c.Catalog != "" {
		opts.CatalogPath = c.Catalog
	}
	if c.Lines != nil {
		opts.Lines = *c.Lines
	}
	if c.Filter != nil {
		opts.NoFilter = !*c.Filter
	}
	if c.Concurrency > 0 {
		opts.Concurrency = c.Concurrency
	}

	if flags.SchemaPath != nil {
		opts.SchemaPath = *flags.SchemaPath
	}
	if flags.CatalogPath != nil {
		opts.CatalogPath = *flags.CatalogPath
	}
	if flags.Lines != nil {
		opts.Lines = *flags.Lines
	}
	if flags.NoFilter != nil {
		opts.NoFilter = *flags.NoFilter
	}
	if flags.Concurrency != nil {
		opts.Concurrency = *flags.Concurrency
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = constants.MaxConcurrentValidations
	}
	return opts
}
