// Package config loads and validates server configuration. Settings come
// from an optional .mcontext.toml file in the workspace root, with
// MCONTEXT_* environment variables overriding individual values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is the config file looked up in the workspace root
const DefaultFileName = ".mcontext.toml"

// Default values applied before any file or environment override
const (
	DefaultDebounceMs     = 500
	DefaultCacheCapacity  = 500
	DefaultCacheTTLMin    = 5
	DefaultMaxCompletions = 50
	DefaultMaxDiagnostics = 100
	DefaultAnalyzerName   = "mlint"
	DefaultTimeoutSec     = 10
)

// Config is the full server configuration
type Config struct {
	Workspace   Workspace   `toml:"workspace"`
	Analyzer    Analyzer    `toml:"analyzer"`
	Cache       Cache       `toml:"cache"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Completion  Completion  `toml:"completion"`
}

// Workspace controls which files the scanner indexes
type Workspace struct {
	Root    string   `toml:"root"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// Analyzer configures the external lint tool
type Analyzer struct {
	Path       string `toml:"path"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// Cache bounds the parse and analyzer result caches
type Cache struct {
	Capacity int `toml:"capacity"`
	TTLMin   int `toml:"ttl_min"`
}

// Diagnostics controls the publishing pipeline
type Diagnostics struct {
	DebounceMs int             `toml:"debounce_ms"`
	MaxPerFile int             `toml:"max_per_file"`
	Rules      map[string]bool `toml:"rules"`
}

// Completion bounds query results
type Completion struct {
	MaxResults int `toml:"max_results"`
}

// Default returns a Config populated with built-in defaults
func Default() *Config {
	return &Config{
		Workspace: Workspace{
			Include: []string{"**/*.m"},
			Exclude: []string{"**/.git/**", "**/node_modules/**"},
		},
		Analyzer: Analyzer{
			Path:       DefaultAnalyzerName,
			TimeoutSec: DefaultTimeoutSec,
		},
		Cache: Cache{
			Capacity: DefaultCacheCapacity,
			TTLMin:   DefaultCacheTTLMin,
		},
		Diagnostics: Diagnostics{
			DebounceMs: DefaultDebounceMs,
			MaxPerFile: DefaultMaxDiagnostics,
		},
		Completion: Completion{
			MaxResults: DefaultMaxCompletions,
		},
	}
}

// Load builds the effective configuration for a workspace root, reading
// DefaultFileName from the root when present. A missing config file is
// not an error; a malformed one is. Environment overrides apply last.
func Load(root string) (*Config, error) {
	return LoadFile(filepath.Join(root, DefaultFileName), root)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path, root string) (*Config, error) {
	cfg := Default()
	cfg.Workspace.Root = root

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file, defaults apply
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays MCONTEXT_* environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv("MCONTEXT_ANALYZER_PATH"); v != "" {
		c.Analyzer.Path = v
	}
	if v, ok := envInt("MCONTEXT_ANALYZER_TIMEOUT_SEC"); ok {
		c.Analyzer.TimeoutSec = v
	}
	if v, ok := envInt("MCONTEXT_DEBOUNCE_MS"); ok {
		c.Diagnostics.DebounceMs = v
	}
	if v, ok := envInt("MCONTEXT_CACHE_CAPACITY"); ok {
		c.Cache.Capacity = v
	}
	if v, ok := envInt("MCONTEXT_CACHE_TTL_MIN"); ok {
		c.Cache.TTLMin = v
	}
	if v, ok := envInt("MCONTEXT_MAX_COMPLETIONS"); ok {
		c.Completion.MaxResults = v
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks that numeric settings are usable
func (c *Config) Validate() error {
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache capacity must be at least 1, got %d", c.Cache.Capacity)
	}
	if c.Cache.TTLMin < 1 {
		return fmt.Errorf("cache ttl must be at least 1 minute, got %d", c.Cache.TTLMin)
	}
	if c.Diagnostics.DebounceMs < 0 {
		return fmt.Errorf("debounce must not be negative, got %d", c.Diagnostics.DebounceMs)
	}
	if c.Completion.MaxResults < 1 {
		return fmt.Errorf("max completions must be at least 1, got %d", c.Completion.MaxResults)
	}
	if c.Analyzer.TimeoutSec < 1 {
		return fmt.Errorf("analyzer timeout must be at least 1 second, got %d", c.Analyzer.TimeoutSec)
	}
	return nil
}

// Debounce returns the diagnostics debounce window as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Diagnostics.DebounceMs) * time.Millisecond
}

// CacheTTL returns the cache entry lifetime as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMin) * time.Minute
}

// AnalyzerTimeout returns the per-run analyzer timeout as a duration
func (c *Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.Analyzer.TimeoutSec) * time.Second
}
