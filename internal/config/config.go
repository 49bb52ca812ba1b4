// Package config loads and validates bwfind configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/bwfind/config.yaml)
//  3. Local config (.bwfind.yaml in the working directory)
//  4. Environment variables (BWFIND_*)
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bwfind configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Library  LibraryConfig  `yaml:"library"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Index    IndexConfig    `yaml:"index"`
	LogLevel string         `yaml:"log_level"`
}

// LibraryConfig configures which content roots to crawl.
type LibraryConfig struct {
	// Roots are the directories scanned for packages and loose content.
	Roots []string `yaml:"roots"`
}

// DatabaseConfig configures catalog storage.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" creates an ephemeral catalog.
	Path string `yaml:"path"`
}

// SearchConfig configures relevance ranking.
//
// The three weights are a documented policy constant, not a hard law; they may
// be recalibrated per install but must sum to 1.0.
type SearchConfig struct {
	// LexicalWeight scales the full-text rank component.
	LexicalWeight float64 `yaml:"lexical_weight"`

	// NameWeight scales the query-to-name trigram similarity component.
	NameWeight float64 `yaml:"name_weight"`

	// DeviceWeight scales the query-to-parent-device similarity component.
	DeviceWeight float64 `yaml:"device_weight"`

	// SimilarityFloor is the minimum trigram similarity for a fuzzy-only match.
	SimilarityFloor float64 `yaml:"similarity_floor"`

	// DefaultLimit is the result page size when the caller does not set one.
	DefaultLimit int `yaml:"default_limit"`

	// TrigramCacheSize bounds the LRU cache of per-name trigram sets.
	TrigramCacheSize int `yaml:"trigram_cache_size"`
}

// IndexConfig configures crawler behavior.
type IndexConfig struct {
	// Workers is the number of parallel extraction workers.
	Workers int `yaml:"workers"`

	// WatchDebounce is the quiet period before a watch-triggered reindex.
	WatchDebounce string `yaml:"watch_debounce"`
}

// New returns a Config with sensible defaults.
func New() *Config {
	return &Config{
		Version: 1,
		Library: LibraryConfig{
			Roots: defaultLibraryRoots(),
		},
		Database: DatabaseConfig{
			Path: DefaultDatabasePath(),
		},
		Search: SearchConfig{
			LexicalWeight:    0.5,
			NameWeight:       0.3,
			DeviceWeight:     0.2,
			SimilarityFloor:  0.3,
			DefaultLimit:     20,
			TrigramCacheSize: 4096,
		},
		Index: IndexConfig{
			Workers:       runtime.NumCPU(),
			WatchDebounce: "500ms",
		},
		LogLevel: "info",
	}
}

// DefaultDatabasePath returns the default catalog database location.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".bwfind", "catalog.db")
	}
	return filepath.Join(home, ".bwfind", "catalog.db")
}

// defaultLibraryRoots returns the standard Bitwig content locations.
func defaultLibraryRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "Library", "Application Support", "Bitwig", "Bitwig Studio"),
		filepath.Join(home, "Documents", "Bitwig Studio", "Library"),
	}
}

// UserConfigPath returns the path to the user configuration file.
// Honors XDG_CONFIG_HOME when set.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bwfind", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "bwfind", "config.yaml")
	}
	return filepath.Join(home, ".config", "bwfind", "config.yaml")
}

// Load loads configuration from defaults, config files, and environment.
func Load(dir string) (*Config, error) {
	cfg := New()

	if path := UserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if local := filepath.Join(dir, ".bwfind.yaml"); fileExists(local) {
		if err := cfg.loadYAML(local); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Library.Roots) > 0 {
		c.Library.Roots = other.Library.Roots
	}
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.NameWeight != 0 {
		c.Search.NameWeight = other.Search.NameWeight
	}
	if other.Search.DeviceWeight != 0 {
		c.Search.DeviceWeight = other.Search.DeviceWeight
	}
	if other.Search.SimilarityFloor != 0 {
		c.Search.SimilarityFloor = other.Search.SimilarityFloor
	}
	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.TrigramCacheSize != 0 {
		c.Search.TrigramCacheSize = other.Search.TrigramCacheSize
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.WatchDebounce != "" {
		c.Index.WatchDebounce = other.Index.WatchDebounce
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies BWFIND_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BWFIND_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("BWFIND_LIBRARY_ROOTS"); v != "" {
		c.Library.Roots = strings.Split(v, string(os.PathListSeparator))
	}
	if v := os.Getenv("BWFIND_SIMILARITY_FLOOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			c.Search.SimilarityFloor = f
		}
	}
	if v := os.Getenv("BWFIND_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("BWFIND_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	sum := c.Search.LexicalWeight + c.Search.NameWeight + c.Search.DeviceWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("search weights must sum to 1.0, got %.2f", sum)
	}
	if c.Search.SimilarityFloor < 0 || c.Search.SimilarityFloor > 1 {
		return fmt.Errorf("similarity_floor must be between 0 and 1, got %f", c.Search.SimilarityFloor)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Index.Workers <= 0 {
		return fmt.Errorf("index workers must be positive, got %d", c.Index.Workers)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
