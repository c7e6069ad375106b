// Package config loads and validates govstandards configuration.
//
// Precedence, lowest to highest:
//
//  1. Built-in defaults (NewConfig, seeded from configs/default.yaml)
//  2. A YAML file: --config path, or govstandards.yaml / .yml in the
//     working directory, or ~/.config/govstandards/config.yaml
//  3. GOVSTD_* environment variables
//
// File layers merge field-by-field: only values actually present in the
// file override the layer below.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Version1/uk-gov-tech-standards-mcp/configs"
	apperrors "github.com/Version1/uk-gov-tech-standards-mcp/internal/errors"
)

// EnvPrefix is the prefix for all environment overrides.
const EnvPrefix = "GOVSTD_"

// Config is the complete runtime configuration.
type Config struct {
	// DataDir holds the document store and the semantic index sidecar.
	DataDir string `yaml:"data_dir"`

	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Categories is the externally maintained applicability table for
	// the closed category set. Document counts are never stored here;
	// they are computed live from the catalogue.
	Categories []Category `yaml:"categories"`
}

// SearchConfig tunes hybrid retrieval.
type SearchConfig struct {
	SemanticWeight    float64 `yaml:"semantic_weight"`
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	MaxResults        int     `yaml:"max_results"`
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider"`
	OllamaHost string `yaml:"ollama_host"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Category is one row of the applicability table: which kinds of work,
// service and delivery phase a guidance category applies to.
type Category struct {
	Name              string   `yaml:"name"`
	WorkTypes         []string `yaml:"work_types"`
	ServiceTypes      []string `yaml:"service_types"`
	DevelopmentPhases []string `yaml:"development_phases"`
	Priority          string   `yaml:"priority"`
	Mandatory         bool     `yaml:"mandatory"`
}

var (
	embeddedOnce sync.Once
	embedded     Config
	embeddedErr  error
)

// builtin parses configs/default.yaml once. The file is compiled into
// the binary, so a parse failure is a build defect, not a runtime
// condition.
func builtin() Config {
	embeddedOnce.Do(func() {
		embeddedErr = yaml.Unmarshal([]byte(configs.DefaultConfigTemplate), &embedded)
	})
	if embeddedErr != nil {
		panic(fmt.Sprintf("embedded default.yaml is invalid: %v", embeddedErr))
	}
	return embedded
}

// NewConfig returns the built-in defaults. DataDir is resolved to a
// per-user directory when the embedded file leaves it empty.
func NewConfig() *Config {
	cfg := builtin()

	// deep-copy the slices so callers can mutate freely
	cfg.Categories = append([]Category(nil), cfg.Categories...)
	for i := range cfg.Categories {
		cfg.Categories[i].WorkTypes = append([]string(nil), cfg.Categories[i].WorkTypes...)
		cfg.Categories[i].ServiceTypes = append([]string(nil), cfg.Categories[i].ServiceTypes...)
		cfg.Categories[i].DevelopmentPhases = append([]string(nil), cfg.Categories[i].DevelopmentPhases...)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return &cfg
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".govstandards"
	}
	return filepath.Join(home, ".govstandards")
}

// Load builds the effective configuration. path may be empty, in which
// case the standard file locations are probed and silently skipped when
// absent; a non-empty path must exist.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range defaultFilePaths() {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if err := cfg.loadFile(candidate); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultFilePaths() []string {
	paths := []string{"govstandards.yaml", "govstandards.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "govstandards", "config.yaml"))
	}
	return paths
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.New(apperrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), err)
		}
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot read config file: %s", path), err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse config file: %s", path), err)
	}

	c.mergeWith(&loaded, data)
	return nil
}

// mergeWith overlays values present in loaded onto c. Zero values are
// ambiguous in YAML ("did the file say 0 or say nothing?"), so the raw
// document decides whether a numeric zero was written explicitly.
func (c *Config) mergeWith(loaded *Config, raw []byte) {
	var keys map[string]yaml.Node
	_ = yaml.Unmarshal(raw, &keys)

	if loaded.DataDir != "" {
		c.DataDir = loaded.DataDir
	}

	if searchNode, ok := keys["search"]; ok {
		var sk map[string]yaml.Node
		_ = searchNode.Decode(&sk)
		if _, ok := sk["semantic_weight"]; ok {
			c.Search.SemanticWeight = loaded.Search.SemanticWeight
		}
		if _, ok := sk["semantic_threshold"]; ok {
			c.Search.SemanticThreshold = loaded.Search.SemanticThreshold
		}
		if _, ok := sk["max_results"]; ok {
			c.Search.MaxResults = loaded.Search.MaxResults
		}
	}

	if loaded.Embeddings.Provider != "" {
		c.Embeddings.Provider = loaded.Embeddings.Provider
	}
	if loaded.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = loaded.Embeddings.OllamaHost
	}
	if loaded.Embeddings.Model != "" {
		c.Embeddings.Model = loaded.Embeddings.Model
	}
	if loaded.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = loaded.Embeddings.Dimensions
	}
	if loaded.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = loaded.Embeddings.CacheSize
	}

	if loaded.Logging.Level != "" {
		c.Logging.Level = loaded.Logging.Level
	}
	if loaded.Logging.File != "" {
		c.Logging.File = loaded.Logging.File
	}

	// a categories block replaces the table wholesale; merging rows
	// would make it impossible to retire a built-in category
	if len(loaded.Categories) > 0 {
		c.Categories = loaded.Categories
	}
}

// applyEnvOverrides reads GOVSTD_* variables, the highest-precedence
// layer. Malformed numeric values are ignored rather than fatal.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvPrefix + "SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SemanticWeight = f
		}
	}
	if v := os.Getenv(EnvPrefix + "SEMANTIC_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SemanticThreshold = f
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv(EnvPrefix + "OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDINGS_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embeddings.Dimensions = n
		}
	}
	if v := os.Getenv(EnvPrefix + "CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Embeddings.CacheSize = n
		}
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

var validPriorities = map[string]bool{"": true, "low": true, "medium": true, "high": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate accumulates every problem with the effective configuration
// into a single error, so a broken file is reported in one pass.
func (c *Config) Validate() error {
	var errs []string

	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		errs = append(errs, fmt.Sprintf("search.semantic_weight must be in [0,1], got %g", c.Search.SemanticWeight))
	}
	if c.Search.SemanticThreshold < 0 || c.Search.SemanticThreshold > 1 {
		errs = append(errs, fmt.Sprintf("search.semantic_threshold must be in [0,1], got %g", c.Search.SemanticThreshold))
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, fmt.Sprintf("search.max_results must be at least 1, got %d", c.Search.MaxResults))
	}

	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		errs = append(errs, fmt.Sprintf("embeddings.provider must be %q or %q, got %q", "ollama", "static", c.Embeddings.Provider))
	}
	if c.Embeddings.Dimensions < 0 {
		errs = append(errs, fmt.Sprintf("embeddings.dimensions must not be negative, got %d", c.Embeddings.Dimensions))
	}
	if c.Embeddings.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("embeddings.cache_size must be at least 1, got %d", c.Embeddings.CacheSize))
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			errs = append(errs, "categories entries must have a name")
			continue
		}
		if seen[cat.Name] {
			errs = append(errs, fmt.Sprintf("duplicate category %q", cat.Name))
		}
		seen[cat.Name] = true
		if !validPriorities[cat.Priority] {
			errs = append(errs, fmt.Sprintf("category %q priority must be low, medium or high; got %q", cat.Name, cat.Priority))
		}
	}

	if len(errs) > 0 {
		return apperrors.New(apperrors.ErrCodeConfigInvalid,
			"invalid configuration: "+strings.Join(errs, "; "), nil)
	}
	return nil
}

// CategoryNames returns the configured category names in table order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// ApplicabilityFor looks up the applicability row for a category name.
func (c *Config) ApplicabilityFor(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// StorePath is the SQLite database file inside DataDir.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "standards.db")
}

// IndexPath is the semantic index snapshot inside DataDir.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "semantic.idx")
}
