package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-directory configuration file.
const ProjectFileName = ".pdfsearch.yaml"

// Config represents the complete pdfsearch configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Paths   PathsConfig  `yaml:"paths" json:"paths"`
	Index   IndexConfig  `yaml:"index" json:"index"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Render  RenderConfig `yaml:"render" json:"render"`
	Server  ServerConfig `yaml:"server" json:"server"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
}

// PathsConfig locates the document tree and the index data.
type PathsConfig struct {
	// BaseDir is the fixed base directory; every scope must stay inside it.
	// Empty means the directory passed to Load.
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// DataDir holds the SQLite index and the indexing lock.
	// Empty means <base_dir>/.pdfsearch.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Exclude are doublestar globs, relative to the scope root, of PDFs to skip.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IndexConfig tunes text extraction.
type IndexConfig struct {
	// MinTextLength is the native text length below which a page is OCRed.
	MinTextLength int `yaml:"min_text_length" json:"min_text_length"`

	// OCREnabled turns the OCR fallback on or off.
	OCREnabled bool `yaml:"ocr_enabled" json:"ocr_enabled"`

	// OCRDPI is the rasterization resolution used for OCR.
	OCRDPI float64 `yaml:"ocr_dpi" json:"ocr_dpi"`

	// OCRLanguage is the tesseract language code.
	OCRLanguage string `yaml:"ocr_language" json:"ocr_language"`
}

// SearchConfig tunes full-text search.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`

	// SnippetTokens is the FTS5 snippet length in tokens (1-64).
	SnippetTokens int `yaml:"snippet_tokens" json:"snippet_tokens"`
}

// RenderConfig tunes page rendering and highlighting.
type RenderConfig struct {
	DPI              float64 `yaml:"dpi" json:"dpi"`
	CacheSize        int     `yaml:"cache_size" json:"cache_size"`
	Workers          int     `yaml:"workers" json:"workers"`
	HighlightPadding float64 `yaml:"highlight_padding" json:"highlight_padding"`
	HighlightWidth   int     `yaml:"highlight_width" json:"highlight_width"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Transport is "stdio" or "http".
	Transport string `yaml:"transport" json:"transport"`
	// Addr is the listen address for the http transport.
	Addr     string `yaml:"addr" json:"addr"`
	LogLevel string `yaml:"log_level" json:"log_level"`
	// IndexOnStart runs an incremental index when the server starts.
	IndexOnStart bool `yaml:"index_on_start" json:"index_on_start"`
}

// WatchConfig configures filesystem watching in serve mode.
type WatchConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Debounce string `yaml:"debounce" json:"debounce"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Exclude: []string{},
		},
		Index: IndexConfig{
			MinTextLength: 50,
			OCREnabled:    true,
			OCRDPI:        300,
			OCRLanguage:   "pol",
		},
		Search: SearchConfig{
			DefaultLimit:  100,
			SnippetTokens: 40,
		},
		Render: RenderConfig{
			DPI:              150,
			CacheSize:        50,
			Workers:          2,
			HighlightPadding: 2,
			HighlightWidth:   2,
		},
		Server: ServerConfig{
			Transport:    "stdio",
			Addr:         "127.0.0.1:8765",
			LogLevel:     "info",
			IndexOnStart: true,
		},
		Watch: WatchConfig{
			Enabled:  false,
			Debounce: "2s",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
// $XDG_CONFIG_HOME/pdfsearch/config.yaml or ~/.config/pdfsearch/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pdfsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "pdfsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "pdfsearch", "config.yaml")
}

// Load loads configuration for the base directory dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/pdfsearch/config.yaml)
//  3. Project config (.pdfsearch.yaml in dir)
//  4. .env in dir (never overrides variables already set)
//  5. Environment variables (PDFSEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if envPath := filepath.Join(dir, ".env"); fileExists(envPath) {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Paths.BaseDir == "" {
		cfg.Paths.BaseDir = dir
	}
	abs, err := filepath.Abs(cfg.Paths.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}
	cfg.Paths.BaseDir = abs

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads .pdfsearch.yaml or .pdfsearch.yml from dir if present.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{ProjectFileName, ".pdfsearch.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML decodes path on top of the current values, so only keys present
// in the file change anything.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies PDFSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PDFSEARCH_BASE_DIR"); v != "" {
		c.Paths.BaseDir = v
	}
	if v := os.Getenv("PDFSEARCH_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("PDFSEARCH_MIN_TEXT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Index.MinTextLength = n
		}
	}
	if v := os.Getenv("PDFSEARCH_OCR_ENABLED"); v != "" {
		c.Index.OCREnabled = parseBool(v)
	}
	if v := os.Getenv("PDFSEARCH_OCR_LANGUAGE"); v != "" {
		c.Index.OCRLanguage = v
	}
	if v := os.Getenv("PDFSEARCH_OCR_DPI"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Index.OCRDPI = f
		}
	}
	if v := os.Getenv("PDFSEARCH_RENDER_DPI"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Render.DPI = f
		}
	}
	if v := os.Getenv("PDFSEARCH_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("PDFSEARCH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PDFSEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("PDFSEARCH_WATCH"); v != "" {
		c.Watch.Enabled = parseBool(v)
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// DataDirPath returns the directory holding the index and lock files.
func (c *Config) DataDirPath() string {
	if c.Paths.DataDir != "" {
		return c.Paths.DataDir
	}
	return filepath.Join(c.Paths.BaseDir, ".pdfsearch")
}

// IndexPath returns the SQLite index database path.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDirPath(), "index.db")
}

// WatchDebounce returns the parsed watch debounce window.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.MinTextLength < 0 {
		return fmt.Errorf("index.min_text_length must be non-negative, got %d", c.Index.MinTextLength)
	}
	if c.Index.OCRDPI <= 0 || c.Index.OCRDPI > 1200 {
		return fmt.Errorf("index.ocr_dpi must be in (0, 1200], got %g", c.Index.OCRDPI)
	}
	if c.Index.OCREnabled && strings.TrimSpace(c.Index.OCRLanguage) == "" {
		return fmt.Errorf("index.ocr_language is required when OCR is enabled")
	}

	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.SnippetTokens < 1 || c.Search.SnippetTokens > 64 {
		return fmt.Errorf("search.snippet_tokens must be between 1 and 64, got %d", c.Search.SnippetTokens)
	}

	if c.Render.DPI <= 0 || c.Render.DPI > 600 {
		return fmt.Errorf("render.dpi must be in (0, 600], got %g", c.Render.DPI)
	}
	if c.Render.CacheSize <= 0 {
		return fmt.Errorf("render.cache_size must be positive, got %d", c.Render.CacheSize)
	}
	if c.Render.Workers <= 0 {
		return fmt.Errorf("render.workers must be positive, got %d", c.Render.Workers)
	}
	if c.Render.HighlightPadding < 0 {
		return fmt.Errorf("render.highlight_padding must be non-negative, got %g", c.Render.HighlightPadding)
	}
	if c.Render.HighlightWidth <= 0 {
		return fmt.Errorf("render.highlight_width must be positive, got %d", c.Render.HighlightWidth)
	}

	for _, pattern := range c.Paths.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("paths.exclude has invalid glob pattern: %s", pattern)
		}
	}

	validTransports := map[string]bool{"stdio": true, "http": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'http', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce is not a duration: %w", err)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
