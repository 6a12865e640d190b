// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sessionchat.
//
// Configuration file locations (in order of precedence):
//   - SESSIONCHAT_* environment variables (a .env file is loaded first)
//   - ~/.sessionchat/config.toml
//   - ~/.sessionchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/sessionchat/internal/util"
)

// Variant selects which flavor of the client runs.
const (
	// VariantReactive requires login, attaches the bearer token and streams
	// replies into the display as they arrive.
	VariantReactive = "reactive"

	// VariantPlain has no auth, selects new sessions and reloads history
	// once a reply finishes.
	VariantPlain = "plain"
)

// HomeEnv overrides the configuration directory.
const HomeEnv = "SESSIONCHAT_HOME"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sessionchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Remote chat API
	API APIConfig `toml:"api" json:"api"`

	// Client behavior
	Client ClientConfig `toml:"client" json:"client"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`

	// OpenTelemetry export
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`
}

// APIConfig describes the remote chat API.
type APIConfig struct {
	// BaseURL is the API root (default: http://127.0.0.1:8000)
	BaseURL string `toml:"base_url" json:"base_url"`

	// RequestTimeoutSecs bounds non-streaming calls. Reply streams are
	// never timed out.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// ClientConfig contains front-end settings.
type ClientConfig struct {
	// Variant is "reactive" or "plain".
	Variant string `toml:"variant" json:"variant"`

	// DefaultModel is sent with each message until the user picks one.
	DefaultModel string `toml:"default_model" json:"default_model"`

	// DefaultTitle names sessions created without a title.
	DefaultTitle string `toml:"default_title" json:"default_title"`

	// PrefsPath is the local preference database. Empty means
	// ~/.sessionchat/prefs.db.
	PrefsPath string `toml:"prefs_path" json:"prefs_path"`

	// HistoryPath is the REPL line history file. Empty means
	// ~/.sessionchat/history.
	HistoryPath string `toml:"history_path" json:"history_path"`

	// Markdown renders assistant replies with glamour once complete.
	Markdown bool `toml:"markdown" json:"markdown"`
}

// LogConfig controls the rotated log file.
type LogConfig struct {
	Level      string `toml:"level" json:"level"`
	File       string `toml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

// TelemetryConfig controls trace and metric export.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Dir     string `toml:"dir" json:"dir"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:            "http://127.0.0.1:8000",
			RequestTimeoutSecs: 30,
		},
		Client: ClientConfig{
			Variant:      VariantReactive,
			DefaultModel: "gemma3:1b",
			DefaultTitle: "New chat",
			Markdown:     true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// RequestTimeout returns the timeout for non-streaming calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// IsPlain reports whether the plain variant is configured.
func (c *Config) IsPlain() bool {
	return c.Client.Variant == VariantPlain
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sessionchat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sessionchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides (including a .env file) are applied last.
//
// A file that fails to parse does not stop the program: defaults are
// returned together with the load error.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	loaded := false
	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		if err := LoadTOML(cfg, tomlPath); err != nil {
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			cfg = Default()
		} else {
			loaded = true
		}
	}

	if !loaded {
		if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
				cfg = Default()
			}
		}
	}

	loadDotEnv()
	cfg.ApplyEnvOverrides()
	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// loadDotEnv reads .env from the working directory and the config
// directory. Variables already set in the environment win.
func loadDotEnv() {
	candidates := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if fileExists(path) {
			_ = godotenv.Load(path)
		}
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.RequestTimeoutSecs == 0 {
		cfg.API.RequestTimeoutSecs = defaults.API.RequestTimeoutSecs
	}
	if cfg.Client.Variant == "" {
		cfg.Client.Variant = defaults.Client.Variant
	}
	if cfg.Client.DefaultModel == "" {
		cfg.Client.DefaultModel = defaults.Client.DefaultModel
	}
	if cfg.Client.DefaultTitle == "" {
		cfg.Client.DefaultTitle = defaults.Client.DefaultTitle
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
}

// fillPaths resolves empty file locations into the config directory.
func (c *Config) fillPaths() {
	dir, err := ConfigDir()
	if err != nil {
		return
	}
	if c.Client.PrefsPath == "" {
		c.Client.PrefsPath = filepath.Join(dir, "prefs.db")
	}
	if c.Client.HistoryPath == "" {
		c.Client.HistoryPath = filepath.Join(dir, "history")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, "logs", "sessionchat.log")
	}
	if c.Telemetry.Dir == "" {
		c.Telemetry.Dir = filepath.Join(dir, "logs")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	sb.WriteString("# sessionchat configuration file\n")
	sb.WriteString("# Generated by sessionchat - edit with care\n\n")

	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{"api.base_url", fmt.Sprintf("invalid URL: %v", err)})
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, ValidationError{"api.base_url", fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)})
	case u.Host == "":
		errs = append(errs, ValidationError{"api.base_url", "missing host"})
	}

	if c.API.RequestTimeoutSecs < 1 || c.API.RequestTimeoutSecs > 600 {
		errs = append(errs, ValidationError{"api.request_timeout_secs", "must be between 1 and 600"})
	}

	if c.Client.Variant != VariantReactive && c.Client.Variant != VariantPlain {
		errs = append(errs, ValidationError{
			"client.variant",
			fmt.Sprintf("invalid variant '%s', must be one of: %s, %s", c.Client.Variant, VariantReactive, VariantPlain),
		})
	}

	if strings.TrimSpace(c.Client.DefaultModel) == "" {
		errs = append(errs, ValidationError{"client.default_model", "cannot be empty"})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			"log.level",
			fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{"log", "rotation limits cannot be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SESSIONCHAT_URL: overrides api.base_url
//   - SESSIONCHAT_MODEL: overrides client.default_model
//   - SESSIONCHAT_VARIANT: overrides client.variant
//   - SESSIONCHAT_TIMEOUT: overrides api.request_timeout_secs
//   - SESSIONCHAT_LOG_LEVEL: overrides log.level
//   - SESSIONCHAT_TELEMETRY: set to "1" or "true" to export telemetry
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SESSIONCHAT_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SESSIONCHAT_MODEL"); v != "" {
		c.Client.DefaultModel = v
	}
	if v := os.Getenv("SESSIONCHAT_VARIANT"); v != "" {
		c.Client.Variant = strings.ToLower(v)
	}
	if v := os.Getenv("SESSIONCHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.API.RequestTimeoutSecs = secs
		}
	}
	if v := os.Getenv("SESSIONCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SESSIONCHAT_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = v == "1" || strings.ToLower(v) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// settable maps dot-notation keys to accessors on Config.
var settable = map[string]struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}{
	"api.base_url": {
		func(c *Config) string { return c.API.BaseURL },
		func(c *Config, v string) error { c.API.BaseURL = v; return nil },
	},
	"api.request_timeout_secs": {
		func(c *Config) string { return strconv.Itoa(c.API.RequestTimeoutSecs) },
		func(c *Config, v string) error { return setInt(&c.API.RequestTimeoutSecs, v) },
	},
	"client.variant": {
		func(c *Config) string { return c.Client.Variant },
		func(c *Config, v string) error { c.Client.Variant = strings.ToLower(v); return nil },
	},
	"client.default_model": {
		func(c *Config) string { return c.Client.DefaultModel },
		func(c *Config, v string) error { c.Client.DefaultModel = v; return nil },
	},
	"client.default_title": {
		func(c *Config) string { return c.Client.DefaultTitle },
		func(c *Config, v string) error { c.Client.DefaultTitle = v; return nil },
	},
	"client.markdown": {
		func(c *Config) string { return strconv.FormatBool(c.Client.Markdown) },
		func(c *Config, v string) error { return setBool(&c.Client.Markdown, v) },
	},
	"log.level": {
		func(c *Config) string { return c.Log.Level },
		func(c *Config, v string) error { c.Log.Level = v; return nil },
	},
	"telemetry.enabled": {
		func(c *Config) string { return strconv.FormatBool(c.Telemetry.Enabled) },
		func(c *Config, v string) error { return setBool(&c.Telemetry.Enabled, v) },
	},
}

// Get returns a configuration value by dot-notation key (e.g. "api.base_url").
func (c *Config) Get(key string) (string, error) {
	acc, ok := settable[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown key: %s", key)
	}
	return acc.get(c), nil
}

// Set sets a configuration value by dot-notation key and re-validates.
// On a validation failure the config is left unchanged.
func (c *Config) Set(key, value string) error {
	acc, ok := settable[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	next := *c
	if err := acc.set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Keys returns all settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not an integer: %q", v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("not a boolean: %q", v)
	}
	*dst = b
	return nil
}

// String returns a JSON representation of the config for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
