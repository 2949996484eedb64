package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPaths are searched in priority order; the first is the most specific
var ConfigPaths = []string{
	"./.terrawatch.yaml",
	"~/.config/terrawatch/config.yaml",
	"/etc/terrawatch/config.yaml",
}

// EnvPrefix prefixes every environment override
const EnvPrefix = "TERRAWATCH_"

// Loader builds a Config from defaults, yaml files, dotenv files and the environment
type Loader struct {
	configPaths []string
	envFiles    []string
}

// NewLoader searches ConfigPaths and reads ./.env
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		envFiles:    []string{".env"},
	}
}

// WithEnvFiles replaces the dotenv files read before env overrides
func (l *Loader) WithEnvFiles(files ...string) *Loader {
	l.envFiles = files
	return l
}

// LoadConfig layers the sources, later ones winning:
// defaults, system file, user file, project file (or only customPath when set),
// dotenv files, then TERRAWATCH_* variables. Flags are applied by the caller.
// A dotenv file never replaces a variable that is already set.
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	cfg := DefaultConfig()

	if err := l.applyFiles(cfg, customPath); err != nil {
		return nil, err
	}
	if err := l.loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) applyFiles(cfg *Config, customPath string) error {
	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		if err := mergeFile(cfg, customPath); err != nil {
			return fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
		return nil
	}

	for i := len(l.configPaths) - 1; i >= 0; i-- {
		path := expandPath(l.configPaths[i])
		if !fileExists(path) {
			continue
		}
		// a broken shared file should not lock the user out
		if err := mergeFile(cfg, path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ignoring config %s: %v\n", path, err)
		}
	}
	return nil
}

func (l *Loader) loadEnvFiles() error {
	for _, file := range l.envFiles {
		if !fileExists(file) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
	return nil
}

func mergeFile(cfg *Config, path string) error {
	// #nosec G304 - search paths are fixed and custom paths pass validateConfigPath
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var layer Config
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	mergeConfigs(cfg, &layer)
	return nil
}

type envBinding struct {
	suffix string
	apply  func(cfg *Config, value string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

var envBindings = []envBinding{
	{"API_BASE_URL", setString(func(c *Config) *string { return &c.API.BaseURL })},
	{"API_TIMEOUT", func(c *Config, v string) error { return parseDuration(v, &c.API.Timeout) }},

	{"AUTH_TOKEN", setString(func(c *Config) *string { return &c.Auth.Token })},
	{"AUTH_USER_ID", setString(func(c *Config) *string { return &c.Auth.UserID })},
	{"AUTH_JWT_SECRET", setString(func(c *Config) *string { return &c.Auth.JWTSecret })},

	{"OUTPUT_DEFAULT_FORMAT", setString(func(c *Config) *string { return &c.Output.DefaultFormat })},
	{"OUTPUT_COLOR_MODE", setString(func(c *Config) *string { return &c.Output.ColorMode })},
	{"OUTPUT_VERBOSE", func(c *Config, v string) error { return parseBool(v, &c.Output.Verbose) }},
	{"OUTPUT_TIMESTAMP_FORMAT", setString(func(c *Config) *string { return &c.Output.TimestampFormat })},
	{"OUTPUT_REPORT_DIR", setString(func(c *Config) *string { return &c.Output.ReportDir })},

	{"UI_THEME", setString(func(c *Config) *string { return &c.UI.Theme })},
	{"UI_FROM_YEAR", func(c *Config, v string) error { return parseInt(v, &c.UI.FromYear) }},
	{"UI_TO_YEAR", func(c *Config, v string) error { return parseInt(v, &c.UI.ToYear) }},

	{"MOCK_ADDR", setString(func(c *Config) *string { return &c.Mock.Addr })},
	{"MOCK_REQUIRE_AUTH", func(c *Config, v string) error { return parseBool(v, &c.Mock.RequireAuth) }},
}

// applyEnvOverrides applies every non-empty TERRAWATCH_* variable
func applyEnvOverrides(cfg *Config) error {
	for _, b := range envBindings {
		name := EnvPrefix + b.suffix
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if err := b.apply(cfg, value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}
	return nil
}

// EnvVariables lists every variable the loader reads
func EnvVariables() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = EnvPrefix + b.suffix
	}
	return names
}

// GetConfigPaths returns the search paths with ~ expanded
func GetConfigPaths() []string {
	paths := make([]string, len(ConfigPaths))
	for i, path := range ConfigPaths {
		paths[i] = expandPath(path)
	}
	return paths
}

// FindConfigFile returns the highest-priority search path that exists
func FindConfigFile() (string, bool) {
	for _, path := range GetConfigPaths() {
		if fileExists(path) {
			return path, true
		}
	}
	return "", false
}

// validateConfigPath accepts only yaml files outside /proc and /sys
func validateConfigPath(path string) error {
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	switch strings.ToLower(filepath.Ext(clean)) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	for _, prefix := range []string{"/proc/", "/sys/"} {
		if strings.HasPrefix(abs, prefix) {
			return fmt.Errorf("access to system files not allowed")
		}
	}
	return nil
}

func expandPath(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs copies the set fields of src over dst
func mergeConfigs(dst, src *Config) {
	override(&dst.Version, src.Version)

	override(&dst.API.BaseURL, src.API.BaseURL)
	override(&dst.API.Timeout, src.API.Timeout)

	override(&dst.Auth.Token, src.Auth.Token)
	override(&dst.Auth.UserID, src.Auth.UserID)
	override(&dst.Auth.JWTSecret, src.Auth.JWTSecret)

	override(&dst.Output.DefaultFormat, src.Output.DefaultFormat)
	override(&dst.Output.ColorMode, src.Output.ColorMode)
	override(&dst.Output.TimestampFormat, src.Output.TimestampFormat)
	override(&dst.Output.ReportDir, src.Output.ReportDir)
	// yaml gives no way to tell an explicit false from an absent key
	override(&dst.Output.Verbose, src.Output.Verbose)

	override(&dst.UI.Theme, src.UI.Theme)
	override(&dst.UI.FromYear, src.UI.FromYear)
	override(&dst.UI.ToYear, src.UI.ToYear)

	override(&dst.Mock.Addr, src.Mock.Addr)
	override(&dst.Mock.RequireAuth, src.Mock.RequireAuth)
}

func override[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func parseInt(s string, dst *int) error {
	v, err := strconv.Atoi(s)
	if err == nil {
		*dst = v
	}
	return err
}

func parseBool(s string, dst *bool) error {
	v, err := strconv.ParseBool(s)
	if err == nil {
		*dst = v
	}
	return err
}

func parseDuration(s string, dst *time.Duration) error {
	v, err := time.ParseDuration(s)
	if err == nil {
		*dst = v
	}
	return err
}
