package config

import (
	"fmt"
	"net/url"
	"time"
)

// DefaultBaseURL is the backend address used when nothing else is configured.
// The binary overrides it at build time.
var DefaultBaseURL = "http://localhost:8000"

// Config holds the complete application configuration
type Config struct {
	Version string       `yaml:"version" json:"version"`
	API     APIConfig    `yaml:"api" json:"api"`
	Auth    AuthConfig   `yaml:"auth" json:"auth"`
	Output  OutputConfig `yaml:"output" json:"output"`
	UI      UIConfig     `yaml:"ui" json:"ui"`
	Mock    MockConfig   `yaml:"mock" json:"mock"`
}

// APIConfig configures the analysis backend connection
type APIConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"` // per request, no retries
}

// AuthConfig configures the signed-in identity
type AuthConfig struct {
	Token     string `yaml:"token" json:"token"`           // session JWT from the identity provider
	UserID    string `yaml:"user_id" json:"user_id"`       // used when no token is set
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"` // verify HS256 tokens when set
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat   string `yaml:"default_format" json:"default_format"`     // json|text|markdown|csv
	ColorMode       string `yaml:"color_mode" json:"color_mode"`             // auto|always|never
	Verbose         bool   `yaml:"verbose" json:"verbose"`                   // default verbosity
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format"` // time format string
	ReportDir       string `yaml:"report_dir" json:"report_dir"`             // where the UI saves reports
}

// UIConfig configures the interactive terminal UI
type UIConfig struct {
	Theme    string `yaml:"theme" json:"theme"` // default|high-contrast|minimal
	FromYear int    `yaml:"from_year" json:"from_year"`
	ToYear   int    `yaml:"to_year" json:"to_year"`
}

// MockConfig configures the in-memory development backend
type MockConfig struct {
	Addr        string `yaml:"addr" json:"addr"`
	RequireAuth bool   `yaml:"require_auth" json:"require_auth"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 5 * time.Minute,
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			ColorMode:       "auto",
			TimestampFormat: "2006-01-02 15:04",
			ReportDir:       ".",
		},
		UI: UIConfig{
			Theme:    "default",
			FromYear: 2011,
			ToYear:   2025,
		},
		Mock: MockConfig{
			Addr: "127.0.0.1:8000",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAPIConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateUIConfig(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPIConfig() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api.base_url: scheme must be http or https")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be non-negative")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

func (c *Config) validateUIConfig() error {
	if c.UI.Theme != "" {
		validThemes := map[string]bool{
			"default":       true,
			"high-contrast": true,
			"minimal":       true,
		}
		if !validThemes[c.UI.Theme] {
			return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.UI.Theme)
		}
	}
	if c.UI.FromYear >= c.UI.ToYear {
		return fmt.Errorf("ui.from_year must be earlier than ui.to_year")
	}
	return nil
}
