package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolatedLoader ignores the machine's config files and dotenv
func isolatedLoader(envFiles ...string) *Loader {
	l := &Loader{}
	return l.WithEnvFiles(envFiles...)
}

// unsetEnv removes a variable for the duration of a test
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
	if len(loader.envFiles) != 1 || loader.envFiles[0] != ".env" {
		t.Errorf("Expected .env as the only env file, got %v", loader.envFiles)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "TERRAWATCH_API_BASE_URL")

	cfg, err := isolatedLoader().LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL %s, got %s", DefaultBaseURL, cfg.API.BaseURL)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default output format text, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	unsetEnv(t, "TERRAWATCH_API_BASE_URL")
	unsetEnv(t, "TERRAWATCH_AUTH_USER_ID")

	configPath := writeFile(t, t.TempDir(), "test-config.yaml", `version: "1.0"
api:
  base_url: "https://change.example.com"
  timeout: 90s
auth:
  user_id: "user_123"
output:
  default_format: "json"
  verbose: true
ui:
  theme: minimal
  from_year: 2015
`)

	cfg, err := isolatedLoader().LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.API.BaseURL != "https://change.example.com" {
		t.Errorf("Expected base URL from file, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 90*time.Second {
		t.Errorf("Expected timeout 90s, got %v", cfg.API.Timeout)
	}
	if cfg.Auth.UserID != "user_123" {
		t.Errorf("Expected user id user_123, got %s", cfg.Auth.UserID)
	}
	if cfg.Output.DefaultFormat != "json" || !cfg.Output.Verbose {
		t.Errorf("Unexpected output config %+v", cfg.Output)
	}
	if cfg.UI.Theme != "minimal" || cfg.UI.FromYear != 2015 || cfg.UI.ToYear != 2025 {
		t.Errorf("Unexpected ui config %+v", cfg.UI)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "invalid-config.yaml", `version: "1.0"
output:
  default_format: "json
  verbose: true
`)

	if _, err := isolatedLoader().LoadConfig(configPath); err == nil {
		t.Error("Expected error loading invalid YAML config, but got none")
	}
}

func TestLoadConfigRejectsBadPaths(t *testing.T) {
	tests := []string{"config.json", "../outside.yaml"}
	for _, path := range tests {
		if _, err := isolatedLoader().LoadConfig(path); err == nil {
			t.Errorf("Expected error for path %s", path)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TERRAWATCH_API_BASE_URL", "http://10.0.0.5:9000")
	t.Setenv("TERRAWATCH_API_TIMEOUT", "45s")
	t.Setenv("TERRAWATCH_AUTH_TOKEN", "header.payload.sig")
	t.Setenv("TERRAWATCH_OUTPUT_VERBOSE", "true")
	t.Setenv("TERRAWATCH_UI_THEME", "high-contrast")
	t.Setenv("TERRAWATCH_UI_TO_YEAR", "2030")
	t.Setenv("TERRAWATCH_MOCK_REQUIRE_AUTH", "1")

	cfg, err := isolatedLoader().LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.API.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("Expected base URL override, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 45*time.Second {
		t.Errorf("Expected timeout override, got %v", cfg.API.Timeout)
	}
	if cfg.Auth.Token != "header.payload.sig" {
		t.Errorf("Expected token override, got %s", cfg.Auth.Token)
	}
	if !cfg.Output.Verbose {
		t.Error("Expected verbose override")
	}
	if cfg.UI.Theme != "high-contrast" || cfg.UI.ToYear != 2030 {
		t.Errorf("Unexpected ui config %+v", cfg.UI)
	}
	if !cfg.Mock.RequireAuth {
		t.Error("Expected mock require_auth override")
	}
}

func TestApplyEnvOverridesInvalidValue(t *testing.T) {
	t.Setenv("TERRAWATCH_API_TIMEOUT", "soon")

	_, err := isolatedLoader().LoadConfig("")
	if err == nil {
		t.Fatal("Expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "TERRAWATCH_API_TIMEOUT") {
		t.Errorf("Expected error to name the variable, got %v", err)
	}
}

func TestPrecedenceFileDotenvEnv(t *testing.T) {
	unsetEnv(t, "TERRAWATCH_API_BASE_URL")
	unsetEnv(t, "TERRAWATCH_AUTH_USER_ID")

	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yaml", `api:
  base_url: "http://from-file:8000"
auth:
  user_id: "file-user"
`)
	envPath := writeFile(t, dir, "test.env", "TERRAWATCH_API_BASE_URL=http://from-dotenv:8000\n")

	cfg, err := isolatedLoader(envPath).LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://from-dotenv:8000" {
		t.Errorf(".env should override the file, got %s", cfg.API.BaseURL)
	}
	if cfg.Auth.UserID != "file-user" {
		t.Errorf("file value should survive, got %s", cfg.Auth.UserID)
	}

	t.Setenv("TERRAWATCH_API_BASE_URL", "http://from-env:8000")
	cfg, err = isolatedLoader(envPath).LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://from-env:8000" {
		t.Errorf("environment should override .env, got %s", cfg.API.BaseURL)
	}
}

func TestMissingDotenvIsIgnored(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.env")
	if _, err := isolatedLoader(missing).LoadConfig(""); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func TestMergeConfigsKeepsUnsetValues(t *testing.T) {
	dst := DefaultConfig()
	mergeConfigs(dst, &Config{Auth: AuthConfig{UserID: "u1"}})

	if dst.Auth.UserID != "u1" {
		t.Errorf("Expected user id to merge, got %s", dst.Auth.UserID)
	}
	if dst.API.BaseURL != DefaultBaseURL || dst.API.Timeout != 5*time.Minute {
		t.Errorf("Unset api values should keep defaults, got %+v", dst.API)
	}
	if dst.UI.Theme != "default" {
		t.Errorf("Unset theme should keep default, got %s", dst.UI.Theme)
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := GetConfigPaths()
	if len(paths) != 3 {
		t.Fatalf("Expected 3 paths, got %d", len(paths))
	}
	for _, p := range paths {
		if strings.HasPrefix(p, "~") {
			t.Errorf("Path not expanded: %s", p)
		}
	}
}

func TestEnvVariablesArePrefixed(t *testing.T) {
	names := EnvVariables()
	if len(names) != len(envBindings) {
		t.Fatalf("Expected %d names, got %d", len(envBindings), len(names))
	}
	for _, name := range names {
		if !strings.HasPrefix(name, EnvPrefix) {
			t.Errorf("Missing prefix: %s", name)
		}
	}
}
