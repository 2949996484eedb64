package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/config"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".terrawatch.yaml"

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage TerraWatch configuration",
		Long: `Create, inspect and check TerraWatch configuration.

Settings are merged from built-in defaults, the config files listed by
"terrawatch config path", a .env file and TERRAWATCH_* environment variables.`,
	}

	// Config commands must work even when the current configuration is broken
	configCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		emoji.SetEmojiDisabled(noEmoji)
	}

	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(),
		newConfigValidateCommand(),
		newConfigPathCommand(),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a configuration file pointing at the default backend.

The full sample documents every setting; --minimal keeps only the backend and
identity sections.`,
		Example: `  terrawatch config init
  terrawatch config init --minimal
  terrawatch config init --output ~/.config/terrawatch/config.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = defaultConfigFile
			}
			if err := writeSampleConfig(outputPath, minimal, force); err != nil {
				return err
			}

			kind := "full"
			if minimal {
				kind = "minimal"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s configuration to %s\n", emoji.GetEmoji("success"), kind, outputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "   Set auth.token or auth.user_id to run analyses\n")
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "where to write the file (default "+defaultConfigFile+")")
	cmd.Flags().BoolVarP(&minimal, "minimal", "m", false, "write only the essential settings")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// writeSampleConfig refuses to replace an existing file unless force is set
func writeSampleConfig(path string, minimal, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	content := config.SampleConfig()
	if minimal {
		content = config.MinimalSampleConfig()
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func newConfigShowCommand() *cobra.Command {
	var (
		format     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, files, .env and environment are merged.
The session token and JWT secret are masked.`,
		Example: `  terrawatch config show
  terrawatch config show --format json --config ./staging.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigFrom(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			data, err := renderConfig(maskSecrets(cfg), format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func renderConfig(cfg *config.Config, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(cfg)
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use json or yaml)", format)
	}
}

// maskSecrets returns a copy safe to print
func maskSecrets(cfg *config.Config) *config.Config {
	masked := *cfg
	masked.Auth.Token = redact(cfg.Auth.Token)
	masked.Auth.JWTSecret = redact(cfg.Auth.JWTSecret)
	return &masked
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func newConfigValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file",
		Long: `Load a configuration file with all overrides applied and check it: YAML
syntax, a usable backend URL and timeout, known output formats and themes, and
an ordered year range.`,
		Example: `  terrawatch config validate
  terrawatch config validate --config /path/to/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, err := loadConfigFrom(configPath)
			if err != nil {
				fmt.Fprintf(out, "%s Configuration validation failed:\n   %v\n", emoji.GetEmoji("error"), err)
				return err
			}

			fmt.Fprintf(out, "%s Configuration is valid\n", emoji.GetEmoji("success"))
			describeConfig(out, cfg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func describeConfig(w io.Writer, cfg *config.Config) {
	identity := "signed out"
	switch {
	case cfg.Auth.Token != "":
		identity = "session token"
	case cfg.Auth.UserID != "":
		identity = "user id " + cfg.Auth.UserID
	}

	rows := [][2]string{
		{"Version", cfg.Version},
		{"Backend", fmt.Sprintf("%s (timeout %s)", cfg.API.BaseURL, cfg.API.Timeout)},
		{"Identity", identity},
		{"Output", cfg.Output.DefaultFormat},
		{"Years", fmt.Sprintf("%d-%d", cfg.UI.FromYear, cfg.UI.ToYear)},
		{"Theme", cfg.UI.Theme},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "   %-9s %s\n", row[0]+":", row[1])
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where configuration is read from",
		Long: `List the config file search paths in priority order, then the environment
variables that currently override them. Values are not printed.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Config files (highest priority first):\n", emoji.GetEmoji("folder"))
			for i, path := range config.GetConfigPaths() {
				state := "not found"
				if fileExists(path) {
					state = "found"
				}
				fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, path, state)
			}

			if current, ok := config.FindConfigFile(); ok {
				fmt.Fprintf(out, "\n%s Using %s\n", emoji.GetEmoji("target"), current)
			} else {
				fmt.Fprintf(out, "\n%s No config file found, using defaults\n", emoji.GetEmoji("file"))
			}

			overrides := envOverrides()
			if len(overrides) == 0 {
				fmt.Fprintf(out, "\n%s No %s* variables set (a .env file is also read)\n", emoji.GetEmoji("hint"), config.EnvPrefix)
				return
			}
			fmt.Fprintf(out, "\n%s Environment overrides:\n", emoji.GetEmoji("hint"))
			for _, name := range overrides {
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}
}

// envOverrides lists the recognised variables that are set
func envOverrides() []string {
	var names []string
	for _, name := range config.EnvVariables() {
		if os.Getenv(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// loadConfigFrom loads path, or the --config file when path is empty
func loadConfigFrom(path string) (*config.Config, error) {
	if path == "" {
		path = cfgFile
	}
	return config.NewLoader().LoadConfig(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
