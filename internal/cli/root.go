package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/config"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/ui"
)

var (
	cfgFile    string
	verbose    bool
	noColor    bool
	noEmoji    bool
	outputFmt  string
	outputFile string

	globalConfig *config.Config
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	globalConfig = nil

	rootCmd := &cobra.Command{
		Use:   "terrawatch",
		Short: "Land-cover change detection from satellite imagery",
		Long: `TerraWatch compares two years of satellite imagery of a region and reports
how much land became urban, lost forest cover or changed water bodies.

Analyses run on a change detection backend. Pick one of the predefined sample
regions or upload your own before/after image pair, then browse past results
in your analysis history.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			globalConfig = cfg

			if !cmd.Flag("output").Changed && cfg.Output.DefaultFormat != "" {
				outputFmt = cfg.Output.DefaultFormat
			}
			if cfg.Output.Verbose {
				verbose = true
			}
			ui.SetColorDisabled(!useColor())
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format (text, json, markdown, csv)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output-file", "", "save output to file instead of stdout")

	rootCmd.AddCommand(newRegionsCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newUICommand())
	rootCmd.AddCommand(newMockServerCommand())
	rootCmd.AddCommand(newWhoamiCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, backend and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "TerraWatch %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Default backend: %s\n", config.DefaultBaseURL)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// GetGlobalConfig returns the configuration loaded for the running command
func GetGlobalConfig() *config.Config {
	if globalConfig == nil {
		globalConfig = config.DefaultConfig()
	}
	return globalConfig
}

// Global helpers
func isVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}

func newLogger(component string) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose)
}

// useColor applies --no-color, the configured color mode and NO_COLOR
func useColor() bool {
	if noColor || outputFile != "" {
		return false
	}
	switch GetGlobalConfig().Output.ColorMode {
	case "never":
		return false
	case "always":
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// interactive reports whether a spinner may be drawn on stderr
func interactive() bool {
	if verbose {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
