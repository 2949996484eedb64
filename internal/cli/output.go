package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/ui"
)

// newOutputFormatter returns the formatter selected by --output
func newOutputFormatter() (formatter.Formatter, error) {
	return formatter.New(getOutputFormat(), useColor())
}

// writeOutput prints rendered output or saves it to --output-file
func writeOutput(cmd *cobra.Command, output []byte) error {
	if outputFile == "" {
		_, err := cmd.OutOrStdout().Write(output)
		return err
	}

	if err := validateFilePath(outputFile); err != nil {
		return fmt.Errorf("invalid output file: %w", err)
	}
	if err := writeOutputBytesToFile(output, outputFile); err != nil {
		return fmt.Errorf("failed to write output to file: %w", err)
	}
	if isVerbose() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Output saved to: %s\n", outputFile)
	}
	return nil
}

func validateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	return nil
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	cleanPath := filepath.Clean(filePath)

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// withSpinner runs fn behind a spinner when stderr is a terminal
func withSpinner(cmd *cobra.Command, label string, fn func() error) error {
	if !interactive() {
		return fn()
	}
	return ui.RunTask(label, cmd.ErrOrStderr(), fn)
}
