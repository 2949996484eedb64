package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/ui"
)

func newUICommand() *cobra.Command {
	var theme string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal app",
		Long: `Browse predefined regions, upload image pairs and review your history in a
full-screen terminal app. Signing in is only needed for analyses and history;
a configured token or user id signs you in on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetGlobalConfig()
			session, err := requireSession()
			if err != nil {
				return err
			}
			if theme == "" {
				theme = cfg.UI.Theme
			}

			err = ui.Run(ui.Options{
				Session:    session,
				Connect:    connector(cfg),
				BaseURL:    cfg.API.BaseURL,
				JWTSecret:  cfg.Auth.JWTSecret,
				FromYear:   cfg.UI.FromYear,
				ToYear:     cfg.UI.ToYear,
				ReportDir:  cfg.Output.ReportDir,
				DateLayout: cfg.Output.TimestampFormat,
				Theme:      theme,
				Logger:     newLogger("ui"),
			})
			if err != nil {
				return fmt.Errorf("terminal app failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "color theme (default, high-contrast, minimal)")
	return cmd
}
