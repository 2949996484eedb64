package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/pages"
)

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [record-id]",
		Short: "Show your past analyses",
		Long: `List every analysis stored for the signed-in user, newest first.

With a record id, print the full report of that analysis.`,
		Example: `  terrawatch history
  terrawatch history --output csv --output-file history.csv
  terrawatch history 64f1c2 --output markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	client, session, err := signedInClient()
	if err != nil {
		return err
	}

	page := pages.NewHistoryPage(client, session, newLogger("history"))
	err = withSpinner(cmd, "Loading history", func() error {
		return page.Load(cmd.Context())
	})
	if err != nil {
		return describeError(err)
	}

	f, err := newOutputFormatter()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		output, err := f.FormatHistory(page.Records())
		if err != nil {
			return err
		}
		return writeOutput(cmd, output)
	}

	if !page.SelectByID(args[0]) {
		return fmt.Errorf("analysis %q not found in your history", args[0])
	}
	output, err := f.FormatResult(formatter.ReportFromRecord(page.Selected()))
	if err != nil {
		return err
	}
	return writeOutput(cmd, output)
}
