package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/emoji"
)

func newRegionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List or register predefined regions",
		Long: `Manage the predefined sample regions known to the backend.

Each region points at a folder of yearly satellite images on the backend, so it
can be analyzed without uploading anything.`,
	}

	cmd.AddCommand(newRegionsListCommand())
	cmd.AddCommand(newRegionsAddCommand())
	return cmd
}

func newRegionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List predefined regions",
		Example: `  terrawatch regions list
  terrawatch regions list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(GetGlobalConfig(), nil)
			if err != nil {
				return err
			}

			var regions []common.Region
			err = withSpinner(cmd, "Loading regions", func() error {
				var lerr error
				regions, lerr = client.ListRegions(cmd.Context())
				return lerr
			})
			if err != nil {
				return fmt.Errorf("failed to fetch available regions: %w", err)
			}

			f, err := newOutputFormatter()
			if err != nil {
				return err
			}
			output, err := f.FormatRegions(regions)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output)
		},
	}
}

func newRegionsAddCommand() *cobra.Command {
	var region common.NewRegion

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a predefined region",
		Example: `  terrawatch regions add --name "Aral Sea" --folder aral_sea
  terrawatch regions add --name Dubai --folder dubai --sample-url https://example.com/dubai.jpg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			region.Name = strings.TrimSpace(region.Name)
			region.Folder = strings.TrimSpace(region.Folder)
			if region.Name == "" || region.Folder == "" {
				return fmt.Errorf("both --name and --folder are required")
			}

			client, err := newClient(GetGlobalConfig(), nil)
			if err != nil {
				return err
			}
			msg, err := client.AddRegion(cmd.Context(), region)
			if err != nil {
				return fmt.Errorf("failed to add region: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", emoji.GetEmoji("success"), msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&region.Name, "name", "", "display name of the region")
	cmd.Flags().StringVar(&region.Folder, "folder", "", "image folder on the backend")
	cmd.Flags().StringVar(&region.SampleURL, "sample-url", "", "preview image shown on the region card")
	return cmd
}

// findRegion matches a region by id, then by name or folder ignoring case
func findRegion(regions []common.Region, ref string) (common.Region, bool) {
	ref = strings.TrimSpace(ref)
	for _, r := range regions {
		if r.ID == ref {
			return r, true
		}
	}
	for _, r := range regions {
		if strings.EqualFold(r.Name, ref) || strings.EqualFold(r.Folder, ref) {
			return r, true
		}
	}
	return common.Region{}, false
}
