package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/pages"
	"github.com/terrawatch/terrawatch/internal/upload"
)

var (
	analyzeBeforeYear int
	analyzeAfterYear  int
	analyzeRegionName string
	analyzeNotes      string
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a change detection analysis",
		Long: `Compare two years of satellite imagery and report the land-cover change.

Analyze one of the backend's predefined regions, or upload your own pair of
images. Every successful analysis is stored in your history.`,
	}

	cmd.PersistentFlags().IntVar(&analyzeBeforeYear, "before-year", 0, "year of the older image")
	cmd.PersistentFlags().IntVar(&analyzeAfterYear, "after-year", 0, "year of the newer image")

	cmd.AddCommand(newAnalyzeRegionCommand())
	cmd.AddCommand(newAnalyzeUploadCommand())
	return cmd
}

func newAnalyzeRegionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "region <id|name>",
		Short: "Analyze a predefined region",
		Example: `  terrawatch analyze region "Aral Sea" --before-year 2011 --after-year 2025
  terrawatch analyze region mumbai --before-year 2015 --after-year 2024 --output markdown`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeRegion,
	}
}

func runAnalyzeRegion(cmd *cobra.Command, args []string) error {
	client, session, err := signedInClient()
	if err != nil {
		return err
	}
	log := newLogger("analyze")

	page := pages.NewPredefinedPage(client, session, log.WithComponent("predefined"))
	if err := page.LoadRegions(cmd.Context()); err != nil {
		return describeError(err)
	}
	region, ok := findRegion(page.Regions(), args[0])
	if !ok {
		return fmt.Errorf("region %q not found (see 'terrawatch regions list')", args[0])
	}

	page.SelectRegion(region)
	page.SetBeforeYear(analyzeBeforeYear)
	page.SetAfterYear(analyzeAfterYear)

	log.InfoWithFields("analyzing region", []logger.Field{
		logger.F("region", region.Name),
		logger.F("before", analyzeBeforeYear),
		logger.F("after", analyzeAfterYear),
	})

	var result *common.AnalysisResult
	err = withSpinner(cmd, "Analyzing "+region.Name, func() error {
		var serr error
		result, serr = page.Submit(cmd.Context())
		return serr
	})
	if err != nil {
		return describeError(err)
	}

	return writeReport(cmd, &formatter.Report{
		Title:       fmt.Sprintf("%s %d-%d", region.Name, analyzeBeforeYear, analyzeAfterYear),
		RegionName:  region.Name,
		InputType:   common.InputPredefinedRegion,
		BeforeYear:  analyzeBeforeYear,
		AfterYear:   analyzeAfterYear,
		Result:      result,
		GeneratedAt: time.Now(),
	})
}

func newAnalyzeUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <before-image> <after-image>",
		Short: "Analyze your own before/after image pair",
		Long: `Upload two satellite images of the same area and compare them.

Years default to a four digit year found in each file name, so
2015.jpg and 2024.jpg need no year flags.`,
		Example: `  terrawatch analyze upload 2015.jpg 2024.jpg
  terrawatch analyze upload old.png new.png --before-year 2013 --after-year 2023 --region-name "Lake Urmia"`,
		Args: cobra.ExactArgs(2),
		RunE: runAnalyzeUpload,
	}

	cmd.Flags().StringVar(&analyzeRegionName, "region-name", "", "name shown in the report")
	cmd.Flags().StringVar(&analyzeNotes, "notes", "", "free text kept with the report")
	return cmd
}

func runAnalyzeUpload(cmd *cobra.Command, args []string) error {
	before, after := analyzeBeforeYear, analyzeAfterYear
	if before == 0 {
		before = yearFromName(args[0])
	}
	if after == 0 {
		after = yearFromName(args[1])
	}

	client, session, err := signedInClient()
	if err != nil {
		return err
	}

	registry := upload.NewRegistry()
	page := pages.NewUploadPage(client, session, registry, newLogger("upload"))
	defer page.Close()

	report, err := submitUpload(cmd.Context(), cmd, page, uploadInput{
		beforePath: args[0],
		afterPath:  args[1],
		beforeYear: before,
		afterYear:  after,
		regionName: analyzeRegionName,
		notes:      analyzeNotes,
	})
	if err != nil {
		return err
	}
	return writeReport(cmd, report)
}

type uploadInput struct {
	beforePath string
	afterPath  string
	beforeYear int
	afterYear  int
	regionName string
	notes      string
}

// submitUpload fills the upload page and submits it once under ctx
func submitUpload(ctx context.Context, cmd *cobra.Command, page *pages.UploadPage, in uploadInput) (*formatter.Report, error) {
	if _, err := page.SelectBefore(in.beforePath); err != nil {
		return nil, fmt.Errorf("before image: %w", err)
	}
	if _, err := page.SelectAfter(in.afterPath); err != nil {
		return nil, fmt.Errorf("after image: %w", err)
	}
	page.SetBeforeYear(in.beforeYear)
	page.SetAfterYear(in.afterYear)
	page.RegionName = in.regionName
	page.Notes = in.notes

	var result *common.AnalysisResult
	err := withSpinner(cmd, "Uploading and analyzing images", func() error {
		var serr error
		result, serr = page.Submit(ctx)
		return serr
	})
	if err != nil {
		return nil, describeError(err)
	}

	name := in.regionName
	if name == "" {
		name = "Uploaded images"
	}
	return &formatter.Report{
		Title:       fmt.Sprintf("%s %d-%d", name, in.beforeYear, in.afterYear),
		RegionName:  in.regionName,
		InputType:   common.InputUserUploaded,
		BeforeYear:  in.beforeYear,
		AfterYear:   in.afterYear,
		Result:      result,
		GeneratedAt: time.Now(),
	}, nil
}

func writeReport(cmd *cobra.Command, report *formatter.Report) error {
	f, err := newOutputFormatter()
	if err != nil {
		return err
	}
	output, err := f.FormatResult(report)
	if err != nil {
		return err
	}
	return writeOutput(cmd, output)
}

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)[0-9]{2})(?:[^0-9]|$)`)

// yearFromName returns the first plausible year in a file name, or 0
func yearFromName(path string) int {
	base := filepath.Base(path)
	base = base[:len(base)-len(filepath.Ext(base))]
	m := yearPattern.FindStringSubmatch(base)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return year
}

// requireSession is used by commands that only need the identity
func requireSession() (*auth.Session, error) {
	session, err := auth.Resolve(GetGlobalConfig().Auth)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return session, nil
}
