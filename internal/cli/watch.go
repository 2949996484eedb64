package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/pages"
	"github.com/terrawatch/terrawatch/internal/upload"
)

var (
	watchBeforeYear int
	watchAfterYear  int
	watchDebounce   time.Duration
	watchRegionName string
)

// imageExtensions are tried in order when looking for <year>.<ext>
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-analyze a folder of yearly images whenever it changes",
		Long: `Watch a folder laid out like the backend's image folders, one file per
year named <year>.jpg (or .jpeg, .png, .gif).

Whenever the image of the before or after year is created or rewritten and
both years are present, the pair is uploaded and the new report is printed.
Press Ctrl+C to stop watching.`,
		Example: `  terrawatch watch ./images/aral_sea --before-year 2011 --after-year 2025
  terrawatch watch ./captures --before-year 2018 --after-year 2024 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	cmd.Flags().IntVar(&watchBeforeYear, "before-year", 0, "year of the older image")
	cmd.Flags().IntVar(&watchAfterYear, "after-year", 0, "year of the newer image")
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period after the last change before analyzing")
	cmd.Flags().StringVar(&watchRegionName, "region-name", "", "name shown in the reports")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := validateWatchDir(dir); err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}
	if watchBeforeYear == 0 || watchAfterYear == 0 {
		return fmt.Errorf("both --before-year and --after-year are required")
	}
	if watchBeforeYear >= watchAfterYear {
		return errors.New(pages.MsgYearOrder)
	}

	client, session, err := signedInClient()
	if err != nil {
		return err
	}

	w := &pairWatcher{
		dir:        dir,
		beforeYear: watchBeforeYear,
		afterYear:  watchAfterYear,
		debounce:   watchDebounce,
		log:        newLogger("watch"),
		onPair: func(ctx context.Context, before, after string) error {
			page := pages.NewUploadPage(client, session, upload.NewRegistry(), newLogger("upload"))
			defer page.Close()

			report, err := submitUpload(ctx, cmd, page, uploadInput{
				beforePath: before,
				afterPath:  after,
				beforeYear: watchBeforeYear,
				afterYear:  watchAfterYear,
				regionName: watchRegionName,
			})
			if err != nil {
				return err
			}
			return writeReport(cmd, report)
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.ErrOrStderr(), "%s Watching %s for %d.* and %d.* (Ctrl+C to stop)\n",
		emoji.GetEmoji("watch"), dir, watchBeforeYear, watchAfterYear)
	return w.Run(ctx)
}

// pairWatcher calls onPair when the image of either year changes and both exist
type pairWatcher struct {
	dir        string
	beforeYear int
	afterYear  int
	debounce   time.Duration
	log        *logger.Logger
	onPair     func(ctx context.Context, before, after string) error
}

// Run watches until ctx is cancelled
func (w *pairWatcher) Run(ctx context.Context) error {
	watcher, err := createWatcher(w.dir)
	if err != nil {
		return err
	}
	defer cleanupWatcher(watcher, w.log)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.DebugWithFields("image changed", []logger.Field{
				logger.F("file", filepath.Base(event.Name)),
				logger.F("op", event.Op.String()),
			})
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.trigger(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Warn("watcher error: %v", err)
		}
	}
}

func (w *pairWatcher) trigger(ctx context.Context) {
	before, okBefore := findYearImage(w.dir, w.beforeYear)
	after, okAfter := findYearImage(w.dir, w.afterYear)
	if !okBefore || !okAfter {
		w.log.Info("waiting for both images (%d: %v, %d: %v)", w.beforeYear, okBefore, w.afterYear, okAfter)
		return
	}

	start := time.Now()
	if err := w.onPair(ctx, before, after); err != nil {
		w.log.Error("analysis failed: %v", err)
		return
	}
	w.log.InfoWithFields("analysis done", []logger.Field{logger.Duration(time.Since(start))})
}

// relevant reports whether event touches the image of a watched year
func (w *pairWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	year, ok := imageYear(event.Name)
	return ok && (year == w.beforeYear || year == w.afterYear)
}

// imageYear parses names of the form <year>.<image extension>
func imageYear(path string) (int, bool) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	supported := false
	for _, e := range imageExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return 0, false
	}
	year, err := strconv.Atoi(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return 0, false
	}
	return year, true
}

// findYearImage returns the first existing <year>.<ext> file in dir
func findYearImage(dir string, year int) (string, bool) {
	for _, ext := range imageExtensions {
		for _, name := range []string{strconv.Itoa(year) + ext, strconv.Itoa(year) + strings.ToUpper(ext)} {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path, true
			}
		}
	}
	return "", false
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(watcher *fsnotify.Watcher, log *logger.Logger) {
	if err := watcher.Close(); err != nil {
		log.Debug("failed to close watcher: %v", err)
	}
}

// createWatcher creates a watcher on dir
func createWatcher(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return watcher, nil
}

// validateWatchDir validates that a path is a directory that can be watched
func validateWatchDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}

	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
