package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/pages"
)

// Messages fed back into Update by commands
type regionsLoadedMsg struct {
	regions []common.Region
	err     error
}

type analysisDoneMsg struct {
	route  Route
	result *common.AnalysisResult
	err    error
}

// historyLoadedMsg names the page that asked so a response for a replaced
// session can be dropped
type historyLoadedMsg struct {
	page    *pages.HistoryPage
	userID  string
	records []common.HistoryRecord
	err     error
}

type reportSavedMsg struct {
	path string
	err  error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// In-flight requests are not cancelled by navigation, so every command runs
// on a background context.

func loadRegionsCmd(b pages.PredefinedBackend) tea.Cmd {
	return func() tea.Msg {
		regions, err := b.ListRegions(context.Background())
		return regionsLoadedMsg{regions: regions, err: err}
	}
}

func analyzeRegionCmd(b pages.PredefinedBackend, userID string, req common.PredefinedAnalysisRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := b.AnalyzePredefinedRegion(context.Background(), userID, req)
		return analysisDoneMsg{route: RouteRegions, result: result, err: err}
	}
}

func analyzeUploadCmd(b pages.UploadBackend, userID string, req api.UploadRequest, closer io.Closer) tea.Cmd {
	return func() tea.Msg {
		result, err := b.AnalyzeUploadedRegion(context.Background(), userID, req)
		_ = closer.Close()
		return analysisDoneMsg{route: RouteUpload, result: result, err: err}
	}
}

func loadHistoryCmd(b pages.HistoryBackend, page *pages.HistoryPage, userID string) tea.Cmd {
	return func() tea.Msg {
		records, err := b.History(context.Background(), userID)
		return historyLoadedMsg{page: page, userID: userID, records: records, err: err}
	}
}

func saveReportCmd(dir string, report *formatter.Report) tea.Cmd {
	return func() tea.Msg {
		path, err := SaveReport(dir, report)
		return reportSavedMsg{path: path, err: err}
	}
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// ReportFileName builds the file name of a markdown report
func ReportFileName(report *formatter.Report) string {
	name := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(report.RegionName), "-"), "-")
	if name == "" {
		name = "analysis"
	}
	return fmt.Sprintf("terrawatch-%s-%d-%d.md", name, report.BeforeYear, report.AfterYear)
}

// SaveReport writes report as markdown into dir and returns the file path
func SaveReport(dir string, report *formatter.Report) (string, error) {
	data, err := formatter.NewMarkdown().FormatResult(report)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFileName(report))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
