package formatter

import (
	"fmt"
	"time"

	"github.com/terrawatch/terrawatch/internal/common"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	FormatResult(report *Report) ([]byte, error)
	FormatHistory(records []common.HistoryRecord) ([]byte, error)
	FormatRegions(regions []common.Region) ([]byte, error)
}

// Report is an analysis result with the context it was requested in
type Report struct {
	Title       string
	RegionName  string
	InputType   common.InputType
	BeforeYear  int
	AfterYear   int
	Result      *common.AnalysisResult
	GeneratedAt time.Time
}

// ReportFromRecord builds a report for a past analysis
func ReportFromRecord(rec *common.HistoryRecord) *Report {
	result := *rec.Result()
	if result.VisualizationURL == "" {
		result.VisualizationURL = rec.VisualizationURL
	}
	if result.ChangeMapURL == "" {
		result.ChangeMapURL = rec.ChangeMapURL
	}
	return &Report{
		Title:       "Analysis " + rec.ID,
		RegionName:  rec.RegionName,
		InputType:   rec.InputType,
		BeforeYear:  rec.BeforeYear,
		AfterYear:   rec.AfterYear,
		Result:      &result,
		GeneratedAt: rec.CreatedAt.Time,
	}
}

// New returns the formatter for an output format name
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown", "md":
		return NewMarkdown(), nil
	case "csv":
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (use text, json, markdown or csv)", format)
	}
}
