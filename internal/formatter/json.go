package formatter

import (
	"encoding/json"
	"time"

	"github.com/terrawatch/terrawatch/internal/common"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

// ResultOutput is the JSON shape of a single analysis
type ResultOutput struct {
	Title       string                 `json:"title,omitempty"`
	RegionName  string                 `json:"region_name,omitempty"`
	InputType   common.InputType       `json:"input_type,omitempty"`
	BeforeYear  int                    `json:"before_image_year,omitempty"`
	AfterYear   int                    `json:"after_image_year,omitempty"`
	GeneratedAt *time.Time             `json:"generated_at,omitempty"`
	Summary     Summary                `json:"summary"`
	Analysis    *common.AnalysisResult `json:"analysis"`
}

// HistoryOutput is the JSON shape of a history listing
type HistoryOutput struct {
	Count   int                    `json:"count"`
	Records []common.HistoryRecord `json:"records"`
}

// RegionsOutput is the JSON shape of a region listing
type RegionsOutput struct {
	Count   int             `json:"count"`
	Regions []common.Region `json:"regions"`
}

func (f *jsonFormatter) FormatResult(report *Report) ([]byte, error) {
	result := report.Result
	if result == nil {
		result = &common.AnalysisResult{}
	}
	output := &ResultOutput{
		Title:      report.Title,
		RegionName: report.RegionName,
		InputType:  report.InputType,
		BeforeYear: report.BeforeYear,
		AfterYear:  report.AfterYear,
		Summary:    Summarize(result),
		Analysis:   result,
	}
	if !report.GeneratedAt.IsZero() {
		t := report.GeneratedAt.UTC()
		output.GeneratedAt = &t
	}
	return json.MarshalIndent(output, "", "  ")
}

func (f *jsonFormatter) FormatHistory(records []common.HistoryRecord) ([]byte, error) {
	if records == nil {
		records = []common.HistoryRecord{}
	}
	return json.MarshalIndent(&HistoryOutput{Count: len(records), Records: records}, "", "  ")
}

func (f *jsonFormatter) FormatRegions(regions []common.Region) ([]byte, error) {
	if regions == nil {
		regions = []common.Region{}
	}
	return json.MarshalIndent(&RegionsOutput{Count: len(regions), Regions: regions}, "", "  ")
}
