package formatter

import (
	"fmt"
	"math"
	"time"

	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/yildizm/go-termfmt"
)

// ClampPercent bounds a percentage to [0, 100] for bar widths
func ClampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// FormatPercent renders a percentage with two decimals
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%.2f%%", v)
}

// ClassChange is one change class prepared for display
type ClassChange struct {
	Class   string  `json:"class"`
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Bar     float64 `json:"-"` // clamped
}

// Summary is an analysis result with every optional field defaulted
type Summary struct {
	Classes           []ClassChange            `json:"classes"`
	TotalCritical     float64                  `json:"total_critical_percentage"`
	MostAffectedClass string                   `json:"most_affected_class"`
	Transitions       []common.ClassTransition `json:"transitions"`
	VisualizationURL  string                   `json:"visualization_url"`
	ChangeMapURL      string                   `json:"change_map_url"`
}

// Summarize flattens a result for rendering. A nil result, missing
// percentages and missing critical changes all read as zero.
func Summarize(result *common.AnalysisResult) Summary {
	var percentages common.ChangePercentages
	if result != nil {
		percentages = result.ChangePercentages
	}

	classes := percentages.Classes()
	s := Summary{Classes: make([]ClassChange, 0, len(classes))}
	for _, class := range classes {
		v := percentages.Get(class)
		s.Classes = append(s.Classes, ClassChange{
			Class:   class,
			Label:   common.ClassLabel(class),
			Percent: v,
			Bar:     ClampPercent(v),
		})
	}

	critical := result.Critical()
	s.TotalCritical = critical.TotalPercentage
	s.MostAffectedClass = critical.MostAffectedClass
	s.Transitions = critical.Transitions
	if s.Transitions == nil {
		s.Transitions = []common.ClassTransition{}
	}

	if result != nil {
		s.VisualizationURL = result.VisualizationURL
		s.ChangeMapURL = result.ChangeMapURL
	}
	return s
}

// yearSpan renders "2015 → 2024 (9 years)"
func yearSpan(before, after int) string {
	if before == 0 && after == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d → %d (%d years)", before, after, after-before)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

// getClassEmoji returns emoji for change classes using go-termfmt
func getClassEmoji(class string, opts *termfmt.TerminalOptions) string {
	switch class {
	case common.ClassUrbanization:
		return termfmt.GetEmoji("statistics", opts)
	case common.ClassDeforestation:
		return termfmt.GetEmoji("warning", opts)
	case common.ClassWaterBodyChange:
		return termfmt.GetEmoji("info", opts)
	default:
		return termfmt.GetEmoji("insight", opts)
	}
}

// createChangeBar renders a clamped percentage as an ASCII bar using go-termfmt
func createChangeBar(percent float64, opts *termfmt.TerminalOptions) string {
	return termfmt.CreateConfidenceBar(ClampPercent(percent)/100, opts)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
