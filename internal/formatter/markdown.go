package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/terrawatch/terrawatch/internal/common"
)

// markdownFormatter formats output as Markdown. Its result output is the
// downloadable analysis report.
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) FormatResult(report *Report) ([]byte, error) {
	var b strings.Builder
	summary := Summarize(report.Result)

	title := report.Title
	if title == "" {
		title = "Land Cover Change Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Table of Contents\n")
	b.WriteString("- [Overview](#overview)\n")
	b.WriteString("- [Change Statistics](#change-statistics)\n")
	b.WriteString("- [Critical Changes](#critical-changes)\n")
	b.WriteString("- [Images](#images)\n\n")

	f.writeOverview(&b, report)
	f.writeChangeTable(&b, summary)
	f.writeCritical(&b, summary)
	f.writeImages(&b, summary)

	return []byte(b.String()), nil
}

func (f *markdownFormatter) writeOverview(b *strings.Builder, report *Report) {
	b.WriteString("## Overview\n\n")
	b.WriteString("| Field | Value |\n|-------|-------|\n")
	if report.RegionName != "" {
		fmt.Fprintf(b, "| Region | %s |\n", escapeMarkdown(report.RegionName))
	}
	if report.InputType != "" {
		fmt.Fprintf(b, "| Source | %s |\n", report.InputType.Label())
	}
	fmt.Fprintf(b, "| Before Year | %s |\n", yearOrNA(report.BeforeYear))
	fmt.Fprintf(b, "| After Year | %s |\n", yearOrNA(report.AfterYear))
	if report.BeforeYear != 0 && report.AfterYear != 0 {
		fmt.Fprintf(b, "| Duration | %d years |\n", report.AfterYear-report.BeforeYear)
	}
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(b, "| Analyzed | %s |\n", formatDate(report.GeneratedAt))
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeChangeTable(b *strings.Builder, s Summary) {
	b.WriteString("## Change Statistics\n\n")
	b.WriteString("| Class | Change | |\n|-------|-------:|---|\n")
	for _, c := range s.Classes {
		fmt.Fprintf(b, "| %s | %s | `%s` |\n", c.Label, FormatPercent(c.Percent), textBar(c.Bar, 20))
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeCritical(b *strings.Builder, s Summary) {
	b.WriteString("## Critical Changes\n\n")
	fmt.Fprintf(b, "- **Total:** %s\n", FormatPercent(s.TotalCritical))
	fmt.Fprintf(b, "- **Most affected class:** %s\n", orNA(common.ClassLabel(s.MostAffectedClass)))

	if len(s.Transitions) > 0 {
		b.WriteString("\n| From | To | Share |\n|------|----|------:|\n")
		for _, t := range s.Transitions {
			fmt.Fprintf(b, "| %s | %s | %s |\n", escapeMarkdown(t.From), escapeMarkdown(t.To), FormatPercent(t.Percentage))
		}
	}
	b.WriteString("\n")
}

func (f *markdownFormatter) writeImages(b *strings.Builder, s Summary) {
	b.WriteString("## Images\n\n")
	if s.VisualizationURL == "" && s.ChangeMapURL == "" {
		b.WriteString("_No images returned._\n")
		return
	}
	if s.VisualizationURL != "" {
		fmt.Fprintf(b, "![Visualization](%s)\n\n", s.VisualizationURL)
	}
	if s.ChangeMapURL != "" {
		fmt.Fprintf(b, "![Change Map](%s)\n", s.ChangeMapURL)
	}
}

func (f *markdownFormatter) FormatHistory(records []common.HistoryRecord) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Analysis History\n\n")

	if len(records) == 0 {
		b.WriteString("You haven't performed any analyses yet.\n")
		return []byte(b.String()), nil
	}

	b.WriteString("| ID | Type | Date | Years | Urbanization | Deforestation | Water |\n")
	b.WriteString("|----|------|------|-------|-------------:|--------------:|------:|\n")
	for i := range records {
		rec := &records[i]
		res := rec.Result()
		fmt.Fprintf(&b, "| %s | %s | %s | %d → %d | %s | %s | %s |\n",
			escapeMarkdown(rec.ID),
			rec.InputType.Label(),
			formatDate(rec.CreatedAt.Time),
			rec.BeforeYear, rec.AfterYear,
			FormatPercent(res.Percent(common.ClassUrbanization)),
			FormatPercent(res.Percent(common.ClassDeforestation)),
			FormatPercent(res.Percent(common.ClassWaterBodyChange)),
		)
	}
	return []byte(b.String()), nil
}

func (f *markdownFormatter) FormatRegions(regions []common.Region) ([]byte, error) {
	var b strings.Builder
	b.WriteString("# Available Regions\n\n")
	if len(regions) == 0 {
		b.WriteString("No regions available.\n")
		return []byte(b.String()), nil
	}
	b.WriteString("| ID | Name | Folder | Sample |\n|----|------|--------|--------|\n")
	for _, r := range regions {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeMarkdown(r.ID), escapeMarkdown(r.Name), escapeMarkdown(r.Folder), orNA(r.SampleURL))
	}
	return []byte(b.String()), nil
}

// textBar draws a fixed-width bar for a clamped percentage
func textBar(percent float64, width int) string {
	filled := int(ClampPercent(percent) / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func yearOrNA(y int) string {
	if y == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", y)
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
