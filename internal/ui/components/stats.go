package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/formatter"
)

// ResultView renders the statistics of one analysis
type ResultView struct {
	Title    string
	Subtitle string
	Summary  formatter.Summary
	BarWidth int
}

// NewResultView summarizes result for display. A nil result renders zeros.
func NewResultView(title string, result *common.AnalysisResult) *ResultView {
	return &ResultView{
		Title:    title,
		Summary:  formatter.Summarize(result),
		BarWidth: 30,
	}
}

// Bars returns one bar per change class in display order
func (v *ResultView) Bars() []*ChangeBar {
	bars := make([]*ChangeBar, 0, len(v.Summary.Classes))
	for _, c := range v.Summary.Classes {
		bars = append(bars, NewChangeBar(c, v.BarWidth))
	}
	return bars
}

// Render renders the view
func (v *ResultView) Render(p Palette) string {
	header := p.fg(p.Primary).Bold(true)
	muted := p.fg(p.Muted)

	content := []string{header.Render(emoji.GetEmoji("statistics") + " " + v.Title)}
	if v.Subtitle != "" {
		content = append(content, muted.Render(v.Subtitle))
	}
	content = append(content, "", header.Render("Land-cover change"))
	for _, bar := range v.Bars() {
		content = append(content, bar.Render(p))
	}

	s := v.Summary
	content = append(content, "", header.Render(emoji.GetEmoji("warning")+" Critical changes"))
	content = append(content, fmt.Sprintf("  Total: %s", formatter.FormatPercent(s.TotalCritical)))
	if s.MostAffectedClass != "" {
		content = append(content, fmt.Sprintf("  Most affected: %s", common.ClassLabel(s.MostAffectedClass)))
	}
	for _, t := range s.Transitions {
		content = append(content, muted.Render(fmt.Sprintf("  %s → %s  %s", t.From, t.To, formatter.FormatPercent(t.Percentage))))
	}

	content = append(content, "", header.Render(emoji.GetEmoji("image")+" Images"))
	content = append(content, imageLine(p, "Visualization", s.VisualizationURL), imageLine(p, "Change map", s.ChangeMapURL))

	return lipgloss.JoinVertical(lipgloss.Left, content...)
}

func imageLine(p Palette, label, url string) string {
	if url == "" {
		return p.fg(p.Muted).Render(fmt.Sprintf("  %-14s not available", label+":"))
	}
	return fmt.Sprintf("  %-14s %s", label+":", p.fg(p.Secondary).Underline(true).Render(url))
}
