package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/emoji"
)

// RecordDetail shows one history record with its statistics
type RecordDetail struct {
	Record     *common.HistoryRecord
	DateLayout string
}

// NewRecordDetail creates the detail view of rec
func NewRecordDetail(rec *common.HistoryRecord, dateLayout string) *RecordDetail {
	if dateLayout == "" {
		dateLayout = "2006-01-02 15:04"
	}
	return &RecordDetail{Record: rec, DateLayout: dateLayout}
}

// Fields returns the labelled facts of the record in display order
func (d *RecordDetail) Fields() [][2]string {
	r := d.Record
	created := "N/A"
	if !r.CreatedAt.IsZero() {
		created = r.CreatedAt.Local().Format(d.DateLayout)
	}
	fields := [][2]string{
		{"Type", r.InputType.Label()},
	}
	if r.RegionName != "" {
		fields = append(fields, [2]string{"Region", r.RegionName})
	}
	return append(fields,
		[2]string{"Before year", fmt.Sprintf("%d", r.BeforeYear)},
		[2]string{"After year", fmt.Sprintf("%d", r.AfterYear)},
		[2]string{"Duration", fmt.Sprintf("%d years", r.Duration())},
		[2]string{"Created", created},
	)
}

// Render renders the record. The record's own image URLs take precedence
// over the ones nested in its analysis.
func (d *RecordDetail) Render(p Palette) string {
	if d.Record == nil {
		return p.fg(p.Muted).Render("No record selected")
	}

	title := p.fg(p.Primary).Bold(true).Render(emoji.GetEmoji("history") + " Analysis " + d.Record.ID)
	lines := []string{title, ""}
	for _, f := range d.Fields() {
		lines = append(lines, fmt.Sprintf("  %-12s %s", f[0]+":", f[1]))
	}

	result := *d.Record.Result()
	if d.Record.VisualizationURL != "" {
		result.VisualizationURL = d.Record.VisualizationURL
	}
	if d.Record.ChangeMapURL != "" {
		result.ChangeMapURL = d.Record.ChangeMapURL
	}
	view := NewResultView("Results", &result)

	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "", view.Render(p))...)
}
