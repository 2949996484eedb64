package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/formatter"
)

// HistoryTable lists past analyses, newest first as delivered by the backend
type HistoryTable struct {
	Records    []common.HistoryRecord
	Cursor     int
	DateLayout string
	MaxRows    int
}

// NewHistoryTable creates the table
func NewHistoryTable(records []common.HistoryRecord, dateLayout string) *HistoryTable {
	if dateLayout == "" {
		dateLayout = "2006-01-02 15:04"
	}
	return &HistoryTable{
		Records:    records,
		DateLayout: dateLayout,
		MaxRows:    15,
	}
}

// Move shifts the cursor, stopping at the edges
func (t *HistoryTable) Move(delta int) {
	next := t.Cursor + delta
	if next < 0 || next >= len(t.Records) {
		return
	}
	t.Cursor = next
}

var historyColumns = []struct {
	title string
	width int
}{
	{"Type", 14},
	{"Date", 17},
	{"Years", 14},
	{"Urban", 9},
	{"Forest", 9},
}

// Row returns the cells of the record at index
func (t *HistoryTable) Row(index int) []string {
	r := &t.Records[index]
	date := "N/A"
	if !r.CreatedAt.IsZero() {
		date = r.CreatedAt.Local().Format(t.DateLayout)
	}
	return []string{
		r.InputType.Label(),
		date,
		fmt.Sprintf("%d → %d", r.BeforeYear, r.AfterYear),
		formatter.FormatPercent(r.Result().Percent(common.ClassUrbanization)),
		formatter.FormatPercent(r.Result().Percent(common.ClassDeforestation)),
	}
}

// Render renders the header and the visible rows
func (t *HistoryTable) Render(p Palette) string {
	header := make([]string, len(historyColumns))
	for i, col := range historyColumns {
		header[i] = pad(col.title, col.width)
	}
	lines := []string{
		p.fg(p.Primary).Bold(true).Render("  " + strings.Join(header, " ")),
		p.fg(p.Border).Render("  " + strings.Repeat("─", tableWidth())),
	}

	start := 0
	if t.MaxRows > 0 && t.Cursor >= t.MaxRows {
		start = t.Cursor - t.MaxRows + 1
	}
	end := len(t.Records)
	if t.MaxRows > 0 && end > start+t.MaxRows {
		end = start + t.MaxRows
	}

	for i := start; i < end; i++ {
		cells := t.Row(i)
		for j, col := range historyColumns {
			cells[j] = pad(cells[j], col.width)
		}
		line := strings.Join(cells, " ")
		if i == t.Cursor {
			lines = append(lines, p.selected().Render("▶ "+line))
		} else {
			lines = append(lines, p.fg(p.Secondary).Render("  "+line))
		}
	}

	if end-start < len(t.Records) {
		lines = append(lines, p.fg(p.Muted).Render(fmt.Sprintf("  (%d-%d of %d)", start+1, end, len(t.Records))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func tableWidth() int {
	w := 0
	for _, col := range historyColumns {
		w += col.width + 1
	}
	return w - 1
}

func pad(s string, width int) string {
	s = truncate(s, width)
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
