package formatter

import (
	"fmt"
	"strings"

	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) FormatResult(report *Report) ([]byte, error) {
	var b strings.Builder
	summary := Summarize(report.Result)

	title := report.Title
	if title == "" {
		title = "Land Cover Change Analysis"
	}
	f.writeHeader(&b, title)
	f.writeContext(&b, report)
	f.writeChanges(&b, summary)
	f.writeCritical(&b, summary)
	f.writeImages(&b, summary)

	return []byte(b.String()), nil
}

func (f *terminalFormatter) FormatHistory(records []common.HistoryRecord) ([]byte, error) {
	var b strings.Builder
	f.writeHeader(&b, "Analysis History")

	if len(records) == 0 {
		b.WriteString("You haven't performed any analyses yet.\n")
		return []byte(b.String()), nil
	}

	fmt.Fprintf(&b, "%-10s  %-14s  %-18s  %-20s  %10s  %10s\n",
		"ID", "Type", "Date", "Years", "Urban", "Forest")
	b.WriteString(strings.Repeat("─", 92) + "\n")
	for i := range records {
		rec := &records[i]
		fmt.Fprintf(&b, "%-10s  %-14s  %-18s  %-20s  %10s  %10s\n",
			truncate(rec.ID, 10),
			rec.InputType.Label(),
			formatDate(rec.CreatedAt.Time),
			yearSpan(rec.BeforeYear, rec.AfterYear),
			FormatPercent(rec.Result().Percent(common.ClassUrbanization)),
			FormatPercent(rec.Result().Percent(common.ClassDeforestation)),
		)
	}
	fmt.Fprintf(&b, "\n%d record(s)\n", len(records))
	return []byte(b.String()), nil
}

func (f *terminalFormatter) FormatRegions(regions []common.Region) ([]byte, error) {
	var b strings.Builder
	f.writeHeader(&b, "Available Regions")

	if len(regions) == 0 {
		b.WriteString("No regions available.\n")
		return []byte(b.String()), nil
	}

	items := make([]termfmt.TreeItem, 0, len(regions))
	for i, r := range regions {
		items = append(items, termfmt.TreeItem{
			Label: r.Name,
			Value: r.ID,
			Children: []termfmt.TreeItem{
				{Label: "Folder", Value: r.Folder},
				{Label: "Sample", Value: orNA(r.SampleURL), Last: true},
			},
			Last: i == len(regions)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
	return []byte(b.String()), nil
}

// writeContext writes what was compared
func (f *terminalFormatter) writeContext(b *strings.Builder, report *Report) {
	items := []termfmt.TreeItem{}
	if report.RegionName != "" {
		items = append(items, termfmt.TreeItem{Label: "Region", Value: report.RegionName})
	}
	if report.InputType != "" {
		items = append(items, termfmt.TreeItem{Label: "Source", Value: report.InputType.Label()})
	}
	items = append(items, termfmt.TreeItem{Label: "Years", Value: yearSpan(report.BeforeYear, report.AfterYear)})
	if !report.GeneratedAt.IsZero() {
		items = append(items, termfmt.TreeItem{Label: "Date", Value: formatDate(report.GeneratedAt)})
	}
	items[len(items)-1].Last = true

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeChanges writes one bar per change class
func (f *terminalFormatter) writeChanges(b *strings.Builder, s Summary) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " Change Statistics\n")

	items := make([]termfmt.TreeItem, 0, len(s.Classes))
	for i, c := range s.Classes {
		items = append(items, termfmt.TreeItem{
			Label: fmt.Sprintf("%s %s", getClassEmoji(c.Class, f.opts), c.Label),
			Value: FormatPercent(c.Percent),
			Children: []termfmt.TreeItem{
				{Label: createChangeBar(c.Percent, f.opts), Value: "", Last: true},
			},
			Last: i == len(s.Classes)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeCritical writes the critical change summary, zeros when absent
func (f *terminalFormatter) writeCritical(b *strings.Builder, s Summary) {
	symbol := termfmt.GetEmoji("warning", f.opts)
	b.WriteString(symbol + " Critical Changes\n")

	items := []termfmt.TreeItem{
		{Label: "Total", Value: FormatPercent(s.TotalCritical)},
		{Label: "Most Affected", Value: orNA(common.ClassLabel(s.MostAffectedClass))},
	}
	if len(s.Transitions) > 0 {
		children := make([]termfmt.TreeItem, 0, len(s.Transitions))
		for i, t := range s.Transitions {
			children = append(children, termfmt.TreeItem{
				Label: fmt.Sprintf("%s → %s", t.From, t.To),
				Value: FormatPercent(t.Percentage),
				Last:  i == len(s.Transitions)-1,
			})
		}
		items = append(items, termfmt.TreeItem{Label: "Transitions", Value: "", Children: children})
	}
	items[len(items)-1].Last = true

	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n\n")
}

// writeImages writes the result image links
func (f *terminalFormatter) writeImages(b *strings.Builder, s Summary) {
	symbol := termfmt.GetEmoji("insights", f.opts)
	b.WriteString(symbol + " Images\n")

	items := []termfmt.TreeItem{
		{Label: "Visualization", Value: orNA(s.VisualizationURL)},
		{Label: "Change Map", Value: orNA(s.ChangeMapURL), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, f.opts) + "\n")
}

// writeHeader writes a header with box drawing
func (f *terminalFormatter) writeHeader(b *strings.Builder, header string) {
	headerLen := len([]rune(header))

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
