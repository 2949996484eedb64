package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/terrawatch/terrawatch/internal/common"
)

// csvFormatter formats results and listings as CSV
type csvFormatter struct{}

// NewCSV creates a new CSV formatter
func NewCSV() Formatter {
	return &csvFormatter{}
}

func (f *csvFormatter) FormatResult(report *Report) ([]byte, error) {
	summary := Summarize(report.Result)

	rows := [][]string{{"Class", "Label", "Percent"}}
	for _, c := range summary.Classes {
		rows = append(rows, []string{c.Class, c.Label, formatCSVFloat(c.Percent)})
	}
	rows = append(rows,
		[]string{"critical_total", "Critical Changes", formatCSVFloat(summary.TotalCritical)},
	)
	for _, t := range summary.Transitions {
		rows = append(rows, []string{"transition", t.From + " -> " + t.To, formatCSVFloat(t.Percentage)})
	}
	return writeCSV(rows)
}

func (f *csvFormatter) FormatHistory(records []common.HistoryRecord) ([]byte, error) {
	rows := [][]string{{
		"ID",
		"Input Type",
		"Region",
		"Before Year",
		"After Year",
		"Urbanization",
		"Deforestation",
		"Water Body Change",
		"Visualization URL",
		"Change Map URL",
		"Created At",
	}}

	for i := range records {
		rec := &records[i]
		res := rec.Result()
		rows = append(rows, []string{
			rec.ID,
			string(rec.InputType),
			rec.RegionName,
			strconv.Itoa(rec.BeforeYear),
			strconv.Itoa(rec.AfterYear),
			formatCSVFloat(res.Percent(common.ClassUrbanization)),
			formatCSVFloat(res.Percent(common.ClassDeforestation)),
			formatCSVFloat(res.Percent(common.ClassWaterBodyChange)),
			rec.VisualizationURL,
			rec.ChangeMapURL,
			formatCSVTime(rec.CreatedAt.Time),
		})
	}
	return writeCSV(rows)
}

func (f *csvFormatter) FormatRegions(regions []common.Region) ([]byte, error) {
	rows := [][]string{{"ID", "Name", "Folder", "Sample URL"}}
	for _, r := range regions {
		rows = append(rows, []string{r.ID, r.Name, r.Folder, r.SampleURL})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return b.Bytes(), nil
}

func formatCSVFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatCSVTime formats time for CSV output
func formatCSVTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
