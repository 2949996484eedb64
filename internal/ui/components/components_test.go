package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/terrawatch/terrawatch/internal/common"
)

var testRegions = []common.Region{
	{ID: "r1", Name: "Mumbai", Folder: "mumbai"},
	{ID: "r2", Name: "Amazon", Folder: "amazon"},
	{ID: "r3", Name: "Aral Sea", Folder: "aral_sea"},
	{ID: "r4", Name: "Dubai", Folder: "dubai"},
}

func TestRegionCards_ActivatePassesExactRegion(t *testing.T) {
	for i, want := range testRegions {
		var got []common.Region
		cards := NewRegionCards(testRegions, func(r common.Region) {
			got = append(got, r)
		})

		if !cards.ActivateAt(i) {
			t.Fatalf("ActivateAt(%d) returned false", i)
		}
		if len(got) != 1 || got[0] != want {
			t.Errorf("card %d: handler got %+v, want %+v", i, got, want)
		}
	}
}

func TestRegionCards_Navigation(t *testing.T) {
	var got common.Region
	cards := NewRegionCards(testRegions, func(r common.Region) { got = r })
	cards.Columns = 2

	cards.Move(-1)
	if cards.Cursor != 0 {
		t.Errorf("cursor moved past the start: %d", cards.Cursor)
	}
	cards.MoveRow(1)
	cards.Move(1)
	if cards.Cursor != 3 {
		t.Fatalf("cursor = %d, want 3", cards.Cursor)
	}
	cards.MoveRow(1)
	if cards.Cursor != 3 {
		t.Errorf("cursor moved past the end: %d", cards.Cursor)
	}

	cards.Activate()
	if got.ID != "r4" {
		t.Errorf("activated %+v, want r4", got)
	}
}

func TestRegionCards_NoHandlerOrEmpty(t *testing.T) {
	if NewRegionCards(testRegions, nil).Activate() {
		t.Error("activation without a handler should report false")
	}
	empty := NewRegionCards(nil, func(common.Region) { t.Error("handler must not run") })
	if empty.Activate() {
		t.Error("activation of an empty grid should report false")
	}
	if !strings.Contains(empty.Render(PlainPalette(), 80), "No regions") {
		t.Error("empty grid should say so")
	}
}

func TestChangeBar_Clamps(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{-3, 0},
		{0, 0},
		{50, 10},
		{100, 20},
		{250, 20},
	}
	for _, tt := range tests {
		bar := &ChangeBar{Class: common.ClassUrbanization, Label: "Urbanization", Percent: tt.percent, Width: 20}
		if got := bar.Filled(); got != tt.filled {
			t.Errorf("Filled(%v) = %d, want %d", tt.percent, got, tt.filled)
		}
	}
}

func TestResultView_MissingCriticalRendersZeros(t *testing.T) {
	view := NewResultView("Result", &common.AnalysisResult{})
	out := view.Render(PlainPalette())

	for _, want := range []string{"Urbanization", "Deforestation", "Water Body Change", "Total: 0.00%", "not available"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q\n%s", want, out)
		}
	}
	if len(view.Bars()) != 3 {
		t.Errorf("expected three bars, got %d", len(view.Bars()))
	}
}

func TestRecordDetail_UsesRecordURLs(t *testing.T) {
	rec := &common.HistoryRecord{
		ID: "2", InputType: common.InputUserUploaded, BeforeYear: 2018, AfterYear: 2023,
		VisualizationURL: "https://img/vis.jpg", ChangeMapURL: "https://img/map.jpg",
		CreatedAt: common.Timestamp{Time: time.Date(2025, 3, 28, 14, 15, 0, 0, time.UTC)},
	}
	detail := NewRecordDetail(rec, "")
	out := detail.Render(PlainPalette())

	for _, want := range []string{"2018", "2023", "5 years", "Uploaded", "https://img/vis.jpg", "https://img/map.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q\n%s", want, out)
		}
	}
	if rec.Analysis != nil {
		t.Error("rendering must not mutate the record")
	}
}

func TestHistoryTable_Row(t *testing.T) {
	table := NewHistoryTable([]common.HistoryRecord{{
		InputType: common.InputPredefinedRegion, BeforeYear: 2013, AfterYear: 2025,
		Analysis: &common.AnalysisResult{ChangePercentages: common.ChangePercentages{
			common.ClassUrbanization: 15.2, common.ClassDeforestation: 8.7,
		}},
	}}, "")

	row := table.Row(0)
	want := []string{"Sample Region", "N/A", "2013 → 2025", "15.20%", "8.70%"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d = %q, want %q", i, row[i], want[i])
		}
	}

	table.Move(1)
	if table.Cursor != 0 {
		t.Errorf("cursor moved past the end: %d", table.Cursor)
	}
}

func TestTextInput(t *testing.T) {
	in := NewTextInput("Path", "")
	in.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a.pnx")})
	in.HandleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	in.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	if in.Value != "a.png" {
		t.Errorf("value = %q", in.Value)
	}
	if in.HandleKey(tea.KeyMsg{Type: tea.KeyEnter}) {
		t.Error("enter should not be consumed")
	}
	in.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlU})
	if in.Value != "" {
		t.Errorf("ctrl+u should clear, got %q", in.Value)
	}
}

func TestYearPicker(t *testing.T) {
	y := NewYearPicker("Before", []int{2011, 2012, 2013})
	if y.Value() != 0 {
		t.Fatal("picker should start empty")
	}
	y.Next()
	if y.Value() != 2011 {
		t.Errorf("Next from empty = %d", y.Value())
	}
	y.Clear()
	y.Prev()
	if y.Value() != 2013 {
		t.Errorf("Prev from empty = %d", y.Value())
	}
	y.Next()
	if y.Value() != 2013 {
		t.Errorf("Next past the end = %d", y.Value())
	}
	y.Set(1999)
	if y.Value() != 0 {
		t.Errorf("unknown year should clear, got %d", y.Value())
	}
}
