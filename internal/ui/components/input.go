package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// TextInput is a single-line editable field
type TextInput struct {
	Label       string
	Placeholder string
	Value       string
	Focused     bool
	Masked      bool
}

// NewTextInput creates an empty field
func NewTextInput(label, placeholder string) *TextInput {
	return &TextInput{Label: label, Placeholder: placeholder}
}

// HandleKey edits the value and reports whether the key was consumed
func (t *TextInput) HandleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		t.Value += string(msg.Runes)
		return true
	case tea.KeySpace:
		t.Value += " "
		return true
	case tea.KeyBackspace:
		if r := []rune(t.Value); len(r) > 0 {
			t.Value = string(r[:len(r)-1])
		}
		return true
	case tea.KeyCtrlU:
		t.Value = ""
		return true
	}
	return false
}

// Trimmed returns the value without surrounding whitespace
func (t *TextInput) Trimmed() string {
	return strings.TrimSpace(t.Value)
}

// Render renders the label and value
func (t *TextInput) Render(p Palette) string {
	value := t.Value
	if t.Masked && value != "" {
		value = strings.Repeat("•", min(len([]rune(value)), 24))
	}

	style := p.fg(p.Secondary)
	if value == "" {
		value = p.fg(p.Muted).Render(t.Placeholder)
	}
	cursor := ""
	if t.Focused {
		style = p.fg(p.Primary).Bold(true)
		cursor = "▌"
	}
	return fmt.Sprintf("%s %s%s", style.Render(fmt.Sprintf("%-14s", t.Label+":")), value, cursor)
}

// YearPicker cycles through a fixed list of years
type YearPicker struct {
	Label   string
	Years   []int
	Focused bool
	index   int
}

// NewYearPicker creates a picker with nothing chosen
func NewYearPicker(label string, years []int) *YearPicker {
	return &YearPicker{Label: label, Years: years, index: -1}
}

// Value returns the chosen year or zero
func (y *YearPicker) Value() int {
	if y.index < 0 || y.index >= len(y.Years) {
		return 0
	}
	return y.Years[y.index]
}

// Set chooses year, clearing the picker when it is not offered
func (y *YearPicker) Set(year int) {
	y.index = -1
	for i, v := range y.Years {
		if v == year {
			y.index = i
			return
		}
	}
}

// Next moves to the following year, starting from the first
func (y *YearPicker) Next() {
	if len(y.Years) == 0 {
		return
	}
	if y.index < len(y.Years)-1 {
		y.index++
	}
}

// Prev moves to the preceding year, starting from the last
func (y *YearPicker) Prev() {
	if len(y.Years) == 0 {
		return
	}
	switch {
	case y.index < 0:
		y.index = len(y.Years) - 1
	case y.index > 0:
		y.index--
	}
}

// Clear drops the choice
func (y *YearPicker) Clear() {
	y.index = -1
}

// HandleKey moves the choice with the arrow keys
func (y *YearPicker) HandleKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "right", "l", "+":
		y.Next()
	case "left", "h", "-":
		y.Prev()
	case "backspace", "x":
		y.Clear()
	default:
		return false
	}
	return true
}

// Render renders the label and the chosen year
func (y *YearPicker) Render(p Palette) string {
	value := p.fg(p.Muted).Render("select year")
	if v := y.Value(); v != 0 {
		value = fmt.Sprintf("%d", v)
	}
	style := p.fg(p.Secondary)
	if y.Focused {
		style = p.fg(p.Primary).Bold(true)
		value = "◀ " + value + " ▶"
	}
	return fmt.Sprintf("%s %s", style.Render(fmt.Sprintf("%-14s", y.Label+":")), value)
}
