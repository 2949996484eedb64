package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/formatter"
)

// ChangeBar renders one change class as a labelled progress bar
type ChangeBar struct {
	Class   string
	Label   string
	Percent float64
	Width   int
}

// NewChangeBar creates a bar for a summarized class
func NewChangeBar(c formatter.ClassChange, width int) *ChangeBar {
	return &ChangeBar{
		Class:   c.Class,
		Label:   c.Label,
		Percent: c.Percent,
		Width:   width,
	}
}

// Filled returns the number of filled cells, computed from the clamped value
func (b *ChangeBar) Filled() int {
	if b.Width <= 0 {
		return 0
	}
	return int(formatter.ClampPercent(b.Percent) / 100 * float64(b.Width))
}

// Render renders the bar
func (b *ChangeBar) Render(p Palette) string {
	filled := b.Filled()
	bar := p.fg(p.ClassColor(b.Class)).Render(strings.Repeat("█", filled)) +
		p.fg(p.Muted).Render(strings.Repeat("░", b.Width-filled))

	label := fmt.Sprintf("%s %-18s", emoji.ForClass(b.Class), b.Label)
	value := lipgloss.NewStyle().Bold(true).Render(formatter.FormatPercent(b.Percent))
	return fmt.Sprintf("%s [%s] %s", label, bar, value)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner represents a spinning progress indicator
type Spinner struct {
	Frame     int
	StartTime time.Time
	Label     string
}

// NewSpinner creates a new spinner
func NewSpinner() *Spinner {
	return &Spinner{
		StartTime: time.Now(),
	}
}

// SetLabel sets the spinner label and restarts the elapsed clock
func (s *Spinner) SetLabel(label string) {
	s.Label = label
	s.StartTime = time.Now()
}

// Tick advances the spinner animation
func (s *Spinner) Tick() {
	s.Frame = (s.Frame + 1) % len(spinnerFrames)
}

// Render renders the spinner
func (s *Spinner) Render(p Palette) string {
	spinner := p.fg(p.Primary).Bold(true).Render(spinnerFrames[s.Frame])
	if s.Label == "" {
		return spinner
	}
	elapsed := p.fg(p.Muted).Render(fmt.Sprintf("(%s)", formatElapsed(time.Since(s.StartTime))))
	return fmt.Sprintf("%s %s %s", spinner, s.Label, elapsed)
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// ErrorBanner renders an inline error message, or nothing when empty
func ErrorBanner(p Palette, message string, width int) string {
	if message == "" {
		return ""
	}
	style := lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Error).
		PaddingLeft(1)
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(emoji.GetEmoji("error") + " " + message)
}

// Notice renders a one-line success message, or nothing when empty
func Notice(p Palette, message string) string {
	if message == "" {
		return ""
	}
	return p.fg(p.Success).Render(emoji.GetEmoji("success") + " " + message)
}
