package ui

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/ui/components"
)

// Theme is a named set of adaptive colors
type Theme struct {
	Name string

	Primary    lipgloss.AdaptiveColor
	Secondary  lipgloss.AdaptiveColor
	Foreground lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
	Selected   lipgloss.AdaptiveColor

	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	// land-cover classes
	Urban  lipgloss.AdaptiveColor
	Forest lipgloss.AdaptiveColor
	Water  lipgloss.AdaptiveColor
}

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var themeNames = []string{"default", "high-contrast", "minimal"}

var themes = map[string]Theme{
	"default": {
		Name:       "default",
		Primary:    adaptive("#0F766E", "#2DD4BF"),
		Secondary:  adaptive("#4B5563", "#9CA3AF"),
		Foreground: adaptive("#111827", "#F9FAFB"),
		Muted:      adaptive("#6B7280", "#9CA3AF"),
		Border:     adaptive("#D1D5DB", "#374151"),
		Selected:   adaptive("#CCFBF1", "#134E4A"),
		Success:    adaptive("#059669", "#10B981"),
		Warning:    adaptive("#D97706", "#F59E0B"),
		Error:      adaptive("#DC2626", "#EF4444"),
		Info:       adaptive("#0891B2", "#06B6D4"),
		Urban:      adaptive("#B45309", "#FBBF24"),
		Forest:     adaptive("#15803D", "#4ADE80"),
		Water:      adaptive("#1D4ED8", "#60A5FA"),
	},
	"high-contrast": {
		Name:       "high-contrast",
		Primary:    adaptive("#000000", "#FFFFFF"),
		Secondary:  adaptive("#333333", "#DDDDDD"),
		Foreground: adaptive("#000000", "#FFFFFF"),
		Muted:      adaptive("#555555", "#BBBBBB"),
		Border:     adaptive("#000000", "#FFFFFF"),
		Selected:   adaptive("#FFFF00", "#444444"),
		Success:    adaptive("#006600", "#00FF00"),
		Warning:    adaptive("#CC6600", "#FFAA00"),
		Error:      adaptive("#CC0000", "#FF4444"),
		Info:       adaptive("#0066CC", "#4499FF"),
		Urban:      adaptive("#993300", "#FF9933"),
		Forest:     adaptive("#006600", "#00FF00"),
		Water:      adaptive("#0000CC", "#00FFFF"),
	},
	"minimal": {
		Name:       "minimal",
		Primary:    adaptive("#2D3748", "#E2E8F0"),
		Secondary:  adaptive("#718096", "#A0AEC0"),
		Foreground: adaptive("#2D3748", "#F7FAFC"),
		Muted:      adaptive("#A0AEC0", "#718096"),
		Border:     adaptive("#E2E8F0", "#2D3748"),
		Selected:   adaptive("#EDF2F7", "#2D3748"),
		Success:    adaptive("#2F855A", "#68D391"),
		Warning:    adaptive("#C05621", "#F6AD55"),
		Error:      adaptive("#C53030", "#FC8181"),
		Info:       adaptive("#2B6CB0", "#63B3ED"),
		Urban:      adaptive("#744210", "#D69E2E"),
		Forest:     adaptive("#2F855A", "#68D391"),
		Water:      adaptive("#2B6CB0", "#63B3ED"),
	},
}

var currentTheme = themes["default"]

// GetTheme returns the active theme
func GetTheme() Theme {
	return currentTheme
}

// SetThemeByName activates a theme; false for unknown names
func SetThemeByName(name string) bool {
	theme, ok := themes[name]
	if ok {
		currentTheme = theme
	}
	return ok
}

// GetAvailableThemes lists theme names in display order
func GetAvailableThemes() []string {
	return append([]string(nil), themeNames...)
}

var colorDisabled atomic.Bool

// SetColorDisabled turns colors off regardless of NO_COLOR
func SetColorDisabled(disabled bool) {
	colorDisabled.Store(disabled)
}

// IsColorDisabled reports whether output should be plain
func IsColorDisabled() bool {
	return colorDisabled.Load() || os.Getenv("NO_COLOR") != ""
}

// Palette returns the component colors of the theme
func (t *Theme) Palette() components.Palette {
	if IsColorDisabled() {
		return components.PlainPalette()
	}
	return components.Palette{
		Primary:   t.Primary,
		Secondary: t.Secondary,
		Success:   t.Success,
		Warning:   t.Warning,
		Error:     t.Error,
		Muted:     t.Muted,
		Border:    t.Border,
		Selected:  t.Selected,
		Urban:     t.Urban,
		Forest:    t.Forest,
		Water:     t.Water,
	}
}

// Styles are the screen-level styles shared by the views
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Body      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Info      lipgloss.Style
	Box       lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
}

// GetStyles builds the styles of the active theme
func GetStyles() *Styles {
	s := &Styles{
		Title:        lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Header:       lipgloss.NewStyle().Bold(true),
		Subheader:    lipgloss.NewStyle().Bold(true),
		Body:         lipgloss.NewStyle(),
		Muted:        lipgloss.NewStyle(),
		Success:      lipgloss.NewStyle().Bold(true),
		Info:         lipgloss.NewStyle(),
		Box:          lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
		ListItem:     lipgloss.NewStyle().Padding(0, 2),
		ListSelected: lipgloss.NewStyle().Padding(0, 2).Bold(true),
	}
	if IsColorDisabled() {
		return s
	}

	t := GetTheme()
	s.Title = s.Title.Foreground(t.Primary)
	s.Header = s.Header.Foreground(t.Primary)
	s.Subheader = s.Subheader.Foreground(t.Secondary)
	s.Body = s.Body.Foreground(t.Foreground)
	s.Muted = s.Muted.Foreground(t.Muted)
	s.Success = s.Success.Foreground(t.Success)
	s.Info = s.Info.Foreground(t.Info)
	s.Box = s.Box.BorderForeground(t.Border)
	s.ListSelected = s.ListSelected.Background(t.Selected).Foreground(t.Primary)
	return s
}
