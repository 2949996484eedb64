// Package components holds the reusable pieces of the terminal UI. Components
// never talk to the backend; they render state and report user choices.
package components

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors a component renders with
type Palette struct {
	Primary   lipgloss.TerminalColor
	Secondary lipgloss.TerminalColor
	Success   lipgloss.TerminalColor
	Warning   lipgloss.TerminalColor
	Error     lipgloss.TerminalColor
	Muted     lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
	Selected  lipgloss.TerminalColor
	Urban     lipgloss.TerminalColor
	Forest    lipgloss.TerminalColor
	Water     lipgloss.TerminalColor
}

// DefaultPalette returns the colors used when no theme is applied
func DefaultPalette() Palette {
	return Palette{
		Primary:   lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"},
		Secondary: lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Success:   lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"},
		Warning:   lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"},
		Error:     lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"},
		Muted:     lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"},
		Border:    lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
		Selected:  lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"},
		Urban:     lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A855F7"},
		Forest:    lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"},
		Water:     lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#06B6D4"},
	}
}

// PlainPalette renders without any color
func PlainPalette() Palette {
	none := lipgloss.NoColor{}
	return Palette{
		Primary: none, Secondary: none, Success: none, Warning: none, Error: none,
		Muted: none, Border: none, Selected: none, Urban: none, Forest: none, Water: none,
	}
}

// ClassColor returns the color of a change class
func (p Palette) ClassColor(class string) lipgloss.TerminalColor {
	switch class {
	case "urbanization":
		return p.Urban
	case "deforestation":
		return p.Forest
	case "water_body_change":
		return p.Water
	default:
		return p.Primary
	}
}

func (p Palette) fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func (p Palette) selected() lipgloss.Style {
	return lipgloss.NewStyle().Background(p.Selected).Foreground(p.Primary).Bold(true)
}
