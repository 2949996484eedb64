package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/emoji"
)

const defaultCardWidth = 28

// RegionCards is a navigable grid of predefined regions. Activating a card
// hands the region it shows to OnSelect.
type RegionCards struct {
	Regions  []common.Region
	Cursor   int
	Columns  int
	OnSelect func(common.Region)
}

// NewRegionCards creates the grid
func NewRegionCards(regions []common.Region, onSelect func(common.Region)) *RegionCards {
	return &RegionCards{
		Regions:  regions,
		Columns:  3,
		OnSelect: onSelect,
	}
}

// Move shifts the cursor by delta cards, stopping at the edges
func (c *RegionCards) Move(delta int) {
	if len(c.Regions) == 0 {
		return
	}
	next := c.Cursor + delta
	if next < 0 || next >= len(c.Regions) {
		return
	}
	c.Cursor = next
}

// MoveRow shifts the cursor by whole rows
func (c *RegionCards) MoveRow(delta int) {
	c.Move(delta * c.columns())
}

// Current returns the region under the cursor
func (c *RegionCards) Current() (common.Region, bool) {
	if c.Cursor < 0 || c.Cursor >= len(c.Regions) {
		return common.Region{}, false
	}
	return c.Regions[c.Cursor], true
}

// Activate selects the card under the cursor
func (c *RegionCards) Activate() bool {
	return c.ActivateAt(c.Cursor)
}

// ActivateAt selects the card at index
func (c *RegionCards) ActivateAt(index int) bool {
	if index < 0 || index >= len(c.Regions) || c.OnSelect == nil {
		return false
	}
	c.Cursor = index
	c.OnSelect(c.Regions[index])
	return true
}

func (c *RegionCards) columns() int {
	if c.Columns < 1 {
		return 1
	}
	return c.Columns
}

// Render lays the cards out in rows fitting width
func (c *RegionCards) Render(p Palette, width int) string {
	if len(c.Regions) == 0 {
		return p.fg(p.Muted).Render("No regions available")
	}

	cols := c.columns()
	if width > 0 {
		if fit := width / (defaultCardWidth + 2); fit >= 1 && fit < cols {
			cols = fit
		}
	}

	var rows []string
	for start := 0; start < len(c.Regions); start += cols {
		end := start + cols
		if end > len(c.Regions) {
			end = len(c.Regions)
		}
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, c.renderCard(p, i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (c *RegionCards) renderCard(p Palette, index int) string {
	region := c.Regions[index]
	selected := index == c.Cursor

	border := p.Border
	if selected {
		border = p.Primary
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(defaultCardWidth)

	title := p.fg(p.Primary).Bold(true).Render(truncate(region.Name, defaultCardWidth-4))
	if selected {
		title = p.selected().Render(truncate(region.Name, defaultCardWidth-4))
	}
	lines := []string{
		emoji.GetEmoji("region") + " " + title,
		p.fg(p.Secondary).Render(emoji.GetEmoji("folder") + " " + truncate(region.Folder, defaultCardWidth-6)),
	}
	if region.SampleURL != "" {
		lines = append(lines, p.fg(p.Muted).Render(truncate(region.SampleURL, defaultCardWidth-2)))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
