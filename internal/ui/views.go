package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/pages"
	"github.com/terrawatch/terrawatch/internal/ui/components"
	"github.com/terrawatch/terrawatch/internal/upload"
)

const logo = `
╔╦╗╔═╗╦═╗╦═╗╔═╗╦ ╦╔═╗╔╦╗╔═╗╦ ╦
 ║ ║╣ ╠╦╝╠╦╝╠═╣║║║╠═╣ ║ ║  ╠═╣
 ╩ ╚═╝╩╚═╩╚═╩ ╩╚╩╝╩ ╩ ╩ ╚═╝╩ ╩`

// View renders the current screen
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	theme := GetTheme()
	p := theme.Palette()
	styles := GetStyles()

	var body, hints string
	switch {
	case m.showSignIn():
		body, hints = m.viewSignIn(p, styles), "enter sign in • esc back"
	case m.route == RouteRegions:
		body, hints = m.viewRegions(p, styles)
	case m.route == RouteUpload:
		body, hints = m.viewUpload(p, styles)
	case m.route == RouteHistory:
		body, hints = m.viewHistory(p, styles)
	case m.route == RouteAbout:
		body, hints = m.viewAbout(styles), "esc back"
	default:
		body, hints = m.viewHome(p, styles), "↑↓ move • enter select • 1-4 jump • q quit"
	}

	parts := []string{m.viewHeader(styles), "", body}
	if banner := components.ErrorBanner(p, m.banner, m.contentWidth()); banner != "" {
		parts = append(parts, "", banner)
	}
	if notice := components.Notice(p, m.notice); notice != "" {
		parts = append(parts, "", notice)
	}
	parts = append(parts, "", styles.Muted.Render(hints))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	box := styles.Box
	if w := m.contentWidth(); w > 0 {
		box = box.Width(w)
	}
	framed := box.Render(content)

	if m.width == 0 || m.height == 0 {
		return framed
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, framed)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return min(m.width-4, 110)
}

func (m *Model) viewHeader(styles *Styles) string {
	title := styles.Title.Render(emoji.GetEmoji("satellite") + " TerraWatch")
	if m.route != RouteHome {
		title += styles.Muted.Render(" / " + m.route.String())
	}
	user := styles.Muted.Render(emoji.GetEmoji("lock") + " signed out")
	if m.session.SignedIn() {
		user = styles.Info.Render(emoji.GetEmoji("user") + " " + m.session.UserID)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", user)
}

func (m *Model) viewHome(p components.Palette, styles *Styles) string {
	items := make([]string, 0, len(menuRoutes)+1)
	icons := map[Route]string{
		RouteRegions: emoji.GetEmoji("region"),
		RouteUpload:  emoji.GetEmoji("upload"),
		RouteHistory: emoji.GetEmoji("history"),
		RouteAbout:   emoji.GetEmoji("info"),
	}
	for _, r := range menuRoutes {
		label := icons[r] + " " + r.String()
		if r.Protected() && !m.session.SignedIn() {
			label += " " + emoji.GetEmoji("lock")
		}
		items = append(items, label)
	}
	if m.session.SignedIn() {
		items = append(items, emoji.GetEmoji("door")+" Sign out")
	} else {
		items = append(items, emoji.GetEmoji("user")+" Sign in")
	}

	menu := make([]string, 0, len(items))
	for i, item := range items {
		if i == m.menu {
			menu = append(menu, styles.ListSelected.Render("▶ "+item))
		} else {
			menu = append(menu, styles.ListItem.Render("  "+item))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Header.Render(logo),
		"",
		styles.Subheader.Render("Land-cover change detection from satellite imagery"),
		styles.Muted.Render("Compare two years of a region and see what changed."),
		"",
		lipgloss.JoinVertical(lipgloss.Left, menu...),
	)
}

func (m *Model) viewSignIn(p components.Palette, styles *Styles) string {
	lines := []string{
		styles.Header.Render(emoji.GetEmoji("lock") + " " + pages.MsgSignedOut),
		"",
		styles.Body.Render("Paste the session token issued by your identity provider."),
		styles.Muted.Render("Development backends also accept a plain user id."),
		"",
		m.signIn.Render(p),
	}
	if m.signInErr != "" {
		lines = append(lines, "", components.ErrorBanner(p, m.signInErr, m.contentWidth()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) viewRegions(p components.Palette, styles *Styles) (string, string) {
	page := m.predefined
	switch page.Screen() {
	case pages.ScreenLoadingRegions:
		return m.spinnerWith("Loading regions", p), "esc back"

	case pages.ScreenRegionsFailed:
		return components.ErrorBanner(p, page.Error(), m.contentWidth()), "r retry • esc back"

	case pages.ScreenRegionList:
		title := styles.Header.Render(emoji.GetEmoji("region") + " Choose a region")
		if m.cards == nil {
			return title, "esc back"
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, "", m.cards.Render(p, m.contentWidth())),
			"←→↑↓ move • enter select • r reload • esc back"

	case pages.ScreenRegionSubmitting:
		return m.spinner.Render(p), "esc home (the analysis keeps running)"

	case pages.ScreenRegionResult:
		before, after := page.Years()
		view := components.NewResultView(page.Selected().Name, page.Result())
		view.Subtitle = fmt.Sprintf("%d → %d (%d years)", before, after, after-before)
		return view.Render(p), "n analyze new • d save report • esc regions"
	}

	region := page.Selected()
	lines := []string{
		styles.Header.Render(emoji.GetEmoji("region") + " " + region.Name),
		styles.Muted.Render(emoji.GetEmoji("folder") + " " + region.Folder),
		"",
		m.regionBefore.Render(p),
		m.regionAfter.Render(p),
	}
	if page.Error() != "" {
		lines = append(lines, "", components.ErrorBanner(p, page.Error(), m.contentWidth()))
	}
	submit := styles.Muted.Render("[ Analyze ]")
	if page.CanSubmit() {
		submit = styles.Success.Render("[ Analyze ]")
	}
	lines = append(lines, "", submit)
	return lipgloss.JoinVertical(lipgloss.Left, lines...), "tab switch • ←→ year • enter analyze • esc regions"
}

func (m *Model) viewUpload(p components.Palette, styles *Styles) (string, string) {
	page := m.uploads
	switch page.Screen() {
	case pages.ScreenUploadSubmitting:
		return m.spinner.Render(p), "esc home (the analysis keeps running)"
	case pages.ScreenUploadResult:
		before, after := page.Years()
		title := page.RegionName
		if title == "" {
			title = "Uploaded images"
		}
		view := components.NewResultView(title, page.Result())
		view.Subtitle = fmt.Sprintf("%d → %d (%d years)", before, after, after-before)
		return view.Render(p), "n analyze new • d save report • esc home"
	}

	lines := []string{
		styles.Header.Render(emoji.GetEmoji("upload") + " Upload a before/after image pair"),
		"",
		m.beforePath.Render(p),
		imageInfo(styles, page.Before()),
		m.afterPath.Render(p),
		imageInfo(styles, page.After()),
		m.uploadBefore.Render(p),
		m.uploadAfter.Render(p),
		m.regionName.Render(p),
		m.notes.Render(p),
	}
	if page.Error() != "" {
		lines = append(lines, "", components.ErrorBanner(p, page.Error(), m.contentWidth()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...), "tab next field • enter select image / analyze • ctrl+s analyze • esc back"
}

func (m *Model) spinnerWith(label string, p components.Palette) string {
	s := *m.spinner
	s.Label = label
	return s.Render(p)
}

func imageInfo(styles *Styles, img *upload.Image) string {
	indent := strings.Repeat(" ", 15)
	if img == nil {
		return styles.Muted.Render(indent + "no image selected")
	}
	return styles.Info.Render(fmt.Sprintf("%s%s %s %dx%d %s, %d KB",
		indent, emoji.GetEmoji("image"), img.Name, img.Width, img.Height, img.Format, img.Size/1024))
}

func (m *Model) viewHistory(p components.Palette, styles *Styles) (string, string) {
	page := m.history
	switch page.Screen() {
	case pages.ScreenHistoryLoading:
		return m.spinnerWith("Loading history", p), "esc back"
	case pages.ScreenHistoryFailed:
		return components.ErrorBanner(p, page.Error(), m.contentWidth()), "r retry • esc back"
	case pages.ScreenHistoryEmpty:
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.Header.Render(emoji.GetEmoji("history")+" No analyses yet"),
			styles.Muted.Render("Analyze a region or upload images to get started."),
		), "r reload • esc back"
	case pages.ScreenHistoryDetail:
		detail := components.NewRecordDetail(page.Selected(), m.opts.DateLayout)
		return detail.Render(p), "d save report • esc list"
	}

	title := styles.Header.Render(fmt.Sprintf("%s Analysis history (%d)", emoji.GetEmoji("history"), len(page.Records())))
	return lipgloss.JoinVertical(lipgloss.Left, title, "", m.historyTable.Render(p)), "↑↓ move • enter details • r reload • esc back"
}

func (m *Model) viewAbout(styles *Styles) string {
	lines := []string{
		styles.Header.Render(emoji.GetEmoji("info") + " About TerraWatch"),
		"",
		styles.Body.Render("TerraWatch sends satellite image pairs to a change detection backend"),
		styles.Body.Render("and shows how much land turned urban, lost forest or changed water bodies."),
		"",
		styles.Subheader.Render("Change classes"),
		"  " + emoji.GetEmoji("urban") + " Urbanization      new built-up area",
		"  " + emoji.GetEmoji("forest") + " Deforestation     forest cover lost",
		"  " + emoji.GetEmoji("water") + " Water body change  water turned to land or back",
	}
	if m.opts.BaseURL != "" {
		lines = append(lines, "", styles.Muted.Render(emoji.GetEmoji("server")+" Backend: "+m.opts.BaseURL))
	}
	lines = append(lines, styles.Muted.Render("Theme: "+GetTheme().Name+" ("+strings.Join(GetAvailableThemes(), ", ")+")"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
