package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/pages"
	"github.com/terrawatch/terrawatch/internal/ui/components"
	"github.com/terrawatch/terrawatch/internal/upload"
)

// uploadField is the focused control of the upload form
type uploadField int

const (
	fieldBeforePath uploadField = iota
	fieldAfterPath
	fieldBeforeYear
	fieldAfterYear
	fieldRegionName
	fieldNotes
	uploadFieldCount
)

// menuRoutes are the routes listed on the home screen, in order
var menuRoutes = []Route{RouteRegions, RouteUpload, RouteHistory, RouteAbout}

// Model is the interactive terminal app
type Model struct {
	opts     Options
	log      *logger.Logger
	session  *auth.Session
	backend  Backend
	registry *upload.Registry
	years    []int

	predefined *pages.PredefinedPage
	uploads    *pages.UploadPage
	history    *pages.HistoryPage

	route    Route
	menu     int
	width    int
	height   int
	quitting bool
	spinner  *components.Spinner

	cards        *components.RegionCards
	regionBefore *components.YearPicker
	regionAfter  *components.YearPicker
	regionFocus  int

	beforePath   *components.TextInput
	afterPath    *components.TextInput
	uploadBefore *components.YearPicker
	uploadAfter  *components.YearPicker
	regionName   *components.TextInput
	notes        *components.TextInput
	uploadFocus  uploadField

	historyTable *components.HistoryTable

	signIn    *components.TextInput
	signInErr string

	banner string
	notice string
}

// NewModel creates the app on the home screen
func NewModel(opts Options) (*Model, error) {
	if opts.Connect == nil {
		return nil, errors.New("ui: no backend connector")
	}
	if opts.Theme != "" && !SetThemeByName(opts.Theme) {
		return nil, fmt.Errorf("ui: unknown theme %q", opts.Theme)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.FromYear == 0 || opts.ToYear == 0 {
		opts.FromYear, opts.ToYear = 2011, 2025
	}

	m := &Model{
		opts:     opts,
		log:      opts.Logger.WithComponent("ui"),
		registry: upload.NewRegistry(),
		years:    pages.AvailableYears(opts.FromYear, opts.ToYear),
		spinner:  components.NewSpinner(),
		signIn:   components.NewTextInput("Token or ID", "paste a session token or a user id"),
	}
	m.signIn.Masked = true

	session := opts.Session
	if session == nil {
		session = &auth.Session{}
	}
	if err := m.setSession(session); err != nil {
		return nil, err
	}
	return m, nil
}

// setSession connects with the session and rebuilds every page for it
func (m *Model) setSession(s *auth.Session) error {
	backend, err := m.opts.Connect(s)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if m.uploads != nil {
		m.uploads.Close()
	}

	m.session = s
	m.backend = backend
	m.predefined = pages.NewPredefinedPage(backend, s, m.log.WithComponent("predefined"))
	m.uploads = pages.NewUploadPage(backend, s, m.registry, m.log.WithComponent("upload"))
	m.history = pages.NewHistoryPage(backend, s, m.log.WithComponent("history"))
	m.cards = nil
	m.historyTable = nil
	m.resetRegionForm()
	m.resetUploadForm()
	return nil
}

func (m *Model) resetRegionForm() {
	m.regionBefore = components.NewYearPicker("Before year", m.years)
	m.regionAfter = components.NewYearPicker("After year", m.years)
	m.regionFocus = 0
	m.regionBefore.Focused = true
}

func (m *Model) resetUploadForm() {
	m.beforePath = components.NewTextInput("Before image", "path to the older image")
	m.afterPath = components.NewTextInput("After image", "path to the newer image")
	m.uploadBefore = components.NewYearPicker("Before year", m.years)
	m.uploadAfter = components.NewYearPicker("After year", m.years)
	m.regionName = components.NewTextInput("Region name", "optional")
	m.notes = components.NewTextInput("Notes", "optional")
	m.focusUpload(fieldBeforePath)
}

// Init starts the spinner clock
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Close releases every preview handle the app holds
func (m *Model) Close() {
	if m.uploads != nil {
		m.uploads.Close()
	}
}

// Route returns the current screen
func (m *Model) Route() Route {
	return m.route
}

// Update handles messages and navigation
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.spinner.Tick()
		return m, tick()
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case regionsLoadedMsg:
		m.handleRegionsLoaded(msg)
	case analysisDoneMsg:
		m.handleAnalysisDone(msg)
	case historyLoadedMsg:
		m.handleHistoryLoaded(msg)
	case reportSavedMsg:
		if msg.err != nil {
			m.banner = msg.err.Error()
		} else {
			m.notice = "Report saved to " + msg.path
		}
	}
	return m, nil
}

func (m *Model) handleRegionsLoaded(msg regionsLoadedMsg) {
	if err := m.predefined.RegionsLoaded(msg.regions, msg.err); err != nil {
		m.cards = nil
		return
	}
	m.cards = components.NewRegionCards(m.predefined.Regions(), m.selectRegion)
}

// handleHistoryLoaded drops records fetched for a session that has since changed
func (m *Model) handleHistoryLoaded(msg historyLoadedMsg) {
	if msg.page != m.history || msg.userID != m.session.UserID {
		m.log.Debug("dropping history of %s", msg.userID)
		return
	}
	if err := m.history.Loaded(msg.records, msg.err); err == nil {
		m.historyTable = components.NewHistoryTable(m.history.Records(), m.opts.DateLayout)
	}
}

// handleAnalysisDone ignores results of pages replaced since the request started
func (m *Model) handleAnalysisDone(msg analysisDoneMsg) {
	switch msg.route {
	case RouteRegions:
		if m.predefined.Status() == pages.Submitting {
			_ = m.predefined.Complete(msg.result, msg.err)
		}
	case RouteUpload:
		if m.uploads.Status() == pages.Submitting {
			_ = m.uploads.Complete(msg.result, msg.err)
		}
	}
}

// navigate switches routes and starts the fetch the new screen needs
func (m *Model) navigate(route Route) tea.Cmd {
	m.route = route
	m.banner = ""
	m.signInErr = ""

	if m.showSignIn() {
		m.signIn.Focused = true
		return nil
	}

	switch route {
	case RouteRegions:
		if m.cards == nil && m.predefined.Selected() == nil {
			return m.reloadRegions()
		}
	case RouteHistory:
		return m.reloadHistory()
	}
	return nil
}

func (m *Model) reloadRegions() tea.Cmd {
	m.predefined.StartLoadingRegions()
	return loadRegionsCmd(m.backend)
}

func (m *Model) reloadHistory() tea.Cmd {
	m.historyTable = nil
	userID, err := m.history.Start()
	if err != nil {
		return nil
	}
	return loadHistoryCmd(m.backend, m.history, userID)
}

func (m *Model) showSignIn() bool {
	return m.route == RouteSignIn || (m.route.Protected() && !m.session.SignedIn())
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	m.notice = ""

	if m.showSignIn() {
		return m, m.handleSignInKey(msg)
	}

	switch m.route {
	case RouteRegions:
		return m, m.handleRegionsKey(msg)
	case RouteUpload:
		return m, m.handleUploadKey(msg)
	case RouteHistory:
		return m, m.handleHistoryKey(msg)
	case RouteAbout:
		switch msg.String() {
		case "esc", "q", "enter":
			return m, m.navigate(RouteHome)
		}
		return m, nil
	default:
		return m.handleHomeKey(msg)
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Close()
	return m, tea.Quit
}

func (m *Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := len(menuRoutes) + 1
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.menu > 0 {
			m.menu--
		}
	case "down", "j":
		if m.menu < items-1 {
			m.menu++
		}
	case "1", "2", "3", "4":
		m.menu = int(msg.String()[0] - '1')
		return m, m.navigate(menuRoutes[m.menu])
	case "enter", " ":
		if m.menu < len(menuRoutes) {
			return m, m.navigate(menuRoutes[m.menu])
		}
		if m.session.SignedIn() {
			return m, m.signOut()
		}
		return m, m.navigate(RouteSignIn)
	}
	return m, nil
}

func (m *Model) signOut() tea.Cmd {
	if err := m.setSession(&auth.Session{}); err != nil {
		m.banner = err.Error()
	}
	m.notice = "Signed out"
	return nil
}

func (m *Model) handleSignInKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.signIn.Value = ""
		return m.navigate(RouteHome)
	case tea.KeyEnter:
		if err := m.signInWith(m.signIn.Trimmed()); err != nil {
			m.signInErr = err.Error()
			return nil
		}
		m.signIn.Value = ""
		m.notice = "Signed in as " + m.session.UserID
		if m.route == RouteSignIn {
			return m.navigate(RouteHome)
		}
		return m.navigate(m.route)
	}
	m.signIn.HandleKey(msg)
	return nil
}

// signInWith accepts a JWT session token or, for development backends, a bare user id
func (m *Model) signInWith(value string) error {
	if value == "" {
		return errors.New("enter a session token or a user id")
	}

	session := &auth.Session{UserID: value}
	if strings.Count(value, ".") == 2 {
		s, err := auth.FromToken(value, m.opts.JWTSecret)
		if err != nil {
			return err
		}
		session = s
	}
	if !session.SignedIn() {
		return auth.ErrSignedOut
	}
	return m.setSession(session)
}

// selectRegion is the card handler of the region grid
func (m *Model) selectRegion(region common.Region) {
	m.predefined.SelectRegion(region)
	m.resetRegionForm()
}

func (m *Model) handleRegionsKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch m.predefined.Screen() {
	case pages.ScreenLoadingRegions, pages.ScreenRegionSubmitting:
		if key == "esc" {
			return m.navigate(RouteHome)
		}
	case pages.ScreenRegionsFailed:
		switch key {
		case "r":
			return m.reloadRegions()
		case "esc", "q":
			return m.navigate(RouteHome)
		}
	case pages.ScreenRegionList:
		return m.handleRegionListKey(key)
	case pages.ScreenRegionForm:
		return m.handleRegionFormKey(msg)
	case pages.ScreenRegionResult:
		switch key {
		case "n":
			m.predefined.Reset()
			m.resetRegionForm()
		case "d":
			return saveReportCmd(m.opts.ReportDir, m.regionReport())
		case "esc", "backspace":
			m.predefined.BackToRegions()
		}
	}
	return nil
}

func (m *Model) handleRegionListKey(key string) tea.Cmd {
	if m.cards == nil {
		if key == "esc" || key == "q" {
			return m.navigate(RouteHome)
		}
		return nil
	}
	switch key {
	case "left", "h":
		m.cards.Move(-1)
	case "right", "l":
		m.cards.Move(1)
	case "up", "k":
		m.cards.MoveRow(-1)
	case "down", "j":
		m.cards.MoveRow(1)
	case "enter", " ":
		m.cards.Activate()
	case "r":
		m.cards = nil
		return m.reloadRegions()
	case "esc", "q":
		return m.navigate(RouteHome)
	}
	return nil
}

func (m *Model) handleRegionFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.predefined.BackToRegions()
		return nil
	case "tab", "shift+tab", "up", "down", "k", "j":
		m.regionFocus = 1 - m.regionFocus
		m.regionBefore.Focused = m.regionFocus == 0
		m.regionAfter.Focused = m.regionFocus == 1
		return nil
	case "enter":
		return m.submitRegion()
	}
	if m.regionFocus == 0 {
		m.regionBefore.HandleKey(msg)
	} else {
		m.regionAfter.HandleKey(msg)
	}
	return nil
}

// submitRegion starts a predefined analysis. Validation failures stay on
// the page and no request is made.
func (m *Model) submitRegion() tea.Cmd {
	m.predefined.SetBeforeYear(m.regionBefore.Value())
	m.predefined.SetAfterYear(m.regionAfter.Value())

	userID, req, err := m.predefined.Prepare()
	if err != nil {
		return nil
	}
	m.spinner.SetLabel("Analyzing " + m.predefined.Selected().Name)
	return analyzeRegionCmd(m.backend, userID, req)
}

func (m *Model) regionReport() *formatter.Report {
	before, after := m.predefined.Years()
	name := ""
	if r := m.predefined.Selected(); r != nil {
		name = r.Name
	}
	return &formatter.Report{
		Title:       fmt.Sprintf("%s %d-%d", name, before, after),
		RegionName:  name,
		InputType:   common.InputPredefinedRegion,
		BeforeYear:  before,
		AfterYear:   after,
		Result:      m.predefined.Result(),
		GeneratedAt: time.Now(),
	}
}

func (m *Model) focusUpload(field uploadField) {
	m.uploadFocus = field
	m.beforePath.Focused = field == fieldBeforePath
	m.afterPath.Focused = field == fieldAfterPath
	m.uploadBefore.Focused = field == fieldBeforeYear
	m.uploadAfter.Focused = field == fieldAfterYear
	m.regionName.Focused = field == fieldRegionName
	m.notes.Focused = field == fieldNotes
}

func (m *Model) focusedInput() *components.TextInput {
	switch m.uploadFocus {
	case fieldBeforePath:
		return m.beforePath
	case fieldAfterPath:
		return m.afterPath
	case fieldRegionName:
		return m.regionName
	case fieldNotes:
		return m.notes
	}
	return nil
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) tea.Cmd {
	switch m.uploads.Screen() {
	case pages.ScreenUploadSubmitting:
		if msg.Type == tea.KeyEsc {
			return m.navigate(RouteHome)
		}
		return nil
	case pages.ScreenUploadResult:
		switch msg.String() {
		case "n":
			m.uploads.Reset()
			m.resetUploadForm()
		case "d":
			return saveReportCmd(m.opts.ReportDir, m.uploadReport())
		case "esc", "q":
			return m.navigate(RouteHome)
		}
		return nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m.navigate(RouteHome)
	case tea.KeyTab, tea.KeyDown:
		m.focusUpload((m.uploadFocus + 1) % uploadFieldCount)
		return nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.focusUpload((m.uploadFocus + uploadFieldCount - 1) % uploadFieldCount)
		return nil
	case tea.KeyCtrlS:
		return m.submitUpload()
	case tea.KeyEnter:
		if m.uploadFocus == fieldBeforePath || m.uploadFocus == fieldAfterPath {
			if err := m.syncImages(); err != nil {
				m.banner = err.Error()
				return nil
			}
			m.banner = ""
			m.focusUpload(m.uploadFocus + 1)
			return nil
		}
		return m.submitUpload()
	}

	if in := m.focusedInput(); in != nil {
		in.HandleKey(msg)
		return nil
	}
	if m.uploadFocus == fieldBeforeYear {
		m.uploadBefore.HandleKey(msg)
	} else {
		m.uploadAfter.HandleKey(msg)
	}
	return nil
}

// syncImages selects or clears the images named by the path fields
func (m *Model) syncImages() error {
	slots := []struct {
		input   *components.TextInput
		current *upload.Image
		choose  func(string) (*upload.Image, error)
		clear   func()
	}{
		{m.beforePath, m.uploads.Before(), m.uploads.SelectBefore, m.uploads.ClearBefore},
		{m.afterPath, m.uploads.After(), m.uploads.SelectAfter, m.uploads.ClearAfter},
	}

	for _, s := range slots {
		path := s.input.Trimmed()
		if path == "" {
			s.clear()
			continue
		}
		if s.current != nil {
			if abs, err := filepath.Abs(path); err == nil && abs == s.current.Path {
				continue
			}
		}
		if _, err := s.choose(path); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) submitUpload() tea.Cmd {
	if err := m.syncImages(); err != nil {
		m.banner = err.Error()
		return nil
	}
	m.banner = ""

	m.uploads.SetBeforeYear(m.uploadBefore.Value())
	m.uploads.SetAfterYear(m.uploadAfter.Value())
	m.uploads.RegionName = m.regionName.Trimmed()
	m.uploads.Notes = m.notes.Trimmed()

	userID, req, closer, err := m.uploads.Prepare()
	if err != nil {
		return nil
	}
	m.spinner.SetLabel("Uploading and analyzing images")
	return analyzeUploadCmd(m.backend, userID, req, closer)
}

func (m *Model) uploadReport() *formatter.Report {
	before, after := m.uploads.Years()
	name := m.uploads.RegionName
	if name == "" {
		name = "Uploaded images"
	}
	return &formatter.Report{
		Title:       fmt.Sprintf("%s %d-%d", name, before, after),
		RegionName:  name,
		InputType:   common.InputUserUploaded,
		BeforeYear:  before,
		AfterYear:   after,
		Result:      m.uploads.Result(),
		GeneratedAt: time.Now(),
	}
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch m.history.Screen() {
	case pages.ScreenHistoryList:
		switch key {
		case "up", "k":
			m.historyTable.Move(-1)
		case "down", "j":
			m.historyTable.Move(1)
		case "enter", " ":
			m.history.Select(m.historyTable.Cursor)
		case "r":
			return m.reloadHistory()
		case "esc", "q":
			return m.navigate(RouteHome)
		}
	case pages.ScreenHistoryDetail:
		switch key {
		case "esc", "backspace":
			m.history.Back()
		case "d":
			return saveReportCmd(m.opts.ReportDir, formatter.ReportFromRecord(m.history.Selected()))
		}
	default:
		switch key {
		case "r":
			return m.reloadHistory()
		case "esc", "q":
			return m.navigate(RouteHome)
		}
	}
	return nil
}

// Run starts the interactive app and blocks until the user quits
func Run(opts Options) error {
	model, err := NewModel(opts)
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
