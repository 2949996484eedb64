package ui

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/emoji"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/pages"
)

type fakeBackend struct {
	regions    []common.Region
	records    []common.HistoryRecord
	result     *common.AnalysisResult
	err        error
	predefined []common.PredefinedAnalysisRequest
	uploads    int
	history    []string
}

func (f *fakeBackend) ListRegions(context.Context) ([]common.Region, error) {
	return f.regions, nil
}

func (f *fakeBackend) AnalyzePredefinedRegion(_ context.Context, _ string, req common.PredefinedAnalysisRequest) (*common.AnalysisResult, error) {
	f.predefined = append(f.predefined, req)
	return f.result, f.err
}

func (f *fakeBackend) AnalyzeUploadedRegion(context.Context, string, api.UploadRequest) (*common.AnalysisResult, error) {
	f.uploads++
	return f.result, f.err
}

func (f *fakeBackend) History(_ context.Context, userID string) ([]common.HistoryRecord, error) {
	f.history = append(f.history, userID)
	return f.records, f.err
}

func newTestModel(t *testing.T, backend *fakeBackend, session *auth.Session) *Model {
	t.Helper()
	SetColorDisabled(true)
	emoji.SetEmojiDisabled(true)
	t.Cleanup(func() {
		SetColorDisabled(false)
		emoji.SetEmojiDisabled(false)
	})

	m, err := NewModel(Options{
		Session:   session,
		Connect:   func(*auth.Session) (Backend, error) { return backend, nil },
		FromYear:  2011,
		ToYear:    2025,
		ReportDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	return m
}

func signedIn() *auth.Session {
	return &auth.Session{UserID: "u1"}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func press(m *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func deliver(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

var sampleRegions = []common.Region{
	{ID: "r1", Name: "Mumbai", Folder: "mumbai"},
	{ID: "r2", Name: "Amazon", Folder: "amazon"},
}

func sampleResult() *common.AnalysisResult {
	return &common.AnalysisResult{ChangePercentages: common.ChangePercentages{
		common.ClassUrbanization: 12.5,
	}}
}

func TestProtectedRoutesShowSignIn(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend, nil)

	for _, k := range []string{"1", "2", "3"} {
		m.route = RouteHome
		if cmd := press(m, runes(k)); cmd != nil {
			t.Errorf("key %s: signed-out navigation must not fetch", k)
		}
		if !m.showSignIn() {
			t.Errorf("key %s: route %s should be gated", k, m.route)
		}
		if !strings.Contains(m.View(), pages.MsgSignedOut) {
			t.Errorf("key %s: sign-in screen not shown", k)
		}
	}
	if len(backend.history) != 0 {
		t.Error("no backend call expected while signed out")
	}

	m.route = RouteHome
	press(m, runes("4"))
	if m.showSignIn() {
		t.Error("about should be public")
	}
}

func TestSignInWithUserIDLoadsHistory(t *testing.T) {
	backend := &fakeBackend{records: []common.HistoryRecord{{ID: "1"}}}
	var connected []string
	m := newTestModel(t, backend, nil)
	m.opts.Connect = func(s *auth.Session) (Backend, error) {
		connected = append(connected, s.UserID)
		return backend, nil
	}

	press(m, runes("3"))
	press(m, runes("u1"))
	deliver(t, m, press(m, key(tea.KeyEnter)))

	if !m.session.SignedIn() || m.session.UserID != "u1" {
		t.Fatalf("session = %+v", m.session)
	}
	if len(connected) != 1 || connected[0] != "u1" {
		t.Errorf("connector calls = %v", connected)
	}
	if len(backend.history) != 1 || backend.history[0] != "u1" {
		t.Errorf("history calls = %v", backend.history)
	}
	if m.history.Screen() != pages.ScreenHistoryList {
		t.Errorf("screen = %v", m.history.Screen())
	}
}

func TestHistoryOfPreviousSessionIsDropped(t *testing.T) {
	backend := &fakeBackend{records: []common.HistoryRecord{{ID: "1", UserID: "alice"}}}
	m := newTestModel(t, backend, &auth.Session{UserID: "alice"})

	aliceLoad := press(m, runes("3"))
	if aliceLoad == nil {
		t.Fatal("expected a history request")
	}

	if err := m.setSession(&auth.Session{UserID: "bob"}); err != nil {
		t.Fatal(err)
	}
	bobLoad := m.navigate(RouteHistory)
	if bobLoad == nil {
		t.Fatal("expected a history request for bob")
	}

	m.Update(aliceLoad())
	if m.history.Screen() != pages.ScreenHistoryLoading || len(m.history.Records()) != 0 {
		t.Fatalf("stale history applied: screen = %v, records = %v", m.history.Screen(), m.history.Records())
	}
	if m.historyTable != nil {
		t.Error("stale history rendered a table")
	}

	backend.records = []common.HistoryRecord{{ID: "2", UserID: "bob"}}
	m.Update(bobLoad())
	if m.history.Screen() != pages.ScreenHistoryList {
		t.Fatalf("screen = %v", m.history.Screen())
	}
	if recs := m.history.Records(); len(recs) != 1 || recs[0].UserID != "bob" {
		t.Errorf("records = %+v", recs)
	}
}

func TestSignInWithToken(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, nil)
	m.opts.JWTSecret = "secret"

	forged, err := auth.GenerateToken("u1", "", "other", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.signInWith(forged); err == nil {
		t.Error("token signed with another key should be rejected")
	}

	noExpiry, err := auth.GenerateToken("u1", "", "secret", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.signInWith(noExpiry); err != nil {
		t.Fatalf("token without expiry should be accepted: %v", err)
	}
	if m.session.UserID != "u1" || m.session.Token == "" {
		t.Errorf("session = %+v", m.session)
	}

	if err := m.setSession(&auth.Session{}); err != nil {
		t.Fatal(err)
	}
	if err := m.signInWith(""); err == nil {
		t.Error("empty input should be rejected")
	}
	if m.session.SignedIn() {
		t.Error("failed sign in must leave the user signed out")
	}
}

func TestRegionFlow(t *testing.T) {
	backend := &fakeBackend{regions: sampleRegions, result: sampleResult()}
	m := newTestModel(t, backend, signedIn())

	deliver(t, m, press(m, runes("1")))
	if m.predefined.Screen() != pages.ScreenRegionList || m.cards == nil {
		t.Fatalf("screen = %v", m.predefined.Screen())
	}

	press(m, key(tea.KeyRight))
	press(m, key(tea.KeyEnter))
	if got := m.predefined.Selected(); got == nil || got.ID != "r2" {
		t.Fatalf("selected = %+v, want r2", got)
	}

	press(m, key(tea.KeyRight)) // before: 2011
	press(m, key(tea.KeyTab))
	press(m, key(tea.KeyLeft)) // after: 2025
	deliver(t, m, press(m, key(tea.KeyEnter)))

	if len(backend.predefined) != 1 {
		t.Fatalf("expected one request, got %d", len(backend.predefined))
	}
	req := backend.predefined[0]
	if req.RegionID != "r2" || req.Folder != "amazon" || req.BeforeYear != 2011 || req.AfterYear != 2025 {
		t.Errorf("request = %+v", req)
	}
	if m.predefined.Screen() != pages.ScreenRegionResult {
		t.Fatalf("screen = %v", m.predefined.Screen())
	}
	if view := m.View(); !strings.Contains(view, "12.50%") || !strings.Contains(view, "Amazon") {
		t.Errorf("result view missing data\n%s", view)
	}

	press(m, runes("n"))
	if m.predefined.Screen() != pages.ScreenRegionForm || m.regionBefore.Value() != 0 {
		t.Error("analyze new should clear the form and keep the region")
	}
}

func TestRegionYearOrderBlocksRequest(t *testing.T) {
	backend := &fakeBackend{regions: sampleRegions}
	m := newTestModel(t, backend, signedIn())
	deliver(t, m, press(m, runes("1")))
	press(m, key(tea.KeyEnter))

	m.regionBefore.Set(2020)
	m.regionAfter.Set(2015)
	if cmd := press(m, key(tea.KeyEnter)); cmd != nil {
		t.Fatal("invalid years must not start a request")
	}
	if len(backend.predefined) != 0 {
		t.Error("backend was called")
	}
	if m.predefined.Error() != pages.MsgYearOrder || !m.predefined.CanSubmit() {
		t.Errorf("error = %q, can submit = %v", m.predefined.Error(), m.predefined.CanSubmit())
	}
	if !strings.Contains(m.View(), pages.MsgYearOrder) {
		t.Error("error banner not rendered")
	}
}

func TestFailedAnalysisReenablesForm(t *testing.T) {
	backend := &fakeBackend{regions: sampleRegions, err: errors.New("boom")}
	m := newTestModel(t, backend, signedIn())
	deliver(t, m, press(m, runes("1")))
	press(m, key(tea.KeyEnter))
	m.regionBefore.Set(2015)
	m.regionAfter.Set(2020)

	cmd := press(m, key(tea.KeyEnter))
	if m.predefined.CanSubmit() {
		t.Error("submit must be disabled while submitting")
	}
	deliver(t, m, cmd)

	if m.predefined.Status() != pages.Failed || !m.predefined.CanSubmit() {
		t.Errorf("status = %v, can submit = %v", m.predefined.Status(), m.predefined.CanSubmit())
	}
	if !strings.Contains(m.View(), pages.MsgAnalysisFailed) {
		t.Error("failure message not rendered")
	}
}

func TestHistoryDetailAndBack(t *testing.T) {
	backend := &fakeBackend{records: []common.HistoryRecord{
		{ID: "1", InputType: common.InputPredefinedRegion, BeforeYear: 2013, AfterYear: 2025, VisualizationURL: "vis-1", ChangeMapURL: "map-1"},
		{ID: "2", InputType: common.InputUserUploaded, BeforeYear: 2018, AfterYear: 2023, VisualizationURL: "vis-2", ChangeMapURL: "map-2"},
	}}
	m := newTestModel(t, backend, signedIn())
	deliver(t, m, press(m, runes("3")))

	press(m, key(tea.KeyDown))
	press(m, key(tea.KeyEnter))
	if m.history.Screen() != pages.ScreenHistoryDetail {
		t.Fatalf("screen = %v", m.history.Screen())
	}
	view := m.View()
	for _, want := range []string{"2018", "2023", "vis-2", "map-2"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail missing %q", want)
		}
	}
	if strings.Contains(view, "vis-1") {
		t.Error("detail shows the other record")
	}

	press(m, key(tea.KeyEsc))
	if m.history.Screen() != pages.ScreenHistoryList || len(m.history.Records()) != 2 {
		t.Error("back should return to the full list")
	}
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadFlowAndSignOutReleasesPreviews(t *testing.T) {
	dir := t.TempDir()
	before := writePNG(t, dir, "2015.png")
	after := writePNG(t, dir, "2024.png")

	backend := &fakeBackend{result: sampleResult()}
	m := newTestModel(t, backend, signedIn())
	press(m, runes("2"))

	press(m, runes(before))
	press(m, key(tea.KeyEnter))
	press(m, runes(after))
	press(m, key(tea.KeyEnter))
	if m.registry.Len() != 2 {
		t.Fatalf("expected two previews, got %d", m.registry.Len())
	}

	// Missing years: rejected locally
	if cmd := press(m, key(tea.KeyCtrlS)); cmd != nil {
		t.Fatal("missing years must not start a request")
	}
	if m.uploads.Error() != pages.MsgMissingYears {
		t.Errorf("error = %q", m.uploads.Error())
	}

	m.uploadBefore.Set(2015)
	m.uploadAfter.Set(2024)
	deliver(t, m, press(m, key(tea.KeyCtrlS)))
	if backend.uploads != 1 || m.uploads.Screen() != pages.ScreenUploadResult {
		t.Fatalf("uploads = %d, screen = %v", backend.uploads, m.uploads.Screen())
	}

	press(m, key(tea.KeyEsc))
	m.menu = len(menuRoutes)
	press(m, key(tea.KeyEnter))
	if m.session.SignedIn() {
		t.Fatal("expected to be signed out")
	}
	if m.registry.Len() != 0 {
		t.Errorf("sign out left %d previews", m.registry.Len())
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	m := newTestModel(t, &fakeBackend{}, signedIn())
	press(m, runes("2"))
	press(m, runes(path))
	press(m, key(tea.KeyEnter))

	if m.banner == "" || m.uploads.Before() != nil {
		t.Errorf("banner = %q, before = %+v", m.banner, m.uploads.Before())
	}
	if m.registry.Len() != 0 {
		t.Error("rejected file must not hold a preview")
	}
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveReport(dir, &formatter.Report{
		RegionName: "Aral Sea / East",
		BeforeYear: 2011,
		AfterYear:  2025,
		Result:     sampleResult(),
	})
	if err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if filepath.Base(path) != "terrawatch-aral-sea-east-2011-2025.md" {
		t.Errorf("file name = %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "12.50%") {
		t.Errorf("report content:\n%s", data)
	}
}

func TestTaskModel(t *testing.T) {
	want := errors.New("failed")
	m := NewTaskModel("working", func() error { return want })

	_, cmd := m.Update(taskDoneMsg{err: want})
	if cmd == nil || !m.done || !errors.Is(m.Err(), want) {
		t.Errorf("done = %v, err = %v", m.done, m.Err())
	}
	if m.View() != "" {
		t.Error("finished task should render nothing")
	}
}
