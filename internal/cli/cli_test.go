package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/formatter"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/mockserver"
	"github.com/terrawatch/terrawatch/internal/pages"
	"github.com/terrawatch/terrawatch/internal/upload"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupBackend starts a seeded mock backend and points the CLI at it
func setupBackend(t *testing.T, userID string) {
	t.Helper()
	srv := mockserver.New(mockserver.NewSeededStore("u1"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Setenv("TERRAWATCH_API_BASE_URL", ts.URL)
	t.Setenv("TERRAWATCH_API_TIMEOUT", "10s")
	t.Setenv("TERRAWATCH_AUTH_TOKEN", "")
	t.Setenv("TERRAWATCH_AUTH_USER_ID", userID)
	t.Setenv("TERRAWATCH_OUTPUT_COLOR_MODE", "never")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test", "abc123", "today")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-emoji"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeHistory(t *testing.T, out string) formatter.HistoryOutput {
	t.Helper()
	var history formatter.HistoryOutput
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return history
}

func TestRegionsCommands(t *testing.T) {
	setupBackend(t, "u1")

	out, err := runCLI(t, "regions", "list", "--output", "json")
	if err != nil {
		t.Fatalf("regions list error = %v", err)
	}
	var listed formatter.RegionsOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if listed.Count != len(mockserver.SampleRegions) {
		t.Errorf("count = %d", listed.Count)
	}

	out, err = runCLI(t, "regions", "add", "--name", "Lake Urmia", "--folder", "urmia")
	if err != nil {
		t.Fatalf("regions add error = %v", err)
	}
	if !strings.Contains(out, "Region added successfully") {
		t.Errorf("output = %q", out)
	}

	_, err = runCLI(t, "regions", "add", "--name", "lake urmia", "--folder", "urmia2")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate add error = %v", err)
	}

	if _, err := runCLI(t, "regions", "add", "--name", "Nowhere"); err == nil {
		t.Error("missing folder should fail before any request")
	}
}

func TestAnalyzeRegionRecordsHistory(t *testing.T) {
	setupBackend(t, "u1")

	out, err := runCLI(t, "analyze", "region", "aral sea", "--before-year", "2011", "--after-year", "2025", "--output", "json")
	if err != nil {
		t.Fatalf("analyze region error = %v", err)
	}
	var result formatter.ResultOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if result.RegionName != "Aral Sea" || result.BeforeYear != 2011 || result.AfterYear != 2025 {
		t.Errorf("result = %+v", result)
	}
	if result.InputType != common.InputPredefinedRegion {
		t.Errorf("input type = %s", result.InputType)
	}

	out, err = runCLI(t, "history", "--output", "json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	history := decodeHistory(t, out)
	if history.Count != 3 {
		t.Fatalf("count = %d, want 3", history.Count)
	}
	if newest := history.Records[0]; newest.BeforeYear != 2011 || newest.AfterYear != 2025 {
		t.Errorf("newest record = %+v", newest)
	}
}

func TestAnalyzeRegionValidation(t *testing.T) {
	setupBackend(t, "u1")

	_, err := runCLI(t, "analyze", "region", "atlantis", "--before-year", "2011", "--after-year", "2025")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown region error = %v", err)
	}

	_, err = runCLI(t, "analyze", "region", "mumbai", "--before-year", "2020", "--after-year", "2015")
	if err == nil || err.Error() != pages.MsgYearOrder {
		t.Errorf("year order error = %v", err)
	}

	out, err := runCLI(t, "history", "--output", "json")
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeHistory(t, out).Count; got != 2 {
		t.Errorf("rejected analyses must not be recorded, count = %d", got)
	}
}

func TestAnalyzeUploadInfersYears(t *testing.T) {
	setupBackend(t, "u1")
	dir := t.TempDir()
	before := writePNG(t, dir, "2015.png")
	after := writePNG(t, dir, "capture-2024.png")

	out, err := runCLI(t, "analyze", "upload", before, after, "--region-name", "Backyard", "--output", "json")
	if err != nil {
		t.Fatalf("analyze upload error = %v", err)
	}
	var result formatter.ResultOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.BeforeYear != 2015 || result.AfterYear != 2024 || result.InputType != common.InputUserUploaded {
		t.Errorf("result = %+v", result)
	}
	if result.Analysis == nil || result.Analysis.VisualizationURL == "" {
		t.Error("expected result image URLs")
	}

	notImage := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notImage, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "analyze", "upload", notImage, after); err == nil {
		t.Error("non-image input should fail")
	}
}

func TestHistoryRecordAndOutputFile(t *testing.T) {
	setupBackend(t, "u1")
	path := filepath.Join(t.TempDir(), "record.md")

	if _, err := runCLI(t, "history", "2", "--output", "markdown", "--output-file", path); err != nil {
		t.Fatalf("history error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	report := string(data)
	for _, want := range []string{"# Analysis 2", "2018", "2023", "10.50%"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}

	if _, err := runCLI(t, "history", "missing"); err == nil {
		t.Error("unknown record should fail")
	}
}

func TestSignedOutCommandsFail(t *testing.T) {
	setupBackend(t, "")

	for _, args := range [][]string{
		{"history"},
		{"analyze", "region", "mumbai", "--before-year", "2011", "--after-year", "2025"},
	} {
		_, err := runCLI(t, args...)
		if !errors.Is(err, auth.ErrSignedOut) {
			t.Errorf("%v: error = %v, want ErrSignedOut", args, err)
		}
	}

	out, err := runCLI(t, "whoami")
	if err != nil || !strings.Contains(out, "Signed out") {
		t.Errorf("whoami = %q, %v", out, err)
	}
}

func TestWhoamiWithToken(t *testing.T) {
	setupBackend(t, "")
	token, err := auth.GenerateToken("alice", "alice@example.com", "dev-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("TERRAWATCH_AUTH_TOKEN", token)
	t.Setenv("TERRAWATCH_AUTH_JWT_SECRET", "dev-secret")

	out, err := runCLI(t, "whoami")
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	for _, want := range []string{"alice", "alice@example.com", "session token"} {
		if !strings.Contains(out, want) {
			t.Errorf("whoami missing %q\n%s", want, out)
		}
	}
}

func TestStatusAndVersion(t *testing.T) {
	setupBackend(t, "u1")

	out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, mockserver.WelcomeMessage) {
		t.Errorf("status = %q", out)
	}

	out, err = runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "TerraWatch test (abc123) built on today") {
		t.Errorf("version = %q", out)
	}
}

func TestStatusUnreachable(t *testing.T) {
	setupBackend(t, "u1")
	t.Setenv("TERRAWATCH_API_BASE_URL", "http://127.0.0.1:1")

	if _, err := runCLI(t, "status"); err == nil || !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	setupBackend(t, "u1")
	path := filepath.Join(t.TempDir(), "terrawatch.yaml")

	if _, err := runCLI(t, "config", "init", "--output", path); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := runCLI(t, "config", "init", "--output", path); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}

	out, err := runCLI(t, "config", "validate", "--config", path)
	if err != nil {
		t.Fatalf("config validate error = %v", err)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("validate = %q", out)
	}

	t.Setenv("TERRAWATCH_AUTH_JWT_SECRET", "top-secret")
	out, err = runCLI(t, "config", "show", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "top-secret") {
		t.Error("config show must redact secrets")
	}
}

func TestYearFromName(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"2015.jpg", 2015},
		{"/data/aral_sea/2025.png", 2025},
		{"capture-2019-03.jpeg", 2019},
		{"img_12345.png", 0},
		{"before.png", 0},
		{"1850.jpg", 0},
	}
	for _, tt := range tests {
		if got := yearFromName(tt.path); got != tt.want {
			t.Errorf("yearFromName(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestFindRegion(t *testing.T) {
	regions := []common.Region{
		{ID: "a1", Name: "Aral Sea", Folder: "aral_sea"},
		{ID: "Dubai", Name: "Mumbai", Folder: "mumbai"},
		{ID: "d1", Name: "Dubai Coastline", Folder: "dubai"},
	}

	tests := []struct {
		ref    string
		wantID string
	}{
		{"a1", "a1"},
		{"aral sea", "a1"},
		{"MUMBAI", "Dubai"},
		{"dubai", "d1"},
		{"Dubai", "Dubai"},
	}
	for _, tt := range tests {
		got, ok := findRegion(regions, tt.ref)
		if !ok || got.ID != tt.wantID {
			t.Errorf("findRegion(%q) = %+v, %v; want %s", tt.ref, got, ok, tt.wantID)
		}
	}
	if _, ok := findRegion(regions, "atlantis"); ok {
		t.Error("unknown region matched")
	}
}

func TestImageYear(t *testing.T) {
	if y, ok := imageYear("/x/2015.JPG"); !ok || y != 2015 {
		t.Errorf("imageYear = %d, %v", y, ok)
	}
	for _, name := range []string{"2015.txt", "old.jpg", "2015-a.png"} {
		if _, ok := imageYear(name); ok {
			t.Errorf("%s should not match", name)
		}
	}
}

func TestPairWatcherTriggersOnceBothYearsExist(t *testing.T) {
	dir := t.TempDir()
	pairs := make(chan [2]string, 4)
	w := &pairWatcher{
		dir:        dir,
		beforeYear: 2015,
		afterYear:  2024,
		debounce:   50 * time.Millisecond,
		log:        logger.Nop(),
		onPair: func(_ context.Context, before, after string) error {
			pairs <- [2]string{before, after}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	// Let the watcher register before creating files
	time.Sleep(100 * time.Millisecond)

	writePNG(t, dir, "2015.png")
	writePNG(t, dir, "2020.png")
	select {
	case p := <-pairs:
		t.Fatalf("triggered with a single year: %v", p)
	case <-time.After(300 * time.Millisecond):
	}

	after := writePNG(t, dir, "2024.png")
	select {
	case p := <-pairs:
		if p[0] != filepath.Join(dir, "2015.png") || p[1] != after {
			t.Errorf("pair = %v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not trigger")
	}
}

func TestConfigPathListsOverrideNames(t *testing.T) {
	setupBackend(t, "u1")
	t.Setenv("TERRAWATCH_AUTH_TOKEN", "hidden-value")

	out, err := runCLI(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "TERRAWATCH_AUTH_TOKEN") || !strings.Contains(out, "TERRAWATCH_API_BASE_URL") {
		t.Errorf("overrides missing from %q", out)
	}
	if strings.Contains(out, "hidden-value") {
		t.Error("config path must not print values")
	}
}

type ctxUploadBackend struct {
	got context.Context
}

func (b *ctxUploadBackend) AnalyzeUploadedRegion(ctx context.Context, _ string, _ api.UploadRequest) (*common.AnalysisResult, error) {
	b.got = ctx
	return nil, ctx.Err()
}

func TestSubmitUploadUsesCallerContext(t *testing.T) {
	dir := t.TempDir()
	before := writePNG(t, dir, "2015.png")
	after := writePNG(t, dir, "2020.png")

	backend := &ctxUploadBackend{}
	page := pages.NewUploadPage(backend, &auth.Session{UserID: "u1"}, upload.NewRegistry(), logger.Nop())
	defer page.Close()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := submitUpload(ctx, cmd, page, uploadInput{
		beforePath: before,
		afterPath:  after,
		beforeYear: 2015,
		afterYear:  2020,
	})
	if backend.got != ctx {
		t.Fatal("upload did not run under the caller's context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
