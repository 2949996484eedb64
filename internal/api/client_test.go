package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terrawatch/terrawatch/internal/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, WithToken("session-token"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	tests := []string{"", "   ", "ftp://example.com", "://missing"}
	for _, raw := range tests {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) expected error", raw)
		}
	}
}

func TestClient_ListRegions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/available-regions" {
			t.Errorf("expected /available-regions, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"_id":"r1","name":"Mumbai","folder":"mumbai","sample_url":"http://img/1.jpg"},
			{"_id":"r2","name":"Amazon","folder":"amazon","sample_url":""}]`)
	})

	regions, err := client.ListRegions(context.Background())
	if err != nil {
		t.Fatalf("ListRegions() error = %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}
	want := common.Region{ID: "r1", Name: "Mumbai", Folder: "mumbai", SampleURL: "http://img/1.jpg"}
	if regions[0] != want {
		t.Errorf("regions[0] = %+v, want %+v", regions[0], want)
	}
}

func TestClient_AddRegion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/available-regions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body common.NewRegion
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Name != "Delta" || body.Folder != "delta" {
			t.Errorf("unexpected body %+v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Region added successfully"}`)
	})

	msg, err := client.AddRegion(context.Background(), common.NewRegion{Name: "Delta", Folder: "delta"})
	if err != nil {
		t.Fatalf("AddRegion() error = %v", err)
	}
	if msg.Message != "Region added successfully" {
		t.Errorf("unexpected message %q", msg.Message)
	}
}

func TestClient_AnalyzePredefinedRegion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analysis/predefined_region/user_42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}

		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		for _, key := range []string{"_id", "folder", "before_image_year", "after_image_year"} {
			if _, ok := raw[key]; !ok {
				t.Errorf("body missing %s: %v", key, raw)
			}
		}
		if raw["before_image_year"].(float64) != 2015 {
			t.Errorf("before year should be an integer 2015, got %v", raw["before_image_year"])
		}

		_, _ = io.WriteString(w, `{"analysis":{"change_percentages":{"urbanization":12.5,"deforestation":3},
			"critical_changes":{"total_percentage":4.2,"most_affected_class":"urbanization"},
			"visualization_url":"http://img/vis.jpg","change_map_url":"http://img/map.jpg"}}`)
	})

	result, err := client.AnalyzePredefinedRegion(context.Background(), "user_42", common.PredefinedAnalysisRequest{
		RegionID: "r1", Folder: "mumbai", BeforeYear: 2015, AfterYear: 2024,
	})
	if err != nil {
		t.Fatalf("AnalyzePredefinedRegion() error = %v", err)
	}
	if result.Percent(common.ClassUrbanization) != 12.5 {
		t.Errorf("unexpected urbanization %v", result.Percent(common.ClassUrbanization))
	}
	if result.Critical().MostAffectedClass != "urbanization" {
		t.Errorf("unexpected critical changes %+v", result.Critical())
	}
	if result.ChangeMapURL != "http://img/map.jpg" {
		t.Errorf("unexpected change map url %q", result.ChangeMapURL)
	}
}

func TestClient_AnalyzeUploadedRegion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analysis/user_uploaded_region/user_42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue(FieldBeforeYear); got != "2010" {
			t.Errorf("before year = %q", got)
		}
		if got := r.FormValue(FieldAfterYear); got != "2020" {
			t.Errorf("after year = %q", got)
		}
		for field, want := range map[string]string{FieldBeforeImage: "old-bytes", FieldAfterImage: "new-bytes"} {
			f, header, err := r.FormFile(field)
			if err != nil {
				t.Fatalf("FormFile(%s): %v", field, err)
			}
			data, _ := io.ReadAll(f)
			_ = f.Close()
			if string(data) != want {
				t.Errorf("%s content = %q, want %q", field, data, want)
			}
			if header.Header.Get("Content-Type") != "image/png" {
				t.Errorf("%s content type = %q", field, header.Header.Get("Content-Type"))
			}
		}
		_, _ = io.WriteString(w, `{"analysis":{"change_percentages":{"water_body_change":1.8}}}`)
	})

	result, err := client.AnalyzeUploadedRegion(context.Background(), "user_42", UploadRequest{
		Before:     ImageFile{Name: "old.png", ContentType: "image/png", Content: strings.NewReader("old-bytes")},
		After:      ImageFile{Name: "new.png", ContentType: "image/png", Content: strings.NewReader("new-bytes")},
		BeforeYear: 2010,
		AfterYear:  2020,
	})
	if err != nil {
		t.Fatalf("AnalyzeUploadedRegion() error = %v", err)
	}
	if result.Percent(common.ClassWaterBodyChange) != 1.8 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.CriticalChanges != nil {
		t.Errorf("expected no critical changes, got %+v", result.CriticalChanges)
	}
}

func TestClient_HistoryEscapesUserID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/history/user%2F1" {
			t.Errorf("unexpected escaped path %s", r.URL.EscapedPath())
		}
		_, _ = io.WriteString(w, `[{"_id":"h1","user_id":"user/1","input_type":"predefined_region",
			"before_image_year":2013,"after_image_year":2025,"cloud_vis_url":"v","cloud_change_map_url":"m",
			"analysis":{"change_percentages":{"urbanization":15.2}},"created_at":"2025-04-01T10:30:00.000Z"}]`)
	})

	records, err := client.History(context.Background(), "user/1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.InputType != common.InputPredefinedRegion || rec.Duration() != 12 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.CreatedAt.Year() != 2025 {
		t.Errorf("created_at not parsed: %v", rec.CreatedAt)
	}
}

func TestClient_StatusErrorsPropagate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Region not found"}`)
	})

	_, err := client.AnalyzePredefinedRegion(context.Background(), "u1", common.PredefinedAnalysisRequest{RegionID: "x"})
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Type != ErrTypeStatus || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if apiErr.Message != "Region not found" {
		t.Errorf("detail not surfaced: %q", apiErr.Message)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should be true")
	}
	if !errors.Is(err, &Error{Type: ErrTypeStatus}) {
		t.Error("errors.Is should match by type")
	}
}

func TestClient_ValidationDetailList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","folder"],"msg":"field required"}]}`)
	})

	_, err := client.AddRegion(context.Background(), common.NewRegion{})
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "field required" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClient_NoRetryOnFailure(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.ListRegions(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := New(url)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = client.ListRegions(context.Background())
	if !errors.Is(err, &Error{Type: ErrTypeNetwork}) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestClient_DecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	_, err := client.ListRegions(context.Background())
	if !errors.Is(err, &Error{Type: ErrTypeDecode}) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestClient_RequiresUserID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent without a user id")
	})
	if _, err := client.History(context.Background(), ""); err == nil {
		t.Error("expected error for empty user id")
	}
}
