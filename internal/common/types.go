package common

import (
	"strings"
	"time"
)

// InputType identifies how the images of an analysis were supplied
type InputType string

const (
	InputPredefinedRegion InputType = "predefined_region"
	InputUserUploaded     InputType = "user_uploaded"
)

// Label returns the human readable name used in tables
func (t InputType) Label() string {
	switch t {
	case InputPredefinedRegion:
		return "Sample Region"
	case InputUserUploaded:
		return "Uploaded"
	default:
		return "Unknown"
	}
}

// Region is a predefined geographic sample the backend can analyze without an upload
type Region struct {
	ID        string `json:"_id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Folder    string `json:"folder" yaml:"folder"`
	SampleURL string `json:"sample_url" yaml:"sample_url"`
}

// NewRegion is the payload used to register a region
type NewRegion struct {
	Name      string `json:"name"`
	Folder    string `json:"folder"`
	SampleURL string `json:"sample_url"`
}

// Message is the generic {"message": ...} body returned by the backend
type Message struct {
	Message string `json:"message"`
}

// PredefinedAnalysisRequest asks the backend to compare two years of a predefined region
type PredefinedAnalysisRequest struct {
	RegionID   string `json:"_id"`
	Folder     string `json:"folder"`
	BeforeYear int    `json:"before_image_year"`
	AfterYear  int    `json:"after_image_year"`
}

// HistoryRecord is a persisted past analysis of a user
type HistoryRecord struct {
	ID               string          `json:"_id"`
	UserID           string          `json:"user_id"`
	InputType        InputType       `json:"input_type"`
	RegionName       string          `json:"region_name,omitempty"`
	BeforeYear       int             `json:"before_image_year"`
	AfterYear        int             `json:"after_image_year"`
	VisualizationURL string          `json:"cloud_vis_url"`
	ChangeMapURL     string          `json:"cloud_change_map_url"`
	Analysis         *AnalysisResult `json:"analysis"`
	CreatedAt        Timestamp       `json:"created_at"`
}

// Duration returns the number of years between the two compared images
func (r *HistoryRecord) Duration() int {
	return r.AfterYear - r.BeforeYear
}

// Result returns the nested analysis, never nil
func (r *HistoryRecord) Result() *AnalysisResult {
	if r.Analysis == nil {
		return &AnalysisResult{}
	}
	return r.Analysis
}

// timestampLayouts lists the layouts the backend has been seen to emit
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp decodes both zoned and naive ISO-8601 strings
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts a quoted ISO-8601 string or null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON writes RFC 3339 or null for the zero time
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}
