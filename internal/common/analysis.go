package common

import "sort"

// Well-known change classes reported by the backend
const (
	ClassUrbanization    = "urbanization"
	ClassDeforestation   = "deforestation"
	ClassWaterBodyChange = "water_body_change"
)

// KnownClasses is the display order of the well-known change classes
var KnownClasses = []string{ClassUrbanization, ClassDeforestation, ClassWaterBodyChange}

// ClassLabel returns the display label of a change class
func ClassLabel(class string) string {
	switch class {
	case ClassUrbanization:
		return "Urbanization"
	case ClassDeforestation:
		return "Deforestation"
	case ClassWaterBodyChange:
		return "Water Body Change"
	default:
		return class
	}
}

// ChangePercentages maps a land-cover change class to the share of changed area
type ChangePercentages map[string]float64

// Get returns the percentage of a class, zero when absent
func (c ChangePercentages) Get(class string) float64 {
	if c == nil {
		return 0
	}
	return c[class]
}

// Classes returns the known classes first, then any extra classes sorted by name
func (c ChangePercentages) Classes() []string {
	classes := make([]string, 0, len(KnownClasses)+len(c))
	classes = append(classes, KnownClasses...)

	var extra []string
	for class := range c {
		known := false
		for _, k := range KnownClasses {
			if class == k {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, class)
		}
	}
	sort.Strings(extra)
	return append(classes, extra...)
}

// ClassTransition is one land-cover class turning into another
type ClassTransition struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Percentage float64 `json:"percentage"`
}

// CriticalChanges summarizes the changes the backend flags as significant
type CriticalChanges struct {
	TotalPercentage   float64           `json:"total_percentage"`
	MostAffectedClass string            `json:"most_affected_class,omitempty"`
	Transitions       []ClassTransition `json:"transitions,omitempty"`
}

// AnalysisResult is the backend's computed statistics for one image pair
type AnalysisResult struct {
	ChangePercentages ChangePercentages `json:"change_percentages"`
	CriticalChanges   *CriticalChanges  `json:"critical_changes,omitempty"`
	VisualizationURL  string            `json:"visualization_url,omitempty"`
	ChangeMapURL      string            `json:"change_map_url,omitempty"`
}

// Critical returns the critical change summary, never nil
func (a *AnalysisResult) Critical() CriticalChanges {
	if a == nil || a.CriticalChanges == nil {
		return CriticalChanges{}
	}
	return *a.CriticalChanges
}

// Percent returns a class percentage tolerating a nil result
func (a *AnalysisResult) Percent(class string) float64 {
	if a == nil {
		return 0
	}
	return a.ChangePercentages.Get(class)
}

// AnalysisEnvelope is the response body of both analysis endpoints
type AnalysisEnvelope struct {
	Message  string          `json:"message,omitempty"`
	Analysis *AnalysisResult `json:"analysis"`
}
