package mockserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terrawatch/terrawatch/internal/common"
)

var (
	// ErrDuplicateRegion is returned when a region name is already taken
	ErrDuplicateRegion = errors.New("Region with this name already exists")

	// ErrInvalidRegion is returned when a region lacks a name or folder
	ErrInvalidRegion = errors.New("name and folder are required")
)

// SampleRegions are the regions a seeded store starts with
var SampleRegions = []common.NewRegion{
	{Name: "Mumbai Metropolitan", Folder: "mumbai", SampleURL: "https://images.terrawatch.dev/samples/mumbai.jpg"},
	{Name: "Amazon Rainforest", Folder: "amazon", SampleURL: "https://images.terrawatch.dev/samples/amazon.jpg"},
	{Name: "Aral Sea", Folder: "aral_sea", SampleURL: "https://images.terrawatch.dev/samples/aral_sea.jpg"},
	{Name: "Dubai Coastline", Folder: "dubai", SampleURL: "https://images.terrawatch.dev/samples/dubai.jpg"},
}

// Store is the in-memory state of the development backend
type Store struct {
	mu      sync.RWMutex
	regions []common.Region
	history map[string][]common.HistoryRecord
	now     func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		history: make(map[string][]common.HistoryRecord),
		now:     time.Now,
	}
}

// NewSeededStore creates a store with the sample regions and, when userID is
// set, two past analyses for that user
func NewSeededStore(userID string) *Store {
	s := NewStore()
	for _, r := range SampleRegions {
		_, _ = s.AddRegion(r)
	}
	if userID != "" {
		s.seedHistory(userID)
	}
	return s
}

func (s *Store) seedHistory(userID string) {
	placeholder := "https://images.terrawatch.dev/placeholder.svg?height=400&width=600"
	s.history[userID] = []common.HistoryRecord{
		{
			ID:               "1",
			UserID:           userID,
			InputType:        common.InputPredefinedRegion,
			BeforeYear:       2013,
			AfterYear:        2025,
			VisualizationURL: placeholder,
			ChangeMapURL:     placeholder,
			Analysis: &common.AnalysisResult{ChangePercentages: common.ChangePercentages{
				common.ClassUrbanization:    15.2,
				common.ClassDeforestation:   8.7,
				common.ClassWaterBodyChange: 3.1,
			}},
			CreatedAt: common.Timestamp{Time: time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)},
		},
		{
			ID:               "2",
			UserID:           userID,
			InputType:        common.InputUserUploaded,
			BeforeYear:       2018,
			AfterYear:        2023,
			VisualizationURL: placeholder,
			ChangeMapURL:     placeholder,
			Analysis: &common.AnalysisResult{ChangePercentages: common.ChangePercentages{
				common.ClassUrbanization:    10.5,
				common.ClassDeforestation:   5.2,
				common.ClassWaterBodyChange: 1.8,
			}},
			CreatedAt: common.Timestamp{Time: time.Date(2025, 3, 28, 14, 15, 0, 0, time.UTC)},
		},
	}
}

// Regions returns a copy of all regions
func (s *Store) Regions() []common.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Region looks a region up by id
func (s *Store) Region(id string) (common.Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.regions {
		if r.ID == id {
			return r, true
		}
	}
	return common.Region{}, false
}

// AddRegion registers a region under a fresh id. Names are unique, ignoring case.
func (s *Store) AddRegion(in common.NewRegion) (common.Region, error) {
	name := strings.TrimSpace(in.Name)
	folder := strings.TrimSpace(in.Folder)
	if name == "" || folder == "" {
		return common.Region{}, ErrInvalidRegion
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.regions {
		if strings.EqualFold(r.Name, name) {
			return common.Region{}, ErrDuplicateRegion
		}
	}

	region := common.Region{
		ID:        newObjectID(),
		Name:      name,
		Folder:    folder,
		SampleURL: in.SampleURL,
	}
	s.regions = append(s.regions, region)
	return region, nil
}

// Record stores a finished analysis, newest first
func (s *Store) Record(rec common.HistoryRecord) common.HistoryRecord {
	rec.ID = newObjectID()
	rec.CreatedAt = common.Timestamp{Time: s.now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[rec.UserID] = append([]common.HistoryRecord{rec}, s.history[rec.UserID]...)
	return rec
}

// History returns a copy of a user's records, newest first
func (s *Store) History(userID string) []common.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.history[userID]
	out := make([]common.HistoryRecord, len(records))
	copy(out, records)
	return out
}

// newObjectID returns a 24 hex character id, the shape the real backend uses
func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
