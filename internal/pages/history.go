package pages

import (
	"context"

	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/logger"
)

// HistoryScreen is the fragment the history page shows
type HistoryScreen int

const (
	ScreenHistoryLoading HistoryScreen = iota
	ScreenHistoryFailed
	ScreenHistoryEmpty
	ScreenHistoryList
	ScreenHistoryDetail
)

// HistoryPage is the view-state of browsing past analyses
type HistoryPage struct {
	backend HistoryBackend
	session *auth.Session
	log     *logger.Logger

	loading  bool
	err      string
	records  []common.HistoryRecord
	selected int
}

// NewHistoryPage creates the page in the loading state
func NewHistoryPage(backend HistoryBackend, session *auth.Session, log *logger.Logger) *HistoryPage {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryPage{
		backend:  backend,
		session:  session,
		log:      log,
		loading:  true,
		selected: -1,
	}
}

// Load fetches the records of the signed-in user
func (p *HistoryPage) Load(ctx context.Context) error {
	userID, err := p.Start()
	if err != nil {
		return err
	}
	records, err := p.backend.History(ctx, userID)
	return p.Loaded(records, err)
}

// Start enters loading and returns the user to fetch for
func (p *HistoryPage) Start() (string, error) {
	p.loading = true
	p.err = ""
	p.selected = -1

	userID, err := auth.Require(p.session)
	if err != nil {
		p.loading = false
		p.err = MsgSignedOut
		return "", userError(MsgSignedOut, err)
	}
	return userID, nil
}

// Loaded records the outcome of a fetch
func (p *HistoryPage) Loaded(records []common.HistoryRecord, err error) error {
	p.loading = false
	if err != nil {
		p.log.WarnWithFields("fetching history failed", []logger.Field{logger.Error(err)})
		p.records = nil
		p.err = MsgHistoryFailed
		return userError(MsgHistoryFailed, err)
	}
	p.records = records
	p.err = ""
	return nil
}

// Records returns the full, unfiltered list
func (p *HistoryPage) Records() []common.HistoryRecord {
	return p.records
}

// Select opens the detail of the record at index
func (p *HistoryPage) Select(index int) bool {
	if index < 0 || index >= len(p.records) {
		return false
	}
	p.selected = index
	return true
}

// SelectByID opens the detail of the record with id
func (p *HistoryPage) SelectByID(id string) bool {
	for i := range p.records {
		if p.records[i].ID == id {
			p.selected = i
			return true
		}
	}
	return false
}

// Selected returns the record shown in detail or nil
func (p *HistoryPage) Selected() *common.HistoryRecord {
	if p.selected < 0 || p.selected >= len(p.records) {
		return nil
	}
	return &p.records[p.selected]
}

// Back closes the detail view
func (p *HistoryPage) Back() {
	p.selected = -1
}

// Error returns the visible error message
func (p *HistoryPage) Error() string {
	return p.err
}

// Screen returns the fragment to show
func (p *HistoryPage) Screen() HistoryScreen {
	switch {
	case p.loading:
		return ScreenHistoryLoading
	case p.err != "":
		return ScreenHistoryFailed
	case len(p.records) == 0:
		return ScreenHistoryEmpty
	case p.Selected() == nil:
		return ScreenHistoryList
	default:
		return ScreenHistoryDetail
	}
}
