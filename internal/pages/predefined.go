package pages

import (
	"context"

	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/logger"
)

// PredefinedScreen is the fragment the predefined region page shows
type PredefinedScreen int

const (
	ScreenLoadingRegions PredefinedScreen = iota
	ScreenRegionsFailed
	ScreenRegionList
	ScreenRegionForm
	ScreenRegionSubmitting
	ScreenRegionResult
)

// PredefinedPage is the view-state of analyzing a predefined region
type PredefinedPage struct {
	backend PredefinedBackend
	session *auth.Session
	log     *logger.Logger

	loadingRegions bool
	regions        []common.Region
	regionsErr     string

	selected   *common.Region
	beforeYear int
	afterYear  int
	result     *common.AnalysisResult
	machine    Machine
}

// NewPredefinedPage creates the page. Regions are not fetched until LoadRegions.
func NewPredefinedPage(backend PredefinedBackend, session *auth.Session, log *logger.Logger) *PredefinedPage {
	if log == nil {
		log = logger.Nop()
	}
	return &PredefinedPage{
		backend:        backend,
		session:        session,
		log:            log,
		loadingRegions: true,
	}
}

// LoadRegions fetches the region list
func (p *PredefinedPage) LoadRegions(ctx context.Context) error {
	p.StartLoadingRegions()
	regions, err := p.backend.ListRegions(ctx)
	return p.RegionsLoaded(regions, err)
}

// StartLoadingRegions marks the region list as loading
func (p *PredefinedPage) StartLoadingRegions() {
	p.loadingRegions = true
	p.regionsErr = ""
}

// RegionsLoaded records the outcome of a region fetch
func (p *PredefinedPage) RegionsLoaded(regions []common.Region, err error) error {
	p.loadingRegions = false
	if err != nil {
		p.log.WarnWithFields("fetching regions failed", []logger.Field{logger.Error(err)})
		p.regions = nil
		p.regionsErr = MsgRegionsFailed
		return userError(MsgRegionsFailed, err)
	}
	p.regions = regions
	p.log.DebugWithFields("regions loaded", []logger.Field{logger.Count(len(regions))})
	return nil
}

// Regions returns the fetched regions
func (p *PredefinedPage) Regions() []common.Region {
	return p.regions
}

// SelectRegion opens the form for region, clearing years, result and error
func (p *PredefinedPage) SelectRegion(region common.Region) {
	r := region
	p.selected = &r
	p.beforeYear = 0
	p.afterYear = 0
	p.result = nil
	p.machine.Reset()
}

// Selected returns the selected region or nil
func (p *PredefinedPage) Selected() *common.Region {
	return p.selected
}

// SetBeforeYear sets the older year, zero clears it
func (p *PredefinedPage) SetBeforeYear(year int) {
	p.beforeYear = year
}

// SetAfterYear sets the newer year, zero clears it
func (p *PredefinedPage) SetAfterYear(year int) {
	p.afterYear = year
}

// Years returns the selected years
func (p *PredefinedPage) Years() (before, after int) {
	return p.beforeYear, p.afterYear
}

// Prepare validates the form and enters submitting. Nothing is sent; the
// caller performs the request and hands the outcome to Complete.
func (p *PredefinedPage) Prepare() (string, common.PredefinedAnalysisRequest, error) {
	var req common.PredefinedAnalysisRequest

	if !p.machine.CanSubmit() {
		return "", req, userError(MsgBusy, ErrBusy)
	}

	if p.selected == nil {
		return "", req, p.reject(userError(MsgMissingSelection, nil))
	}
	if verr := validateYears(p.beforeYear, p.afterYear, MsgMissingSelection); verr != nil {
		return "", req, p.reject(verr)
	}

	userID, err := auth.Require(p.session)
	if err != nil {
		return "", req, p.reject(userError(MsgSignedOut, err))
	}

	if err := p.machine.Begin(); err != nil {
		return "", req, userError(MsgBusy, err)
	}

	req = common.PredefinedAnalysisRequest{
		RegionID:   p.selected.ID,
		Folder:     p.selected.Folder,
		BeforeYear: p.beforeYear,
		AfterYear:  p.afterYear,
	}
	return userID, req, nil
}

// Complete records the outcome of a submission started by Prepare
func (p *PredefinedPage) Complete(result *common.AnalysisResult, err error) error {
	if err != nil {
		p.log.WarnWithFields("predefined analysis failed", []logger.Field{logger.Error(err)})
		p.machine.Fail(MsgAnalysisFailed)
		return userError(MsgAnalysisFailed, err)
	}
	if result == nil {
		result = &common.AnalysisResult{}
	}
	p.result = result
	p.machine.Succeed()
	return nil
}

// Submit validates, calls the backend once and records the outcome
func (p *PredefinedPage) Submit(ctx context.Context) (*common.AnalysisResult, error) {
	userID, req, err := p.Prepare()
	if err != nil {
		return nil, err
	}
	result, err := p.backend.AnalyzePredefinedRegion(ctx, userID, req)
	if err := p.Complete(result, err); err != nil {
		return nil, err
	}
	return p.result, nil
}

// Result returns the last successful result or nil
func (p *PredefinedPage) Result() *common.AnalysisResult {
	return p.result
}

// Status returns the submission phase
func (p *PredefinedPage) Status() Status {
	return p.machine.Status()
}

// Error returns the visible error message
func (p *PredefinedPage) Error() string {
	if p.regionsErr != "" && p.selected == nil {
		return p.regionsErr
	}
	return p.machine.Error()
}

// CanSubmit reports whether the submit control is enabled
func (p *PredefinedPage) CanSubmit() bool {
	return p.selected != nil && p.machine.CanSubmit()
}

// BackToRegions drops the selection and returns to the region list
func (p *PredefinedPage) BackToRegions() {
	p.selected = nil
	p.beforeYear = 0
	p.afterYear = 0
	p.result = nil
	p.machine.Reset()
}

// Reset keeps the region but clears years and result so a new analysis can start
func (p *PredefinedPage) Reset() {
	p.beforeYear = 0
	p.afterYear = 0
	p.result = nil
	p.machine.Reset()
}

// Screen returns the fragment to show
func (p *PredefinedPage) Screen() PredefinedScreen {
	if p.selected != nil {
		switch {
		case p.machine.Status() == Submitting:
			return ScreenRegionSubmitting
		case p.result == nil:
			return ScreenRegionForm
		default:
			return ScreenRegionResult
		}
	}

	switch {
	case p.loadingRegions:
		return ScreenLoadingRegions
	case p.regionsErr != "":
		return ScreenRegionsFailed
	default:
		return ScreenRegionList
	}
}

func (p *PredefinedPage) reject(e *UserError) *UserError {
	p.machine.Fail(e.Message)
	return e
}
