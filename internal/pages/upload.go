package pages

import (
	"context"
	"io"

	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/common"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/upload"
)

// UploadScreen is the fragment the upload page shows
type UploadScreen int

const (
	ScreenUploadForm UploadScreen = iota
	ScreenUploadSubmitting
	ScreenUploadResult
)

// UploadPage is the view-state of analyzing a user supplied image pair
type UploadPage struct {
	backend  UploadBackend
	session  *auth.Session
	log      *logger.Logger
	registry *upload.Registry
	images   *upload.Pair

	beforeYear int
	afterYear  int

	// kept locally, the backend has no field for them
	RegionName string
	Notes      string

	result  *common.AnalysisResult
	machine Machine
}

// NewUploadPage creates the page. Previews are issued from registry.
func NewUploadPage(backend UploadBackend, session *auth.Session, registry *upload.Registry, log *logger.Logger) *UploadPage {
	if log == nil {
		log = logger.Nop()
	}
	if registry == nil {
		registry = upload.NewRegistry()
	}
	return &UploadPage{
		backend:  backend,
		session:  session,
		log:      log,
		registry: registry,
		images:   upload.NewPair(registry),
	}
}

// SelectBefore selects the older image
func (p *UploadPage) SelectBefore(path string) (*upload.Image, error) {
	return p.selectInto(p.images.Before, path)
}

// SelectAfter selects the newer image
func (p *UploadPage) SelectAfter(path string) (*upload.Image, error) {
	return p.selectInto(p.images.After, path)
}

func (p *UploadPage) selectInto(slot *upload.Slot, path string) (*upload.Image, error) {
	img, err := slot.Select(path)
	if err != nil {
		return nil, err
	}
	p.log.DebugWithFields("image selected", []logger.Field{
		logger.F("name", img.Name),
		logger.F("format", img.Format),
		logger.F("size", img.Size),
	})
	return img, nil
}

// ClearBefore removes the older image
func (p *UploadPage) ClearBefore() {
	p.images.Before.Clear()
}

// ClearAfter removes the newer image
func (p *UploadPage) ClearAfter() {
	p.images.After.Clear()
}

// Before returns the older image or nil
func (p *UploadPage) Before() *upload.Image {
	return p.images.Before.Image()
}

// After returns the newer image or nil
func (p *UploadPage) After() *upload.Image {
	return p.images.After.Image()
}

// SetBeforeYear sets the year of the older image
func (p *UploadPage) SetBeforeYear(year int) {
	p.beforeYear = year
}

// SetAfterYear sets the year of the newer image
func (p *UploadPage) SetAfterYear(year int) {
	p.afterYear = year
}

// Years returns the selected years
func (p *UploadPage) Years() (before, after int) {
	return p.beforeYear, p.afterYear
}

// Prepare validates the form, opens both images and enters submitting.
// The returned closer must be closed once the request is done.
func (p *UploadPage) Prepare() (string, api.UploadRequest, io.Closer, error) {
	var req api.UploadRequest

	if !p.machine.CanSubmit() {
		return "", req, nil, userError(MsgBusy, ErrBusy)
	}
	if !p.images.Complete() {
		return "", req, nil, p.reject(userError(MsgMissingImages, nil))
	}
	if verr := validateYears(p.beforeYear, p.afterYear, MsgMissingYears); verr != nil {
		return "", req, nil, p.reject(verr)
	}
	userID, err := auth.Require(p.session)
	if err != nil {
		return "", req, nil, p.reject(userError(MsgSignedOut, err))
	}

	before, beforeCloser, err := p.images.Before.Open()
	if err != nil {
		return "", req, nil, p.reject(userError(MsgMissingImages, err))
	}
	after, afterCloser, err := p.images.After.Open()
	if err != nil {
		_ = beforeCloser.Close()
		return "", req, nil, p.reject(userError(MsgMissingImages, err))
	}
	closers := multiCloser{beforeCloser, afterCloser}

	if err := p.machine.Begin(); err != nil {
		_ = closers.Close()
		return "", req, nil, userError(MsgBusy, err)
	}

	req = api.UploadRequest{
		Before:     before,
		After:      after,
		BeforeYear: p.beforeYear,
		AfterYear:  p.afterYear,
	}
	return userID, req, closers, nil
}

// Complete records the outcome of a submission started by Prepare
func (p *UploadPage) Complete(result *common.AnalysisResult, err error) error {
	if err != nil {
		p.log.WarnWithFields("upload analysis failed", []logger.Field{logger.Error(err)})
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

// Submit validates, uploads the pair once and records the outcome
func (p *UploadPage) Submit(ctx context.Context) (*common.AnalysisResult, error) {
	userID, req, closer, err := p.Prepare()
	if err != nil {
		return nil, err
	}
	result, err := p.backend.AnalyzeUploadedRegion(ctx, userID, req)
	_ = closer.Close()
	if err := p.Complete(result, err); err != nil {
		return nil, err
	}
	return p.result, nil
}

// Result returns the last successful result or nil
func (p *UploadPage) Result() *common.AnalysisResult {
	return p.result
}

// Status returns the submission phase
func (p *UploadPage) Status() Status {
	return p.machine.Status()
}

// Error returns the visible error message
func (p *UploadPage) Error() string {
	return p.machine.Error()
}

// CanSubmit reports whether the submit control is enabled
func (p *UploadPage) CanSubmit() bool {
	return p.machine.CanSubmit()
}

// Screen returns the fragment to show
func (p *UploadPage) Screen() UploadScreen {
	switch {
	case p.machine.Status() == Submitting:
		return ScreenUploadSubmitting
	case p.result != nil:
		return ScreenUploadResult
	default:
		return ScreenUploadForm
	}
}

// Reset clears images, years, local fields and result
func (p *UploadPage) Reset() {
	p.images.Release()
	p.beforeYear = 0
	p.afterYear = 0
	p.RegionName = ""
	p.Notes = ""
	p.result = nil
	p.machine.Reset()
}

// Close releases every preview the page holds
func (p *UploadPage) Close() {
	p.images.Release()
}

func (p *UploadPage) reject(e *UserError) *UserError {
	p.machine.Fail(e.Message)
	return e
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
