// Package pages holds the view-state of the analysis screens. Each page moves
// idle -> submitting -> {succeeded, failed} and back to idle on reset, driven
// only by user actions. Pages never render; the CLI and the terminal UI read
// their state.
package pages

import (
	"context"
	"errors"

	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/common"
)

// User-facing messages
const (
	MsgMissingSelection = "Please select a region and both years"
	MsgYearOrder        = "Before year must be earlier than after year"
	MsgMissingImages    = "Please upload both before and after images"
	MsgMissingYears     = "Please select both years"
	MsgAnalysisFailed   = "An error occurred during analysis. Please try again."
	MsgRegionsFailed    = "Failed to fetch available regions"
	MsgHistoryFailed    = "Failed to fetch analysis history"
	MsgSignedOut        = "Please sign in to continue"
	MsgBusy             = "An analysis is already running"
)

// Status is the phase of a page
type Status int

const (
	Idle Status = iota
	Submitting
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// UserError carries the one message shown to the user for a failure
type UserError struct {
	Message string
	Cause   error
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

func userError(msg string, cause error) *UserError {
	return &UserError{Message: msg, Cause: cause}
}

// ErrBusy is the cause of a Begin while a submission is running
var ErrBusy = errors.New("submission in progress")

// Machine tracks the status of one page and the message of its last failure
type Machine struct {
	status Status
	err    string
}

// Status returns the current phase
func (m *Machine) Status() Status {
	return m.status
}

// Error returns the visible error message, empty when none
func (m *Machine) Error() string {
	return m.err
}

// CanSubmit reports whether the submit control is enabled
func (m *Machine) CanSubmit() bool {
	return m.status == Idle || m.status == Failed
}

// Begin enters submitting. A running or finished submission must be reset first.
func (m *Machine) Begin() error {
	if !m.CanSubmit() {
		return ErrBusy
	}
	m.status = Submitting
	m.err = ""
	return nil
}

// Succeed finishes a submission
func (m *Machine) Succeed() {
	m.status = Succeeded
	m.err = ""
}

// Fail records a failure; the form stays usable
func (m *Machine) Fail(msg string) {
	m.status = Failed
	m.err = msg
}

// Reset returns to idle
func (m *Machine) Reset() {
	m.status = Idle
	m.err = ""
}

// PredefinedBackend is the part of the transport used by the predefined region page
type PredefinedBackend interface {
	ListRegions(ctx context.Context) ([]common.Region, error)
	AnalyzePredefinedRegion(ctx context.Context, userID string, req common.PredefinedAnalysisRequest) (*common.AnalysisResult, error)
}

// UploadBackend is the part of the transport used by the upload page
type UploadBackend interface {
	AnalyzeUploadedRegion(ctx context.Context, userID string, req api.UploadRequest) (*common.AnalysisResult, error)
}

// HistoryBackend is the part of the transport used by the history page
type HistoryBackend interface {
	History(ctx context.Context, userID string) ([]common.HistoryRecord, error)
}

// AvailableYears lists the years offered by the year pickers, oldest first
func AvailableYears(from, to int) []int {
	if to < from {
		return nil
	}
	years := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}

// validateYears checks that both years are set and ordered
func validateYears(before, after int, missing string) *UserError {
	if before == 0 || after == 0 {
		return userError(missing, nil)
	}
	if before >= after {
		return userError(MsgYearOrder, nil)
	}
	return nil
}
