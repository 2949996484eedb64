package ui

import (
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/logger"
	"github.com/terrawatch/terrawatch/internal/pages"
)

// Route is a top-level screen of the app
type Route int

const (
	RouteHome Route = iota
	RouteRegions
	RouteUpload
	RouteHistory
	RouteAbout
	RouteSignIn
)

// String returns the menu title of the route
func (r Route) String() string {
	switch r {
	case RouteHome:
		return "Home"
	case RouteRegions:
		return "Predefined Regions"
	case RouteUpload:
		return "Upload Images"
	case RouteHistory:
		return "History"
	case RouteAbout:
		return "About"
	case RouteSignIn:
		return "Sign In"
	default:
		return "Unknown"
	}
}

// Protected reports whether the route needs a signed-in user
func (r Route) Protected() bool {
	return r == RouteRegions || r == RouteUpload || r == RouteHistory
}

// Backend is every backend operation the app uses
type Backend interface {
	pages.PredefinedBackend
	pages.UploadBackend
	pages.HistoryBackend
}

// Connector builds a backend client carrying the session token
type Connector func(session *auth.Session) (Backend, error)

// Options configures the app
type Options struct {
	Session    *auth.Session
	Connect    Connector
	BaseURL    string
	JWTSecret  string
	FromYear   int
	ToYear     int
	ReportDir  string
	DateLayout string
	Theme      string
	Logger     *logger.Logger
}
