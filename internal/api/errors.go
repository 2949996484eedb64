package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes transport failures
type ErrorType string

const (
	// ErrTypeRequest indicates the request could not be built
	ErrTypeRequest ErrorType = "request"

	// ErrTypeEncode indicates the request body could not be serialized
	ErrTypeEncode ErrorType = "encode"

	// ErrTypeNetwork indicates the backend could not be reached
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeStatus indicates the backend answered with a non-2xx status
	ErrTypeStatus ErrorType = "status"

	// ErrTypeDecode indicates the response body could not be parsed
	ErrTypeDecode ErrorType = "decode"
)

// Error is returned by every Client method
type Error struct {
	Type       ErrorType
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	parts := []string{e.Op, fmt.Sprintf("type=%s", e.Type)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same type
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Type == te.Type
	}
	return false
}

func newError(op string, typ ErrorType, cause error) *Error {
	return &Error{Op: op, Type: typ, Cause: cause}
}

// StatusCode extracts the HTTP status of a failed call, zero when none was received
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether the backend answered 404
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}

// errorBody covers FastAPI's {"detail": ...} and the generic {"error": ...} shapes
type errorBody struct {
	Detail interface{} `json:"detail"`
	Error  string      `json:"error"`
}

func (b errorBody) message() string {
	switch d := b.Detail.(type) {
	case string:
		return d
	case []interface{}:
		// FastAPI validation errors: [{"loc": [...], "msg": "..."}]
		msgs := make([]string, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]interface{}); ok {
				if msg, ok := m["msg"].(string); ok {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return b.Error
}
