package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// VerboseChecker reports whether debug and info lines should be written
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger writes component-tagged lines to stderr
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	writer         io.Writer
	mu             *sync.Mutex
}

// Field is a key-value pair appended to a log line
type Field struct {
	Key   string
	Value interface{}
}

// New creates a logger for a component
func New(component string, verboseChecker VerboseChecker) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		writer:         os.Stderr,
		mu:             &sync.Mutex{},
	}
}

// NewWithCallback creates a logger whose verbosity is decided by a callback
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck})
}

// Nop returns a logger that discards every line
func Nop() *Logger {
	l := New("nop", nil)
	l.writer = io.Discard
	return l
}

// WithComponent derives a logger for another component sharing writer and verbosity
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: l.verboseChecker,
		writer:         l.writer,
		mu:             l.mu,
	}
}

// SetOutput redirects the logger, mostly for tests
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

func (l *Logger) verbose() bool {
	return l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs only when verbose
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, nil, args...)
	}
}

// Info logs only when verbose
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, nil, args...)
	}
}

// Warn is always written
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write("WARN", msg, nil, args...)
}

// Error is always written
func (l *Logger) Error(msg string, args ...interface{}) {
	l.write("ERROR", msg, nil, args...)
}

// DebugWithFields logs a debug line with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("DEBUG", msg, fields, args...)
	}
}

// InfoWithFields logs an info line with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.write("INFO", msg, fields, args...)
	}
}

// WarnWithFields logs a warning with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.write("WARN", msg, fields, args...)
}

func (l *Logger) write(level, msg string, fields []Field, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05.000")
	component := l.component
	if component == "" {
		component = "main"
	}

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	var fieldsStr string
	if len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
		}
		fieldsStr = " [" + strings.Join(parts, " ") + "]"
	}

	line := fmt.Sprintf("[%s] %s [%s] %s%s\n", timestamp, level, component, formattedMsg, fieldsStr)

	l.mu.Lock()
	defer l.mu.Unlock()
	// nothing sensible to do if the log sink itself fails
	_, _ = io.WriteString(l.writer, line)
}

// F builds a field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d.Round(time.Millisecond)}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

func Status(code int) Field {
	return Field{Key: "status", Value: code}
}

func RequestID(id string) Field {
	return Field{Key: "request_id", Value: id}
}
