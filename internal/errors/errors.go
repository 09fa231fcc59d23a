// Package errors provides structured error types for the preview
// pipeline. Transform failures are collected per file rather than
// aborting a build: the pipeline is best-effort and one broken source
// must not take the page down.
package errors

import (
	"fmt"
	"sync"
	"time"
)

// TransformError represents a per-file failure in the transform stage.
type TransformError struct {
	File      string
	Line      int
	Column    int
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (te *TransformError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", te.File, te.Line, te.Column, te.Severity, te.Message)
}

// ErrorCollector collects transform errors across one preview pass.
type ErrorCollector struct {
	transformErrors []TransformError
	errors          []error
	mutex           sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		transformErrors: make([]TransformError, 0),
		errors:          make([]error, 0),
	}
}

// Add adds a transform error to the collector
func (ec *ErrorCollector) Add(err TransformError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.transformErrors = append(ec.transformErrors, err)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetErrors returns a copy of all collected transform errors.
func (ec *ErrorCollector) GetErrors() []TransformError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]TransformError, len(ec.transformErrors))
	copy(result, ec.transformErrors)
	return result
}

// GetErrorsByFile returns errors for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []TransformError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileErrors []TransformError
	for _, err := range ec.transformErrors {
		if err.File == file {
			fileErrors = append(fileErrors, err)
		}
	}
	return fileErrors
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.transformErrors) > 0 || len(ec.errors) > 0
}

// Clear clears all errors
func (ec *ErrorCollector) Clear() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.transformErrors = ec.transformErrors[:0]
	ec.errors = ec.errors[:0]
}
