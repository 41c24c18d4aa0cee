package export

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is matched by every *ConfigurationError raised for
	// an unknown format.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrInvalidText reports a text value that is not valid UTF-8.
	ErrInvalidText = errors.New("invalid UTF-8 text")
)

// ConfigurationError reports a programming or configuration mistake, such
// as requesting a format no encoder handles.
type ConfigurationError struct {
	Option string
	Value  string
	Cause  error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("export configuration error [%s=%q]: %v", e.Option, e.Value, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewUnsupportedFormatError creates a ConfigurationError for format.
func NewUnsupportedFormatError(format string) *ConfigurationError {
	return &ConfigurationError{
		Option: "format",
		Value:  format,
		Cause:  ErrUnsupportedFormat,
	}
}

// ExportError represents a failure while encoding records.
type ExportError struct {
	Format      Format // Export format ("csv", "xlsx", ...)
	RecordCount int    // Number of records being exported
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, records=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format Format, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      format,
		RecordCount: recordCount,
		Cause:       cause,
	}
}

// DeliveryError reports that an artifact was produced but could not be
// handed to its sink.
type DeliveryError struct {
	Sink     string
	Filename string
	Cause    error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error [sink=%s, file=%s]: %v", e.Sink, e.Filename, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(sink, filename string, cause error) *DeliveryError {
	return &DeliveryError{Sink: sink, Filename: filename, Cause: cause}
}
