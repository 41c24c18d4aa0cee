package export

import (
	"fmt"
	"strings"
	"time"
)

// Format selects an encoder.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// DefaultFilename is used when Options.Filename is empty.
const DefaultFilename = "export"

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatXLSX, FormatPDF, FormatJSON}
}

var formatAliases = map[string]Format{
	"csv":             FormatCSV,
	"delimited-text":  FormatCSV,
	"xlsx":            FormatXLSX,
	"excel":           FormatXLSX,
	"spreadsheet":     FormatXLSX,
	"pdf":             FormatPDF,
	"document":        FormatPDF,
	"json":            FormatJSON,
	"structured-data": FormatJSON,
}

// ParseFormat resolves a format name or alias. Unknown names return a
// *ConfigurationError.
func ParseFormat(name string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return "", NewUnsupportedFormatError(name)
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatPDF, FormatJSON:
		return true
	}
	return false
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	return string(f)
}

// MIMEType returns the content type of artifacts in this format.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// DateRange is an inclusive time window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether start <= t <= end.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// String formats the range for logs.
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// Options configures a single export.
type Options struct {
	// Format selects the encoder. Required.
	Format Format

	// Filename is the artifact base name; the extension is appended.
	Filename string

	// IncludeHeaders emits a header row. Ignored by the JSON encoder.
	IncludeHeaders bool

	// SelectedFields narrows and orders the columns. Empty means every
	// field of the first record in its natural order.
	SelectedFields []string

	// DateRange restricts records by their created_at or date field.
	DateRange *DateRange
}

// NewOptions returns options for format with headers enabled.
func NewOptions(format Format) Options {
	return Options{Format: format, IncludeHeaders: true}
}

// BaseName returns Filename or DefaultFilename.
func (o Options) BaseName() string {
	if strings.TrimSpace(o.Filename) == "" {
		return DefaultFilename
	}
	return o.Filename
}

// ArtifactName returns "{base}.{ext}".
func (o Options) ArtifactName() string {
	return o.BaseName() + "." + o.Format.Extension()
}
