// Package export turns tabular in-memory records into downloadable files.
//
// # Records
//
// A Record is an ordered map from field name to a tagged scalar Value
// (string, number, date, bool or absent). The keys of the first record of a
// set define the default column order:
//
//	rec := export.NewRecord(
//	    export.F("name", "Ada"),
//	    export.F("city", "Berlin"),
//	    export.F("created_at", time.Now()),
//	)
//
// # Single exports
//
// An Exporter applies the optional date range, projects every record onto
// the selected fields and routes the table to the encoder for the requested
// format:
//
//	exporter := export.NewExporter(export.DefaultRegistry(export.DefaultStyle()), logger, nil)
//	artifact, err := exporter.Export(ctx, records, export.NewOptions(export.FormatXLSX))
//
// The artifact carries the bytes, the file name and the MIME type. Delivery
// is left to a Sink: DirSink writes files, ResponseSink serves an HTTP
// download. Exporting an empty record set returns a nil artifact and no
// error. Unknown formats fail with a *ConfigurationError.
//
// # Formats
//
//   - csv: comma-separated, RFC 4180 quoting, rows joined by "\n"
//   - xlsx: one sheet with a styled header row and banded data rows
//   - pdf: title block plus a paginated table
//   - json: {"exportedAt", "totalRecords", "data"} envelope
//
// Colors, fonts and sizes of the spreadsheet and document encoders come from
// Style.
//
// # Batches
//
// A Batch runs several datasets strictly one after another, naming each
// artifact "{dataset}_{YYYY-MM-DD}". Each dataset moves through pending,
// processing and then completed or error; a failure never stops the
// remaining datasets. Progress events are delivered to an Observer in
// order.
package export
