package server

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/waitlist"
)

var errNoDatasets = errors.New("at least one dataset is required")

// exportParams are the export options shared by single and batch exports
// before defaults are applied.
type exportParams struct {
	Format  string
	Fields  []string
	Headers *bool
	Start   string
	End     string
}

// options resolves p against the configured export defaults.
func (p exportParams) options(cfg config.ExportConfig) (export.Options, error) {
	name := p.Format
	if name == "" {
		name = cfg.DefaultFormat
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return export.Options{}, err
	}
	dr, err := export.ParseDateRange(p.Start, p.End)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{
		Format:         format,
		IncludeHeaders: config.BoolValue(p.Headers, config.BoolValue(cfg.IncludeHeaders, config.DefaultExportIncludeHeaders)),
		SelectedFields: p.Fields,
		DateRange:      dr,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func queryParams(q url.Values) (exportParams, error) {
	p := exportParams{
		Format: q.Get("format"),
		Fields: splitList(q.Get("fields")),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	}
	if v := q.Get("headers"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, &export.ConfigurationError{Option: "headers", Value: v, Cause: err}
		}
		p.Headers = &b
	}
	return p, nil
}

func checkDatasets(names []string) error {
	if len(names) == 0 {
		return &export.ConfigurationError{Option: "datasets", Cause: errNoDatasets}
	}
	known := waitlist.DatasetNames()
	for _, n := range names {
		if !slices.Contains(known, n) {
			return &export.ConfigurationError{Option: "dataset", Value: n, Cause: waitlist.ErrNotFound}
		}
	}
	return nil
}

// handleExport streams one dataset as a download. An export with no
// matching records answers 204.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("dataset")
	if name == "" {
		name = waitlist.DatasetEntries
	}
	if err := checkDatasets([]string{name}); err != nil {
		s.writeErr(w, r, err)
		return
	}

	params, err := queryParams(q)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts, err := params.options(s.config().Export)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts.Filename = q.Get("filename")
	if opts.Filename == "" {
		opts.Filename = export.BatchFilename(name, s.now())
	}

	datasets, err := s.deps.Service.Datasets(r.Context(), []string{name})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	art, err := s.deps.Exporter.Export(r.Context(), datasets[0].Records, opts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if art == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := (export.ResponseSink{W: w}).Deliver(r.Context(), art); err != nil {
		// Headers are already sent.
		s.logger.WarnContext(r.Context(), "export download interrupted", "filename", art.Filename, "error", err)
		return
	}
	s.logger.InfoContext(r.Context(), "export downloaded",
		"dataset", name,
		"format", string(art.Format),
		"records", art.Records,
		"bytes", art.Size(),
	)
}
