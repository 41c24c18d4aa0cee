package server

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/jobs"
)

type batchRequest struct {
	Datasets       []string `json:"datasets"`
	Format         string   `json:"format"`
	Fields         []string `json:"fields"`
	IncludeHeaders *bool    `json:"include_headers"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
}

type batchList struct {
	Batches []jobs.Snapshot `json:"batches"`
}

type eventsResponse struct {
	Events []export.ProgressEvent `json:"events"`
	// Next is the since value for the following poll.
	Next uint64 `json:"next"`
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config().Server.MaxBodyBytes)

	var req batchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := checkDatasets(req.Datasets); err != nil {
		s.writeErr(w, r, err)
		return
	}
	opts, err := exportParams{
		Format:  req.Format,
		Fields:  req.Fields,
		Headers: req.IncludeHeaders,
		Start:   req.Start,
		End:     req.End,
	}.options(s.config().Export)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	datasets, err := s.deps.Service.Datasets(r.Context(), req.Datasets)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	id, err := s.deps.Jobs.Submit(r.Context(), datasets, opts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	snap, err := s.deps.Jobs.Get(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/admin/batches/"+id)
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, batchList{Batches: s.deps.Jobs.List()})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Jobs.Get(r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deps.Jobs.Cancel(id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	snap, err := s.deps.Jobs.Get(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleBatchEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}

	events, err := s.deps.Jobs.Events(r.PathValue("id"), since)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	next := since
	if len(events) > 0 {
		next = events[len(events)-1].Seq
	}
	if events == nil {
		events = []export.ProgressEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Next: next})
}

func (s *Server) handleBatchFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	f, err := s.deps.Jobs.Open(r.PathValue("id"), name)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(name), ".")); err == nil {
		w.Header().Set("Content-Type", format.MIMEType())
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+export.SafeName(name)+"\"")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
