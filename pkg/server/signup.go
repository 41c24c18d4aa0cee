package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/waitlist"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config().Server.MaxBodyBytes)

	var req waitlist.SignupRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	entry, err := s.deps.Service.Signup(r.Context(), req)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Service.Stats(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type datasetsResponse struct {
	Datasets []waitlist.DatasetInfo `json:"datasets"`
	Formats  []export.Format        `json:"formats"`
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, datasetsResponse{
		Datasets: waitlist.Catalog(),
		Formats:  export.Formats(),
	})
}

// decodeJSON reads one JSON value from the body. On failure it writes the
// error response and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "invalid JSON body: "+err.Error())
	return false
}
