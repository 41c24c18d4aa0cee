package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/jobs"
	"movrr/waitlist/pkg/export/schedule"
	"movrr/waitlist/pkg/waitlist"
)

// Error types carried in ErrorDetail.Type.
const (
	ErrorTypeInvalidRequest   = "invalid_request_error"
	ErrorTypeValidation       = "validation_error"
	ErrorTypeAuthentication   = "authentication_error"
	ErrorTypePermissionDenied = "permission_denied"
	ErrorTypeNotFound         = "not_found"
	ErrorTypeConflict         = "conflict"
	ErrorTypeExport           = "export_error"
	ErrorTypeServer           = "server_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message string                `json:"message"`
	Type    string                `json:"type"`
	Fields  []waitlist.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: message, Type: errType}})
}

// writeErr maps a domain error to a status code and error type.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *waitlist.ValidationError
		cfgErr *export.ConfigurationError
		expErr *export.ExportError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{
			Message: "signup validation failed",
			Type:    ErrorTypeValidation,
			Fields:  verr.Errors,
		}})
	case errors.Is(err, waitlist.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, ErrorTypeConflict, "this email is already on the waitlist")
	case errors.As(err, &cfgErr), errors.Is(err, schedule.ErrInvalid):
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
	case errors.Is(err, waitlist.ErrNotFound):
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
	case errors.Is(err, jobs.ErrJobNotFound), errors.Is(err, jobs.ErrFileNotFound), errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, err.Error())
	case errors.Is(err, schedule.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, ErrorTypeConflict, err.Error())
	case errors.As(err, &expErr):
		s.logger.ErrorContext(r.Context(), "export failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeExport, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServer, "an internal error occurred")
	}
}
