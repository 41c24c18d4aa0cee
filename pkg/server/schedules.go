package server

import (
	"net/http"
	"time"

	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/schedule"
)

type scheduleList struct {
	Schedules []schedule.Schedule `json:"schedules"`
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scheduleList{Schedules: s.deps.Scheduler.List()})
}

// handleCreateSchedule adds a runtime schedule. Bookkeeping fields in the
// body are ignored.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config().Server.MaxBodyBytes)

	var in schedule.Schedule
	if !s.decodeJSON(w, r, &in) {
		return
	}
	sched := schedule.Schedule{
		Name:           in.Name,
		Description:    in.Description,
		Datasets:       in.Datasets,
		Format:         in.Format,
		IncludeHeaders: in.IncludeHeaders,
		Fields:         in.Fields,
		Kind:           in.Kind,
		Time:           in.Time,
		Date:           in.Date,
		DayOfWeek:      in.DayOfWeek,
		DayOfMonth:     in.DayOfMonth,
		Timezone:       in.Timezone,
		Active:         in.Active,
	}
	if sched.Format == "" {
		sched.Format = export.Format(s.config().Export.DefaultFormat)
	} else if f, err := export.ParseFormat(string(sched.Format)); err == nil {
		sched.Format = f
	}
	if sched.Timezone == "" {
		sched.Timezone = time.UTC.String()
	}
	if sched.IncludeHeaders == nil {
		headers := config.BoolValue(s.config().Export.IncludeHeaders, config.DefaultExportIncludeHeaders)
		sched.IncludeHeaders = &headers
	}
	if err := checkDatasets(sched.Datasets); err != nil {
		s.writeErr(w, r, err)
		return
	}

	created, err := s.deps.Scheduler.Add(sched)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/admin/schedules/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.deps.Scheduler.Get(r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// handleDeleteSchedule removes a runtime schedule. Schedules declared in
// the configuration file are removed by editing the file.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sched, err := s.deps.Scheduler.Get(id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if sched.FromConfig {
		writeError(w, http.StatusConflict, ErrorTypeConflict, "schedule "+sched.Name+" is declared in the configuration file")
		return
	}
	if err := s.deps.Scheduler.Remove(id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRunSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.deps.Scheduler.RunNow(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handlePauseSchedule(w http.ResponseWriter, r *http.Request) {
	s.setScheduleActive(w, r, false)
}

func (s *Server) handleResumeSchedule(w http.ResponseWriter, r *http.Request) {
	s.setScheduleActive(w, r, true)
}

func (s *Server) setScheduleActive(w http.ResponseWriter, r *http.Request, active bool) {
	sched, err := s.deps.Scheduler.SetActive(r.PathValue("id"), active)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}
