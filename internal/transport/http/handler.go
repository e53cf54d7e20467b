// Package httptransport is the thin HTTP layer over the directory,
// ingestion and query services. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/directory"
	"rollcall/internal/ingest"
	"rollcall/internal/query"
	dErrors "rollcall/pkg/domain-errors"
)

// DirectoryService is the enrollment surface the transport needs.
type DirectoryService interface {
	Register(ctx context.Context, req directory.RegisterRequest) (directory.Person, error)
	FindByFingerprint(ctx context.Context, fingerprintID string) (directory.Person, error)
}

// IngestService is the administrative recording surface.
type IngestService interface {
	Record(ctx context.Context, req ingest.RecordRequest) (string, error)
}

// QueryService is the reporting surface.
type QueryService interface {
	AllAttendance(ctx context.Context) ([]query.AttendanceRecord, error)
	AllAttendanceByTime(ctx context.Context, startDate, endDate string) ([]query.AttendanceRecord, error)
	CohortAttendance(ctx context.Context, cohort string) ([]query.AttendanceRecord, error)
	CohortAttendanceByTime(ctx context.Context, cohort, startDate, endDate string) ([]query.AttendanceRecord, error)
	PersonAttendance(ctx context.Context, fingerprintID string) ([]query.AttendanceRecord, error)
	PersonAttendanceByTime(ctx context.Context, fingerprintID, startDate, endDate string) ([]query.AttendanceRecord, error)
	AttendanceCount(ctx context.Context, fingerprintID, startDate, endDate string) (int, error)
	AttendancePercentage(ctx context.Context, fingerprintID, startDate, endDate string) (float64, error)
}

// HealthChecker reports liveness of one backing resource.
type HealthChecker func(ctx context.Context) error

// Handler wires the admin endpoints.
type Handler struct {
	directory DirectoryService
	ingest    IngestService
	query     QueryService
	log       *slog.Logger
	health    map[string]HealthChecker
}

func NewHandler(dir DirectoryService, ing IngestService, qry QueryService, log *slog.Logger) *Handler {
	return &Handler{
		directory: dir,
		ingest:    ing,
		query:     qry,
		log:       log,
		health:    make(map[string]HealthChecker),
	}
}

// AddHealthCheck registers a named backing-resource check for /healthz.
func (h *Handler) AddHealthCheck(name string, check HealthChecker) {
	h.health[name] = check
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/persons", h.handleRegisterPerson)
	r.Get("/persons/{fingerprintID}", h.handleFindPerson)

	r.Post("/attendance", h.handleAddAttendance)
	r.Get("/attendance", h.handleAllAttendance)
	r.Get("/attendance/range", h.handleAllAttendanceByTime)

	r.Get("/cohorts/{cohort}/attendance", h.handleCohortAttendance)

	r.Get("/persons/{fingerprintID}/attendance", h.handlePersonAttendance)
	r.Get("/persons/{fingerprintID}/attendance/count", h.handleAttendanceCount)
	r.Get("/persons/{fingerprintID}/attendance/percentage", h.handleAttendancePercentage)

	r.Get("/healthz", h.handleHealthz)
}

func (h *Handler) handleRegisterPerson(w http.ResponseWriter, r *http.Request) {
	var req registerPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeMissingField, "invalid request body"))
		return
	}

	person, err := h.directory.Register(r.Context(), directory.RegisterRequest{
		FingerprintID: req.FingerprintID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Cohort:        req.Cohort,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonResponse(person))
}

func (h *Handler) handleFindPerson(w http.ResponseWriter, r *http.Request) {
	person, err := h.directory.FindByFingerprint(r.Context(), chi.URLParam(r, "fingerprintID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonResponse(person))
}

func (h *Handler) handleAddAttendance(w http.ResponseWriter, r *http.Request) {
	var req addAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeMissingField, "invalid request body"))
		return
	}

	message, err := h.ingest.Record(r.Context(), ingest.RecordRequest{
		FingerprintID: req.FingerprintID,
		PersonName:    req.NativeName,
		Timestamp:     req.AttendanceDate,
		TimeOfDay:     req.AttendanceTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: message})
}

func (h *Handler) handleAllAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := h.query.AllAttendance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleAllAttendanceByTime(w http.ResponseWriter, r *http.Request) {
	records, err := h.query.AllAttendanceByTime(r.Context(),
		r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleCohortAttendance(w http.ResponseWriter, r *http.Request) {
	cohort := chi.URLParam(r, "cohort")
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	var (
		records []query.AttendanceRecord
		err     error
	)
	if startDate == "" && endDate == "" {
		records, err = h.query.CohortAttendance(r.Context(), cohort)
	} else {
		records, err = h.query.CohortAttendanceByTime(r.Context(), cohort, startDate, endDate)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handlePersonAttendance(w http.ResponseWriter, r *http.Request) {
	fingerprintID := chi.URLParam(r, "fingerprintID")
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	var (
		records []query.AttendanceRecord
		err     error
	)
	if startDate == "" && endDate == "" {
		records, err = h.query.PersonAttendance(r.Context(), fingerprintID)
	} else {
		records, err = h.query.PersonAttendanceByTime(r.Context(), fingerprintID, startDate, endDate)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleAttendanceCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.query.AttendanceCount(r.Context(),
		chi.URLParam(r, "fingerprintID"),
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{TotalNumberOfAttendance: count})
}

func (h *Handler) handleAttendancePercentage(w http.ResponseWriter, r *http.Request) {
	percentage, err := h.query.AttendancePercentage(r.Context(),
		chi.URLParam(r, "fingerprintID"),
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"))
	if err != nil {
		writeError(w, err)
		return
	}
	// The percentage is exposed as a bare floating-point value.
	writeJSON(w, http.StatusOK, percentage)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks[name] = "ok"
		}
	}
	writeJSON(w, status, checks)
}

func toPersonResponse(person directory.Person) personResponse {
	return personResponse{
		FingerprintID: person.FingerprintID,
		FirstName:     person.FirstName,
		LastName:      person.LastName,
		Email:         person.Email,
		Cohort:        person.Cohort,
	}
}
