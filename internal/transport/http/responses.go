package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	dErrors "rollcall/pkg/domain-errors"
)

// registerPersonRequest mirrors the enrollment payload of the admin UI.
type registerPersonRequest struct {
	FingerprintID string `json:"fingerprintId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Cohort        string `json:"cohort"`
}

type personResponse struct {
	FingerprintID string `json:"fingerprintId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Cohort        string `json:"cohort"`
}

// addAttendanceRequest is the administrative "add attendance" payload.
type addAttendanceRequest struct {
	FingerprintID  string `json:"fingerprintId"`
	NativeName     string `json:"nativeName"`
	AttendanceDate string `json:"attendanceDate"`
	AttendanceTime string `json:"attendanceTime"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type countResponse struct {
	TotalNumberOfAttendance int `json:"totalNumberOfAttendance"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so all
// handlers share one JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if errors.As(err, &de) {
		writeJSON(w, statusFor(de.Code), map[string]string{
			"error": de.Message,
			"code":  string(de.Code),
		})
		return
	}

	// Malformed timestamps surface as a generic parse failure without
	// domain framing.
	var parseErr *time.ParseError
	if errors.As(err, &parseErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid date-time format, expected yyyy-MM-dd'T'HH:mm:ss",
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
		"code":  string(dErrors.CodeInternal),
	})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeMissingField, dErrors.CodeInvalidRange, dErrors.CodeNoWorkingDays:
		return http.StatusBadRequest
	case dErrors.CodeNotFound, dErrors.CodeEmpty:
		return http.StatusNotFound
	case dErrors.CodeAlreadyExists, dErrors.CodeDuplicateDay:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
