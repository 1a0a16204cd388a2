// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer classification. Domain packages wrap
// their own sentinels with these kinds so handlers can map uniformly.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("state conflict")
	// ErrIntegrity marks a report or ledger inconsistency. It is never a
	// caller mistake and must surface as a distinct problem type.
	ErrIntegrity = errors.New("ledger integrity fault")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusConflict, "State Conflict", err.Error())
	case errors.Is(err, ErrIntegrity):
		JSON(w, http.StatusInternalServerError, ProblemDetail{
			Type:   "about:blank#report-inconsistent",
			Title:  "Report Inconsistent",
			Status: http.StatusInternalServerError,
			Detail: err.Error(),
		})
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
