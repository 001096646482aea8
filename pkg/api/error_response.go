package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/adapter"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/query"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/schema"
)

// ErrorResponse represents a standard JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// WriteJSONError writes a JSON error response with the given status code and message
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(response)
}

// statusForError maps adapter errors onto HTTP status codes. Anything
// not recognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, adapter.ErrNotRegistered),
		errors.Is(err, adapter.ErrNoRecordsUpdated):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, adapter.ErrIdentityRequired),
		errors.Is(err, query.ErrInvalidCriteria),
		errors.Is(err, schema.ErrInvalidSchema),
		errors.Is(err, schema.ErrInvalidValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
