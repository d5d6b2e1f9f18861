package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Navigation targets returned to the client in the "redirect" field.
const (
	RouteLogin             = "login"
	RouteProfile           = "profile"
	RouteApplications      = "applications"
	RouteProblemStatements = "problem-statements"
)

type ErrorResponse struct {
	Error    string `json:"error"`
	Title    string `json:"title,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError writes err with the status HTTPStatusFromError picks.
// A UserError is surfaced verbatim; other errors below 500 keep their
// message, and everything else gets a generic fallback.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	code := HTTPStatusFromError(err)

	var userErr *UserError
	if errors.As(err, &userErr) {
		RespondWithJSON(w, code, ErrorResponse{Error: userErr.Message, Title: userErr.Title})
		return
	}
	if code >= http.StatusInternalServerError {
		RespondWithJSON(w, code, ErrorResponse{Error: "An unexpected error occurred", Title: "Error"})
		return
	}
	RespondWithJSON(w, code, ErrorResponse{Error: err.Error(), Title: "Error"})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
