// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details, extended with a
// machine-stable reason code clients can branch on.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// Unauthenticated sends a 401 carrying the given reason code. Distinct
// failure kinds share the status and differ only in reason.
func Unauthenticated(w http.ResponseWriter, reason, detail string) {
	JSON(w, http.StatusUnauthorized, ProblemDetail{
		Title:  "Unauthenticated",
		Status: http.StatusUnauthorized,
		Reason: reason,
		Detail: detail,
	})
}

// Forbidden sends a 403 with the unmet requirement echoed as detail,
// so clients can distinguish "log in again" from "you lack access".
func Forbidden(w http.ResponseWriter, reason, detail string) {
	JSON(w, http.StatusForbidden, ProblemDetail{
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Reason: reason,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
