package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the envelope written for failed requests. Error carries the
// caller-safe message; Code is the machine-readable category.
type ErrorBody struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteErrorResponse writes the standard error envelope.
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
