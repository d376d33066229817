package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/harborline/fleetd/internal/app/domain/request"
	"github.com/harborline/fleetd/internal/errors"
)

// envelope is the uniform response shape.
type envelope struct {
	Success    bool          `json:"success"`
	Data       interface{}   `json:"data,omitempty"`
	Message    string        `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
	Code       string        `json:"code,omitempty"`
	Pagination *request.Page `json:"pagination,omitempty"`
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

func writePage(w http.ResponseWriter, data interface{}, page request.Page) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &page})
}

// writeError maps any error onto the envelope. Internal errors never leak
// their detail; the generic message goes out and the cause is logged upstream.
func writeError(w http.ResponseWriter, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("internal server error", err)
	}
	message := serviceErr.Message
	if serviceErr.Code == errors.CodeInternal {
		message = "internal server error"
	}
	writeJSON(w, serviceErr.HTTPStatus, envelope{
		Error: message,
		Code:  string(serviceErr.Code),
	})
}
