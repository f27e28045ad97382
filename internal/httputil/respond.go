// Package httputil provides JSON response helpers shared by handlers and
// middleware.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dongnae-labs/storefront/internal/errors"
)

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteServiceError writes a taxonomy error with its mapped HTTP status.
func WriteServiceError(w http.ResponseWriter, serviceErr *errors.ServiceError) {
	WriteJSON(w, serviceErr.HTTPStatus, errorBody{
		Error:   serviceErr.Message,
		Code:    string(serviceErr.Code),
		Details: serviceErr.Details,
	})
}

// WriteError maps any error onto the taxonomy and writes it. Errors outside
// the taxonomy become opaque 500s.
func WriteError(w http.ResponseWriter, err error) {
	if serviceErr := errors.GetServiceError(err); serviceErr != nil {
		WriteServiceError(w, serviceErr)
		return
	}
	WriteJSON(w, http.StatusInternalServerError, errorBody{
		Error: "internal error",
		Code:  string(errors.CodeInternal),
	})
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validation("invalid request body: " + err.Error())
	}
	return nil
}
