// Package response writes the JSON bodies of the list endpoint.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorDetail represents an additional error detail in an error response.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
}

// Error is the body written under the "error" key of a failed request.
type Error struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Target    string        `json:"target,omitempty"`
	Details   []ErrorDetail `json:"details,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
}

// CollectionResponse is the body of a successful list request.
type CollectionResponse struct {
	Count int         `json:"count"`
	Value interface{} `json:"value"`
}

// WriteError writes an error response with an optional detail message.
func WriteError(w http.ResponseWriter, code int, message string, details string) error {
	body := &Error{
		Code:    fmt.Sprintf("%d", code),
		Message: message,
	}
	if details != "" {
		body.Details = []ErrorDetail{{Message: details}}
	}
	return WriteErrorBody(w, code, body)
}

// WriteErrorBody writes a fully populated error structure.
func WriteErrorBody(w http.ResponseWriter, httpStatusCode int, body *Error) error {
	return writeJSON(w, httpStatusCode, map[string]interface{}{"error": body})
}

// WriteCollection writes rows as {"count": n, "value": [...]}. A nil slice is
// written as an empty array.
func WriteCollection(w http.ResponseWriter, rows []*OrderedMap) error {
	if rows == nil {
		rows = []*OrderedMap{}
	}
	return writeJSON(w, http.StatusOK, CollectionResponse{Count: len(rows), Value: rows})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(body)
}
