// Package respond writes JSON response bodies for the HTTP handlers.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

const encodeFailure = `{"error":"failed to encode response"}`

// JSON encodes data before writing any header, so a value that cannot be
// encoded (a NaN score, for one) turns into a 500 instead of an empty 200.
// The encoding error is returned for logging.
func JSON(w http.ResponseWriter, status int, data interface{}) error {
	body, err := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(encodeFailure + "\n"))
		return err
	}

	w.WriteHeader(status)
	w.Write(append(body, '\n'))
	return nil
}

// Error writes an ErrorResponse with the given status
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}
