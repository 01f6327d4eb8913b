// Package response writes the feed server's JSON bodies.
package response

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// JSON writes v as the whole body.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Error writes {"status":..,"message":..}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Status: status, Message: message})
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}

// TooManyRequests sends a 429.
func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, "Too Many Requests")
}

// ServiceUnavailable sends a 503.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, message)
}
