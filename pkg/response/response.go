// Package response writes the JSON envelopes of the API.
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every /api/v1 answer.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Resource not found",
	http.StatusInternalServerError: "Internal server error",
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{Success: true, Message: message, Data: data})
}

func Error(w http.ResponseWriter, statusCode int, message string, err interface{}) {
	JSON(w, statusCode, Response{Message: message, Error: err})
}

// fail writes an error envelope, falling back to the status' default text.
func fail(w http.ResponseWriter, statusCode int, message string) {
	if message == "" {
		message = defaultMessages[statusCode]
	}
	Error(w, statusCode, message, nil)
}

// ValidationError carries the per-field messages of the validator.
func ValidationError(w http.ResponseWriter, fields interface{}) {
	Error(w, http.StatusBadRequest, "Validation failed", fields)
}

func BadRequest(w http.ResponseWriter, message string)   { fail(w, http.StatusBadRequest, message) }
func Unauthorized(w http.ResponseWriter, message string) { fail(w, http.StatusUnauthorized, message) }
func Forbidden(w http.ResponseWriter, message string)    { fail(w, http.StatusForbidden, message) }
func NotFound(w http.ResponseWriter, message string)     { fail(w, http.StatusNotFound, message) }
func Conflict(w http.ResponseWriter, message string)     { fail(w, http.StatusConflict, message) }

func InternalServerError(w http.ResponseWriter, message string) {
	fail(w, http.StatusInternalServerError, message)
}

// Plain writes the bare {"error": message} body of privileged routines.
func Plain(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, map[string]string{"error": message})
}
