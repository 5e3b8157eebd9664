// Package response writes the API's JSON envelope: every local endpoint
// answers {success, data?, error:{message}} so the front end has one shape
// to branch on.
package response

import (
	"encoding/json"
	"net/http"

	dErrors "caseflow/pkg/domain-errors"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// JSON writes a success envelope with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error maps a coded error to its HTTP status and writes a failure
// envelope carrying the error's message. Uncoded errors come out as a
// generic 500 so internals never leak.
func Error(w http.ResponseWriter, err error) {
	Fail(w, dErrors.ToHTTPStatus(dErrors.CodeOf(err)), dErrors.MessageOf(err))
}

// Fail writes a failure envelope with an explicit status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorBody{Message: message}})
}
