package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/leofalp/antitok/internal/content"
	"github.com/leofalp/antitok/providers/observability"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
// It writes the error response itself and reports whether to continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

// fail maps a service error to a response. Request errors carry a message
// meant for the caller; anything else is logged and replaced by failure.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, failure string) {
	var requestErr *content.RequestError
	switch {
	case errors.As(err, &requestErr):
		writeError(w, http.StatusBadRequest, requestErr.Reason)
		return
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// The client went away; nobody is left to read a response.
		s.logFailure(r, "request cancelled by client", err)
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.logFailure(r, failure, err)
		writeError(w, http.StatusGatewayTimeout, "The model took too long to answer")
		return
	}

	s.logFailure(r, failure, err)
	writeError(w, http.StatusInternalServerError, failure)
}

func (s *Server) logFailure(r *http.Request, msg string, err error) {
	if s.observer == nil {
		return
	}
	s.observer.Error(r.Context(), msg,
		observability.Error(err),
		observability.String(observability.AttrHTTPRequestID, RequestIDFromContext(r.Context())),
	)
}

func flush(w http.ResponseWriter) {
	_ = http.NewResponseController(w).Flush()
}
