package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/sharebnb/internal/apperr"
)

// errorBody is the envelope for every error response. Message is a string,
// or a list of strings when a request failed several validations.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message interface{} `json:"message"`
	Status  int         `json:"status"`
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeErrorMessage writes the error envelope with a single message.
func writeErrorMessage(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, errorBody{Error: errorDetail{Message: msg, Status: code}}, code)
}

var kindStatus = map[apperr.Kind]int{
	apperr.NotFound:     http.StatusNotFound,
	apperr.BadRequest:   http.StatusBadRequest,
	apperr.Unauthorized: http.StatusUnauthorized,
}

// writeError converts err into a response. This is the only place errors
// become HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		code, ok := kindStatus[appErr.Kind]
		if ok {
			var msg interface{} = appErr.Error()
			if len(appErr.Messages) > 1 {
				msg = appErr.Messages
			}
			apiJSON(w, errorBody{Error: errorDetail{Message: msg, Status: code}}, code)
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	msg := http.StatusText(http.StatusInternalServerError)
	if s.devMode {
		msg = err.Error()
	}
	writeErrorMessage(w, msg, http.StatusInternalServerError)
}

// decodeJSON reads a JSON request body into dst, bounded by the upload limit.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequestf("Request body exceeds %d bytes", tooLarge.Limit)
		}
		return apperr.BadRequestf("Invalid JSON body")
	}
	return nil
}

// idParam parses a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequestf("%s must be a positive integer", name)
	}
	return id, nil
}
