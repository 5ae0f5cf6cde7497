package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"strategos-hq/riskengine/pkg/bundle"
	"strategos-hq/riskengine/pkg/classifier"
	"strategos-hq/riskengine/pkg/model"
	"strategos-hq/riskengine/pkg/store"
)

// envelope is the body of every API response.
type envelope struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
	Error  *errorBody     `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// writeData writes a success envelope. meta may be nil.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any, meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		meta["request_id"] = id
	}
	writeJSON(w, r, status, envelope{Status: "success", Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, envelope{Status: "error", Error: &errorBody{Code: code, Message: message}})
}

// writeFailure maps an error to its status code and writes it. Errors that
// are not part of the domain taxonomy are logged and hidden from the client.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "request failed", "error", err)
		writeError(w, r, status, code, "an internal error occurred")
		return
	}
	writeError(w, r, status, code, err.Error())
}

func classify(err error) (int, string) {
	var (
		noActive  *model.NoActiveModelError
		invalid   *model.InvalidInputError
		notFound  *model.NotFoundError
		conflict  *model.ConflictError
		bundleErr *bundle.ValidationError
		tooLarge  *http.MaxBytesError
		storage   *store.StorageError
	)

	switch {
	case errors.As(err, &noActive):
		return http.StatusConflict, "no_active_model"
	case errors.As(err, &invalid), errors.As(err, &bundleErr):
		return http.StatusBadRequest, "invalid_input"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &conflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, classifier.ErrNoStates):
		return http.StatusConflict, "no_states"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.As(err, &storage):
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return model.NewInvalidInputError("body", "request body is required")
		}
		return model.NewInvalidInputError("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	if dec.More() {
		return model.NewInvalidInputError("body", "unexpected data after JSON object")
	}
	return nil
}
