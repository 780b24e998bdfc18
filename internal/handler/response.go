package handler

// RESPONSE HELPERS:
// Every response from the API uses one envelope:
//
//	{"status":"success","message":"Attendance berhasil","data":{...}}
//	{"status":"error","error":"validation_error","message":"status wajib diisi","field":"status"}
//
// writeJSON/writeSuccess send it; WriteError maps domain errors to a status
// code. WriteError is exported because the auth middleware uses it too.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/field-report/internal/apperror"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// maxBodyBytes caps request bodies. Report payloads are small JSON documents.
const maxBodyBytes = 1 << 20

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"` // machine-readable error type, errors only
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Envelope{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

// WriteError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation   → 400 validation_error
//	apperror.ErrUnauthorized → 401 unauthorized
//	apperror.ErrForbidden    → 403 forbidden
//	apperror.ErrNotFound     → 404 not_found
//	apperror.ErrConflict     → 409 conflict
//	anything else            → 500 internal_error, generic message
//
// errors.Is walks the wrap chain, so a service error such as
//
//	fmt.Errorf("service/report: ...: %w", apperror.ValidationFailed(...))
//
// still maps to 400. Errors without an *apperror.AppError are internal
// faults: the client gets a generic 500 and the cause is not exposed.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, Envelope{
			Status:  statusError,
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, Envelope{
		Status:  statusError,
		Error:   "internal_error",
		Message: "Terjadi kesalahan server",
	})
}

// decodeJSON reads a JSON body into dst. Malformed or oversized bodies and
// trailing garbage become a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("body", fmt.Sprintf("Body melebihi %d byte", maxErr.Limit))
		}
		return apperror.ValidationFailed("body", "Body JSON tidak valid")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("body", "Body JSON tidak valid")
	}
	return nil
}

// respondError logs internal faults with the request's identity, then writes
// err. Domain errors (validation, auth) are expected traffic and logged at
// Debug only.
func respondError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		logger.Debug("request rejected",
			slog.String("path", r.URL.Path),
			slog.String("reason", appErr.Message),
		)
	} else {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, err)
}
