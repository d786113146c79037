package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/neon-eval/evalengine/pkg/store"
)

// mapServiceError maps a Store/domain error to an HTTP status and a
// client-safe message, grounded on the teacher's pkg/api/errors.go
// mapServiceError shape (adapted from echo.HTTPError to a plain
// status/message pair since gin handlers write responses directly).
func mapServiceError(err error) (int, string) {
	var validErr *store.ValidationError
	if errors.As(err, &validErr) {
		return http.StatusBadRequest, validErr.Error()
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "resource not found"
	}
	if errors.Is(err, store.ErrConflict) {
		return http.StatusConflict, "resource is not in a state that permits this operation"
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		return http.StatusConflict, "resource already exists"
	}
	if errors.Is(err, store.ErrInvalidInput) {
		return http.StatusBadRequest, err.Error()
	}

	slog.Error("unexpected service error", "error", err)
	return http.StatusInternalServerError, "internal server error"
}
