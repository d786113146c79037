package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/neon-eval/evalengine/pkg/store"
	"github.com/stretchr/testify/assert"
)

func TestMapServiceErrorNotFound(t *testing.T) {
	status, _ := mapServiceError(store.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMapServiceErrorConflict(t *testing.T) {
	status, _ := mapServiceError(store.ErrConflict)
	assert.Equal(t, http.StatusConflict, status)
}

func TestMapServiceErrorValidation(t *testing.T) {
	status, msg := mapServiceError(store.NewValidationError("name", "is required"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, msg, "name")
}

func TestMapServiceErrorUnknownBecomesInternal(t *testing.T) {
	status, msg := mapServiceError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", msg)
}
