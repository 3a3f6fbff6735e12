package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avasile/snapvault/internal/transform"
)

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusBadRequest, msg)
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter) {
	WriteMessage(w, http.StatusUnauthorized, "Authentication required")
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusNotFound, msg)
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusConflict, msg)
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, msg string) {
	WriteMessage(w, http.StatusRequestEntityTooLarge, msg)
}

// ServerError logs err and writes a 500 error response without leaking the
// underlying failure.
func ServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("internal error")
	WriteMessage(w, http.StatusInternalServerError, "Internal server error")
}

// TransformError maps an orchestrator error kind to its HTTP response:
// 400 for an invalid spec, 404 for a missing or foreign image, 500 for
// everything else.
func TransformError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transform.ErrInvalidTransformation):
		BadRequest(w, err.Error())
	case errors.Is(err, transform.ErrNotFound):
		NotFound(w, "Image not found")
	default:
		ServerError(w, err)
	}
}
