package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ServeFile handles GET /files/* -- delivers a blob from the filesystem
// object store when the request carries a valid signature. This route only
// exists when the filesystem backend is active; S3 signed URLs point
// directly at the bucket.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	sig := r.URL.Query().Get("sig")
	exp := r.URL.Query().Get("exp")
	if !h.Files.VerifySignature(key, sig, exp) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	data, err := h.Files.Get(r.Context(), key)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write file response")
	}
}
