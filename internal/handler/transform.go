package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avasile/snapvault/internal/api"
	"github.com/avasile/snapvault/internal/model"
)

// TransformImage handles POST /api/images/{id}/transform -- runs the
// transformation pipeline and returns a signed URL for the derived image.
func (h *Handler) TransformImage(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())
	imageID := chi.URLParam(r, "id")

	var body struct {
		Transformations *model.TransformSpec `json:"transformations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if body.Transformations == nil {
		api.BadRequest(w, "Transformations are required")
		return
	}

	result, err := h.Transform.Transform(r.Context(), userID, imageID, *body.Transformations)
	if err != nil {
		api.TransformError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"imageUrl": result.URL,
		"metadata": result.Metadata,
		"message":  "Image transformed successfully",
	})
}
