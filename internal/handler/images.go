package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avasile/snapvault/internal/api"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/model"
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadImage handles POST /api/images -- multipart upload with an "image"
// file field and a "title" field. The blob is written first; the metadata
// record is only created once the blob write succeeded.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.Config.MaxUploadBytes); err != nil {
		api.TooLarge(w, "File too large or invalid multipart form")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		api.BadRequest(w, "Title is required")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		api.BadRequest(w, "Image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.ServerError(w, err)
		return
	}

	contentType := http.DetectContentType(data)
	if !allowedUploadTypes[contentType] {
		api.BadRequest(w, "Invalid file type")
		return
	}

	imageID := uuid.New().String()
	blobKey := fmt.Sprintf("%s/%s", userID, imageID)

	if err := h.Store.Put(r.Context(), blobKey, data, contentType); err != nil {
		api.ServerError(w, fmt.Errorf("store blob: %w", err))
		return
	}

	now := time.Now().UTC()
	img := &model.Image{
		ID:          imageID,
		UserID:      userID,
		Title:       title,
		BlobKey:     blobKey,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.DB.CreateImage(img); err != nil {
		// Roll back the orphaned blob, best effort.
		_ = h.Store.Delete(r.Context(), blobKey)
		api.ServerError(w, fmt.Errorf("create image record: %w", err))
		return
	}

	api.WriteJSON(w, http.StatusCreated, img)
}

// GetImage handles GET /api/images/{id} -- returns the metadata record plus
// a signed URL for the original blob.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())
	imageID := chi.URLParam(r, "id")

	img, err := h.DB.GetImage(imageID, userID)
	if err != nil {
		api.NotFound(w, "Image not found")
		return
	}

	url, err := h.Store.SignURL(r.Context(), img.BlobKey, time.Duration(h.Config.SignedURLTTLSeconds)*time.Second)
	if err != nil {
		api.ServerError(w, fmt.Errorf("sign url: %w", err))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"image":    img,
		"imageUrl": url,
	})
}

// ListImages handles GET /api/images?page=&limit= -- paginated list of the
// caller's images.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())

	page := 1
	limit := 20

	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			api.BadRequest(w, "Page must be >= 1")
			return
		}
		page = p
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 100 {
			api.BadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = l
	}

	images, total, err := h.DB.ListImages(userID, page, limit)
	if err != nil {
		api.ServerError(w, err)
		return
	}
	if images == nil {
		images = []*model.Image{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"images": images,
		"page":   page,
		"limit":  limit,
		"total":  total,
	})
}

// DeleteImage handles DELETE /api/images/{id} -- deletes the blob first,
// then the record, so a half-failed delete never leaves a record pointing
// at nothing.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID := api.GetUserID(r.Context())
	imageID := chi.URLParam(r, "id")

	img, err := h.DB.GetImage(imageID, userID)
	if err != nil {
		api.NotFound(w, "Image not found")
		return
	}

	if err := h.Store.Delete(r.Context(), img.BlobKey); err != nil {
		api.ServerError(w, fmt.Errorf("delete blob: %w", err))
		return
	}

	if err := h.DB.DeleteImage(imageID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			api.NotFound(w, "Image not found")
			return
		}
		api.ServerError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"id": imageID})
}
