package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/snacktacular/backend/internal/domain/entities"
)

const maxPhotoBytes = 10 << 20

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	spots  SpotService
	photos PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(spots SpotService, photos PhotoService) *PhotoHandler {
	return &PhotoHandler{
		spots:  spots,
		photos: photos,
	}
}

// ListPhotos handles GET /api/spots/{id}/photos
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.List(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"photos": photos,
		"count":  len(photos),
	})
}

// UploadPhoto handles POST /api/spots/{id}/photos as multipart form data
// with an "image" file and an optional "description".
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read image")
		return
	}
	if len(data) > maxPhotoBytes {
		respondWithError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusUnsupportedMediaType, "file must be an image")
		return
	}

	spot, err := h.spots.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	photo := entities.NewPhoto(principal)
	photo.Description = strings.TrimSpace(r.FormValue("description"))
	photo.Image = data
	photo.ContentType = contentType
	if err := h.photos.Save(r.Context(), principal, spot, photo); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, photo)
}

// UpdatePhoto handles PUT /api/spots/{id}/photos/{photoId}; only the
// description can change.
func (h *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	spot := &entities.Spot{ID: r.PathValue("id")}
	photo := &entities.Photo{ID: r.PathValue("photoId"), Description: strings.TrimSpace(req.Description)}
	if err := h.photos.Save(r.Context(), principal, spot, photo); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, photo)
}

// DeletePhoto handles DELETE /api/spots/{id}/photos/{photoId}
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	spot := &entities.Spot{ID: r.PathValue("id")}
	photo := &entities.Photo{ID: r.PathValue("photoId")}
	if err := h.photos.Delete(r.Context(), principal, spot, photo); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
