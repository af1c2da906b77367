package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/usetix/tix/internal/domain"
)

const maxImageSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

func (h *Handlers) UploadEventImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "tix/events")
}

func (h *Handlers) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "tix/profiles")
}

func (h *Handlers) uploadImage(w http.ResponseWriter, r *http.Request, folder string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: "image exceeds 5MB limit"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "only jpeg, png and gif images are accepted"})
		return
	}

	url, err := h.catalog.UploadImage(r.Context(), file, folder)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Message: "image upload failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "publicId")
	publicID = strings.ReplaceAll(publicID, "|", "/")
	if publicID == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.images.Delete(r.Context(), publicID); err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Message: "image delete failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
