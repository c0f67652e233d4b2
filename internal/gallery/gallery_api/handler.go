package gallery_api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/gallery"
	galdb "ms-booking/internal/gallery/db"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"
)

// maxImageSize caps gallery uploads at 10MB.
const maxImageSize = 10 << 20

type Handler struct {
	GalleryService *gallery.GalleryService
	Logger         *logger.Logger
}

func NewHandler(galleryService *gallery.GalleryService, log *logger.Logger) *Handler {
	return &Handler{
		GalleryService: galleryService,
		Logger:         log,
	}
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.GalleryService.ListImages()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListImages: %v", err))
		http.Error(w, "Could not load gallery", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("gallery", images))
}

// AddImage accepts a multipart upload with optional alt and hint fields.
// Admin only.
func (h *Handler) AddImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	alt := r.FormValue("alt")
	hint := r.FormValue("hint")
	h.Logger.Info("API", fmt.Sprintf("AddImage: file=%s alt=%q", header.Filename, alt))

	image, err := h.GalleryService.AddImage(r.Context(), header.Filename, alt, hint, data)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddImage: %v", err))
		if errors.Is(err, gallery.ErrMissingImage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not store image", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("image added", image))
}

// DeleteImage removes a gallery image. Admin only.
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageId")
	h.Logger.Info("API", fmt.Sprintf("DeleteImage: imageId=%s", imageID))

	if err := h.GalleryService.RemoveImage(r.Context(), imageID); err != nil {
		if errors.Is(err, galdb.ErrNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteImage: %v", err))
		http.Error(w, "Could not delete image", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
