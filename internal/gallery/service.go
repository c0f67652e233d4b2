package gallery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/logger"
	"ms-booking/internal/media"
	"ms-booking/internal/models"
)

var ErrMissingImage = errors.New("image data is required")

type GalleryStore interface {
	CreateImage(image models.GalleryImage) error
	GetImageByID(id string) (*models.GalleryImage, error)
	ListImages() ([]models.GalleryImage, error)
	DeleteImage(id string) error
}

type GalleryService struct {
	DB     GalleryStore
	Media  media.Store
	Logger *logger.Logger
	Now    func() time.Time
}

func NewGalleryService(db GalleryStore, store media.Store, log *logger.Logger) *GalleryService {
	return &GalleryService{
		DB:     db,
		Media:  store,
		Logger: log,
		Now:    time.Now,
	}
}

// AddImage stores the upload and records it for the gallery page.
func (s *GalleryService) AddImage(ctx context.Context, filename, alt, hint string, data []byte) (*models.GalleryImage, error) {
	if len(data) == 0 {
		return nil, ErrMissingImage
	}

	id := uuid.New().String()
	storagePath := path.Join("gallery", id+path.Ext(filename))
	url, err := s.Media.Upload(ctx, storagePath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to store gallery image: %w", err)
	}

	image := models.GalleryImage{
		ImageID:     id,
		Src:         url,
		Alt:         alt,
		Hint:        hint,
		StoragePath: storagePath,
		CreatedAt:   s.Now(),
	}
	if err := s.DB.CreateImage(image); err != nil {
		// Don't leave an orphan file behind.
		_ = s.Media.Delete(ctx, storagePath)
		return nil, err
	}
	return &image, nil
}

// RemoveImage deletes the record and its stored file. A failed blob delete
// still removes the row; the leftover file only wastes disk.
func (s *GalleryService) RemoveImage(ctx context.Context, id string) error {
	image, err := s.DB.GetImageByID(id)
	if err != nil {
		return err
	}

	if err := s.DB.DeleteImage(id); err != nil {
		return err
	}

	if image.StoragePath != "" {
		if err := s.Media.Delete(ctx, image.StoragePath); err != nil && s.Logger != nil {
			s.Logger.Warn("GALLERY", fmt.Sprintf("Failed to delete stored image %s: %v", image.StoragePath, err))
		}
	}
	return nil
}

func (s *GalleryService) ListImages() ([]models.GalleryImage, error) {
	return s.DB.ListImages()
}
