package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

var ErrNotFound = errors.New("gallery image not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateImage(image models.GalleryImage) error {
	_, err := d.Bun.NewInsert().Model(&image).Exec(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create gallery image: %w", err)
	}
	return nil
}

func (d *DB) GetImageByID(id string) (*models.GalleryImage, error) {
	var image models.GalleryImage
	err := d.Bun.NewSelect().
		Model(&image).
		Where("image_id = ?", id).
		Scan(context.Background())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (d *DB) ListImages() ([]models.GalleryImage, error) {
	var images []models.GalleryImage
	err := d.Bun.NewSelect().
		Model(&images).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (d *DB) DeleteImage(id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.GalleryImage)(nil)).
		Where("image_id = ?", id).
		Exec(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete gallery image %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
