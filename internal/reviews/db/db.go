package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateReview(review models.Review) error {
	_, err := d.Bun.NewInsert().Model(&review).Exec(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// HasReviewForBooking reports whether the user already reviewed this booking.
func (d *DB) HasReviewForBooking(userID, bookingID string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Review)(nil)).
		Where("user_id = ?", userID).
		Where("booking_id = ?", bookingID).
		Count(context.Background())
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *DB) ListReviews() ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// TopRated returns the newest reviews rated 4 or higher, capped at limit.
// Feeds the landing page testimonial strip.
func (d *DB) TopRated(limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := d.Bun.NewSelect().
		Model(&reviews).
		Where("rating >= ?", 4).
		Order("created_at DESC").
		Limit(limit).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
