package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateBooking inserts a new booking row.
func (d *DB) CreateBooking(booking models.Booking) error {
	_, err := d.Bun.NewInsert().Model(&booking).Exec(context.Background())
	return err
}

// GetBookingByID fetches one booking by its ID.
func (d *DB) GetBookingByID(id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingsByDate returns the non-cancelled bookings occupying a calendar
// date. This is the snapshot the engine runs conflict checks against.
func (d *DB) GetBookingsByDate(date string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("date = ?", date).
		Where("status != ?", models.StatusCancelled).
		Order("start_time ASC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListBookings returns every booking, newest first.
func (d *DB) ListBookings() ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListBookingsByUser returns a user's bookings, newest first.
func (d *DB) ListBookingsByUser(userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingStatus writes the status column only. The amount fixed at
// creation time is never touched by a status change.
func (d *DB) UpdateBookingStatus(id string, status models.BookingStatus) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", status).
		Where("booking_id = ?", id).
		Exec(context.Background())
	return err
}

// RescheduleBooking moves a booking to a new slot.
func (d *DB) RescheduleBooking(id, date, startTime string, duration int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("date = ?", date).
		Set("start_time = ?", startTime).
		Set("duration = ?", duration).
		Where("booking_id = ?", id).
		Exec(context.Background())
	return err
}

// AdminUpdateBooking applies an administrative edit. Every descriptive field
// and the status may change; the stored amount stays as computed at creation.
func (d *DB) AdminUpdateBooking(booking models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(&booking).
		Column("name", "email", "phone", "date", "start_time", "duration", "status", "description").
		Where("booking_id = ?", booking.BookingID).
		Exec(context.Background())
	return err
}

// SetFlyerURL records the uploaded flyer location.
func (d *DB) SetFlyerURL(id, url string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("flyer_url = ?", url).
		Where("booking_id = ?", id).
		Exec(context.Background())
	return err
}

// SetReceiptURL records the generated QR receipt location.
func (d *DB) SetReceiptURL(id, url string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("receipt_url = ?", url).
		Where("booking_id = ?", id).
		Exec(context.Background())
	return err
}

// SetPaymentRef ties a booking to the gateway reference handed back at
// initialization time.
func (d *DB) SetPaymentRef(id, reference string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("payment_ref = ?", reference).
		Where("booking_id = ?", id).
		Exec(context.Background())
	return err
}

// GetBookingByPaymentRef looks a booking up by its gateway reference.
func (d *DB) GetBookingByPaymentRef(reference string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("payment_ref = ?", reference).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
