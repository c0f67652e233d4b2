package reviews

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

var (
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrNotReviewable    = errors.New("only elapsed paid bookings can be reviewed")
	ErrAlreadyReviewed  = errors.New("this booking has already been reviewed")
	ErrNotBookingOwner  = errors.New("only the booking owner can leave a review")
	ErrMissingBookingID = errors.New("booking_id is required")
)

type ReviewStore interface {
	CreateReview(review models.Review) error
	HasReviewForBooking(userID, bookingID string) (bool, error)
	ListReviews() ([]models.Review, error)
	TopRated(limit int) ([]models.Review, error)
}

// BookingReader is the slice of the booking service a review needs: loading
// the booking being reviewed and completing it afterwards.
type BookingReader interface {
	GetBooking(id string) (*models.Booking, error)
	MarkCompleted(bookingID string) error
}

// Reviewer names and avatars come off the user record, not the request.
type UserReader interface {
	GetUser(id string) (*models.User, error)
}

type ReviewService struct {
	DB       ReviewStore
	Bookings BookingReader
	Users    UserReader
	Logger   *logger.Logger
	Now      func() time.Time
}

func NewReviewService(db ReviewStore, bookings BookingReader, users UserReader, log *logger.Logger) *ReviewService {
	return &ReviewService{
		DB:       db,
		Bookings: bookings,
		Users:    users,
		Logger:   log,
		Now:      time.Now,
	}
}

// SubmitReview records a review for an elapsed paid booking and marks the
// booking Completed as a side effect.
func (s *ReviewService) SubmitReview(userID string, req models.ReviewRequest) (*models.Review, error) {
	if req.BookingID == "" {
		return nil, ErrMissingBookingID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	b, err := s.Bookings.GetBooking(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", req.BookingID, err)
	}
	if b.UserID != userID {
		return nil, ErrNotBookingOwner
	}
	if b.Status != models.StatusPaid && b.Status != models.StatusConfirmed && b.Status != models.StatusCompleted {
		return nil, ErrNotReviewable
	}
	// A booking whose slot has not elapsed yet cannot be reviewed.
	if !booking.Elapsed(s.Now(), *b) {
		return nil, ErrNotReviewable
	}

	taken, err := s.DB.HasReviewForBooking(userID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAlreadyReviewed
	}

	review := models.Review{
		ReviewID:  uuid.New().String(),
		UserID:    userID,
		BookingID: req.BookingID,
		Name:      b.Name,
		Rating:    req.Rating,
		Quote:     req.Quote,
		CreatedAt: s.Now(),
	}
	if s.Users != nil {
		if user, uerr := s.Users.GetUser(userID); uerr == nil {
			review.Name = user.FullName
			review.Avatar = user.AvatarURL
		}
	}

	if err := s.DB.CreateReview(review); err != nil {
		return nil, err
	}

	// The review is the signal that the session actually happened.
	if b.Status != models.StatusCompleted {
		if err := s.Bookings.MarkCompleted(b.BookingID); err != nil && s.Logger != nil {
			s.Logger.Warn("REVIEW", fmt.Sprintf("Failed to complete booking %s after review: %v", b.BookingID, err))
		}
	}

	return &review, nil
}

func (s *ReviewService) ListReviews() ([]models.Review, error) {
	return s.DB.ListReviews()
}

// Testimonials returns up to two recent reviews rated 4 or higher.
func (s *ReviewService) Testimonials() ([]models.Review, error) {
	return s.DB.TopRated(2)
}
