package booking

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// Domain errors surfaced to the API boundary as human-readable messages.
var (
	ErrMissingFields       = errors.New("name, email, date and time are required")
	ErrSlotUnavailable     = errors.New("the requested slot conflicts with an existing booking or is in the past")
	ErrSlotLocked          = errors.New("the slot is currently being booked by someone else, try again shortly")
	ErrPaymentFailed       = errors.New("payment was not successful")
	ErrPaymentWindowClosed = errors.New("payment window was closed before the charge completed")
	ErrAmountMismatch      = errors.New("the charged amount does not match the booking amount")
	ErrForbidden           = errors.New("booking belongs to a different user")
	ErrInvalidTransition   = errors.New("booking status does not allow this change")
)

type DBLayer interface {
	CreateBooking(booking models.Booking) error
	GetBookingByID(id string) (*models.Booking, error)
	GetBookingsByDate(date string) ([]models.Booking, error)
	ListBookings() ([]models.Booking, error)
	ListBookingsByUser(userID string) ([]models.Booking, error)
	UpdateBookingStatus(id string, status models.BookingStatus) error
	RescheduleBooking(id, date, startTime string, duration int) error
	AdminUpdateBooking(booking models.Booking) error
	SetFlyerURL(id, url string) error
	SetReceiptURL(id, url string) error
	SetPaymentRef(id, reference string) error
	GetBookingByPaymentRef(reference string) (*models.Booking, error)
}

type SlotLock interface {
	LockSlots(date string, slots []string, bookingID string) (bool, error)
	UnlockSlots(date string, slots []string, bookingID string) error
}

type Gateway interface {
	Initialize(ctx context.Context, email string, amountMajor float64) (*models.PaymentInit, error)
	Verify(ctx context.Context, reference string) (*models.PaymentVerification, error)
}

type Publisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingPaid(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
	PublishBookingCompleted(booking models.Booking) error
}

type EventEmitter interface {
	EmitBookingEvent(event models.BookingEvent)
}

type MediaStore interface {
	Upload(ctx context.Context, name string, data []byte, progress func(written, total int64)) (string, error)
	Delete(ctx context.Context, name string) error
}

type ReceiptGenerator interface {
	GenerateEncryptedQR(booking models.Booking) ([]byte, error)
}

type BookingService struct {
	DB       DBLayer
	Redis    SlotLock
	Gateway  Gateway
	Kafka    Publisher
	Events   EventEmitter
	Media    MediaStore
	Receipts ReceiptGenerator
	Logger   *logger.Logger

	// Now is swapped out in tests.
	Now func() time.Time
}

func NewBookingService(db DBLayer, redis SlotLock, gateway Gateway, kafka Publisher, events EventEmitter, media MediaStore, receipts ReceiptGenerator, log *logger.Logger) *BookingService {
	return &BookingService{
		DB:       db,
		Redis:    redis,
		Gateway:  gateway,
		Kafka:    kafka,
		Events:   events,
		Media:    media,
		Receipts: receipts,
		Logger:   log,
		Now:      time.Now,
	}
}

// intervalSlots lists the hourly slot labels a booking occupies, one lock key
// per hour.
func intervalSlots(startHour, duration int) []string {
	slots := make([]string, 0, duration)
	for h := startHour; h < startHour+duration; h++ {
		slots = append(slots, FormatSlot(h))
	}
	return slots
}

// Availability evaluates the whole grid for a date and duration against the
// current reservation snapshot.
func (s *BookingService) Availability(date string, duration int) ([]models.SlotInfo, error) {
	if duration < 1 {
		duration = 1
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	existing, err := s.DB.GetBookingsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}

	return AvailableSlots(s.Now(), date, duration, existing), nil
}

// PlaceBooking runs a single submission end to end: validate, conflict-check,
// price, lock the slots, initialize payment, persist. A failure at any step
// aborts the remaining steps and releases the slot locks.
func (s *BookingService) PlaceBooking(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResponse, error) {
	if req.Name == "" || req.Email == "" || req.Date == "" || req.StartTime == "" {
		return nil, ErrMissingFields
	}
	if req.Duration < 1 {
		req.Duration = 1
	}
	if _, err := time.Parse(DateLayout, req.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q", req.Date)
	}
	startHour, err := ParseSlot(req.StartTime)
	if err != nil {
		return nil, err
	}

	// Conflict check against a fresh snapshot. The Redis lock below closes
	// the window between this check and the insert.
	existing, err := s.DB.GetBookingsByDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for %s: %w", req.Date, err)
	}
	if !SlotAvailable(s.Now(), req.Date, startHour, req.Duration, existing) {
		return nil, ErrSlotUnavailable
	}

	// Price is computed once here and stored on the booking. Nothing
	// recomputes it later.
	quote := Price(startHour, req.Duration)
	bookingID := uuid.NewString()
	slots := intervalSlots(startHour, req.Duration)

	ok, err := s.Redis.LockSlots(req.Date, slots, bookingID)
	if err != nil {
		return nil, fmt.Errorf("slot lock error: %w", err)
	}
	if !ok {
		return nil, ErrSlotLocked
	}

	init, err := s.Gateway.Initialize(ctx, req.Email, quote.Total)
	if err != nil {
		_ = s.Redis.UnlockSlots(req.Date, slots, bookingID)
		return nil, err
	}

	booking := models.Booking{
		BookingID:   bookingID,
		UserID:      userID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Date:        req.Date,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		Amount:      quote.Total,
		Status:      models.StatusPending,
		Description: req.Description,
		PaymentRef:  init.Reference,
		CreatedAt:   s.Now(),
	}

	if err := s.DB.CreateBooking(booking); err != nil {
		_ = s.Redis.UnlockSlots(req.Date, slots, bookingID)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish("created", booking)

	return &models.BookingResponse{
		BookingID:  bookingID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		Duration:   req.Duration,
		Amount:     quote.Total,
		Status:     string(booking.Status),
		AccessCode: init.AccessCode,
		Reference:  init.Reference,
	}, nil
}

// ConfirmPayment verifies the gateway charge behind a reference and moves the
// booking to Paid. Receipt generation failures are warnings, never booking
// failures. The returned warning, if any, is surfaced to the user.
func (s *BookingService) ConfirmPayment(ctx context.Context, userID string, req models.VerifyPaymentRequest) (*models.Booking, string, error) {
	if req.Closed {
		return nil, "", ErrPaymentWindowClosed
	}

	var booking *models.Booking
	var err error
	switch {
	case req.BookingID != "":
		booking, err = s.DB.GetBookingByID(req.BookingID)
	case req.Reference != "":
		booking, err = s.DB.GetBookingByPaymentRef(req.Reference)
	default:
		return nil, "", ErrMissingFields
	}
	if err != nil {
		return nil, "", fmt.Errorf("booking not found: %w", err)
	}
	if userID != "" && booking.UserID != userID {
		return nil, "", ErrForbidden
	}
	if !CanTransition(booking.Status, models.StatusPaid) {
		return nil, "", ErrInvalidTransition
	}

	reference := req.Reference
	if reference == "" {
		reference = booking.PaymentRef
	}

	verification, err := s.Gateway.Verify(ctx, reference)
	if err != nil {
		return nil, "", err
	}
	if !verification.Paid {
		return nil, "", ErrPaymentFailed
	}
	// A successful charge for the wrong amount does not settle the booking.
	if verification.Amount != booking.Amount {
		return nil, "", ErrAmountMismatch
	}

	if err := s.DB.UpdateBookingStatus(booking.BookingID, models.StatusPaid); err != nil {
		return nil, "", fmt.Errorf("failed to mark booking paid: %w", err)
	}
	booking.Status = models.StatusPaid

	// The popup callback can hand back a fresher reference than the one
	// issued at initialization; keep the row pointing at the charge that
	// actually settled.
	if reference != booking.PaymentRef {
		if err := s.DB.SetPaymentRef(booking.BookingID, reference); err != nil {
			s.warn("PAYMENT", fmt.Sprintf("Failed to record reference %s on booking %s: %v", reference, booking.BookingID, err))
		} else {
			booking.PaymentRef = reference
		}
	}

	// The row now owns the slot; the short-lived lock can go.
	if startHour, perr := ParseSlot(booking.StartTime); perr == nil {
		_ = s.Redis.UnlockSlots(booking.Date, intervalSlots(startHour, booking.Duration), booking.BookingID)
	}

	warning := s.attachReceipt(ctx, booking)

	s.publish("paid", *booking)

	return booking, warning, nil
}

// attachReceipt generates and stores the QR check-in receipt. Always returns
// a warning string instead of failing the confirmed booking.
func (s *BookingService) attachReceipt(ctx context.Context, booking *models.Booking) string {
	if s.Receipts == nil || s.Media == nil {
		return ""
	}

	png, err := s.Receipts.GenerateEncryptedQR(*booking)
	if err != nil {
		s.warn("RECEIPT", fmt.Sprintf("Failed to generate receipt for booking %s: %v", booking.BookingID, err))
		return "booking confirmed, but the receipt could not be generated"
	}

	url, err := s.Media.Upload(ctx, path.Join("receipts", booking.BookingID+".png"), png, nil)
	if err != nil {
		s.warn("RECEIPT", fmt.Sprintf("Failed to store receipt for booking %s: %v", booking.BookingID, err))
		return "booking confirmed, but the receipt could not be stored"
	}

	if err := s.DB.SetReceiptURL(booking.BookingID, url); err != nil {
		s.warn("RECEIPT", fmt.Sprintf("Failed to record receipt URL for booking %s: %v", booking.BookingID, err))
		return "booking confirmed, but the receipt could not be stored"
	}
	booking.ReceiptURL = url
	return ""
}

// AttachFlyer stores event flyer artwork against a booking. A storage
// failure after a successful payment must not discard the booking, so the
// caller turns the error into a user-visible warning.
func (s *BookingService) AttachFlyer(ctx context.Context, userID string, bookingID, filename string, data []byte) (string, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return "", fmt.Errorf("booking %s not found: %w", bookingID, err)
	}
	if userID != "" && booking.UserID != userID {
		return "", ErrForbidden
	}

	url, err := s.Media.Upload(ctx, path.Join("flyers", bookingID+path.Ext(filename)), data, nil)
	if err != nil {
		s.warn("MEDIA", fmt.Sprintf("Flyer upload failed for booking %s: %v", bookingID, err))
		return "", fmt.Errorf("flyer upload failed: %w", err)
	}

	if err := s.DB.SetFlyerURL(bookingID, url); err != nil {
		return "", fmt.Errorf("failed to record flyer URL: %w", err)
	}

	booking.FlyerURL = url
	s.emit("updated", *booking)
	return url, nil
}

// CancelBooking moves a booking to Cancelled. Cancelling an already
// cancelled booking is a no-op, not an error. Rows are never deleted.
func (s *BookingService) CancelBooking(userID string, isAdmin bool, bookingID string) error {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return fmt.Errorf("booking %s not found: %w", bookingID, err)
	}
	if !isAdmin && booking.UserID != userID {
		return ErrForbidden
	}
	if booking.Status == models.StatusCancelled {
		return nil
	}
	if !CanTransition(booking.Status, models.StatusCancelled) {
		return ErrInvalidTransition
	}

	if err := s.DB.UpdateBookingStatus(bookingID, models.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}
	booking.Status = models.StatusCancelled

	if startHour, perr := ParseSlot(booking.StartTime); perr == nil {
		if err := s.Redis.UnlockSlots(booking.Date, intervalSlots(startHour, booking.Duration), bookingID); err != nil {
			s.warn("REDIS", fmt.Sprintf("Failed to unlock slots for booking %s: %v", bookingID, err))
		}
	}

	s.publish("cancelled", *booking)
	return nil
}

// Reschedule moves a non-terminal booking to a new slot. The stored amount
// stays as priced at creation.
func (s *BookingService) Reschedule(userID string, isAdmin bool, bookingID, date, startTime string, duration int) error {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return fmt.Errorf("booking %s not found: %w", bookingID, err)
	}
	if !isAdmin && booking.UserID != userID {
		return ErrForbidden
	}
	if booking.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	if duration < 1 {
		duration = booking.Duration
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q", date)
	}
	startHour, err := ParseSlot(startTime)
	if err != nil {
		return err
	}

	existing, err := s.DB.GetBookingsByDate(date)
	if err != nil {
		return fmt.Errorf("failed to load bookings for %s: %w", date, err)
	}
	// The booking being moved does not conflict with itself.
	others := existing[:0:0]
	for _, b := range existing {
		if b.BookingID != bookingID {
			others = append(others, b)
		}
	}
	if !SlotAvailable(s.Now(), date, startHour, duration, others) {
		return ErrSlotUnavailable
	}

	if err := s.DB.RescheduleBooking(bookingID, date, startTime, duration); err != nil {
		return fmt.Errorf("failed to reschedule booking %s: %w", bookingID, err)
	}

	booking.Date = date
	booking.StartTime = startTime
	booking.Duration = duration
	s.emit("updated", *booking)
	return nil
}

// AdminOverride applies an administrative edit, bypassing the transition
// graph entirely.
func (s *BookingService) AdminOverride(bookingID string, update models.AdminBookingUpdate) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking %s not found: %w", bookingID, err)
	}

	if update.Name != nil {
		booking.Name = *update.Name
	}
	if update.Email != nil {
		booking.Email = *update.Email
	}
	if update.Phone != nil {
		booking.Phone = *update.Phone
	}
	if update.Date != nil {
		if _, err := time.Parse(DateLayout, *update.Date); err != nil {
			return nil, fmt.Errorf("invalid date %q", *update.Date)
		}
		booking.Date = *update.Date
	}
	if update.StartTime != nil {
		if _, err := ParseSlot(*update.StartTime); err != nil {
			return nil, err
		}
		booking.StartTime = *update.StartTime
	}
	if update.Duration != nil && *update.Duration >= 1 {
		booking.Duration = *update.Duration
	}
	if update.Status != nil {
		booking.Status = *update.Status
	}
	if update.Description != nil {
		booking.Description = *update.Description
	}

	if err := s.DB.AdminUpdateBooking(*booking); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", bookingID, err)
	}

	s.emit("updated", *booking)
	return booking, nil
}

// MarkCompleted transitions an elapsed Paid/Confirmed booking to Completed.
// Driven by review submission; also usable from elapsed-date sweeps.
func (s *BookingService) MarkCompleted(bookingID string) error {
	booking, err := s.DB.GetBookingByID(bookingID)
	if err != nil {
		return fmt.Errorf("booking %s not found: %w", bookingID, err)
	}
	if booking.Status == models.StatusCompleted {
		return nil
	}
	if !CanTransition(booking.Status, models.StatusCompleted) {
		return ErrInvalidTransition
	}
	if !Elapsed(s.Now(), *booking) {
		return ErrInvalidTransition
	}

	if err := s.DB.UpdateBookingStatus(bookingID, models.StatusCompleted); err != nil {
		return fmt.Errorf("failed to complete booking %s: %w", bookingID, err)
	}
	booking.Status = models.StatusCompleted

	s.publish("completed", *booking)
	return nil
}

func (s *BookingService) GetBooking(id string) (*models.Booking, error) {
	return s.DB.GetBookingByID(id)
}

func (s *BookingService) ListBookings() ([]models.Booking, error) {
	return s.DB.ListBookings()
}

func (s *BookingService) ListUserBookings(userID string) ([]models.Booking, error) {
	return s.DB.ListBookingsByUser(userID)
}

// publish sends the lifecycle event to Kafka and the SSE emitter. Neither
// failing is allowed to fail the request.
func (s *BookingService) publish(eventType string, booking models.Booking) {
	if s.Kafka != nil {
		var err error
		switch eventType {
		case "created":
			err = s.Kafka.PublishBookingCreated(booking)
		case "paid":
			err = s.Kafka.PublishBookingPaid(booking)
		case "cancelled":
			err = s.Kafka.PublishBookingCancelled(booking)
		case "completed":
			err = s.Kafka.PublishBookingCompleted(booking)
		}
		if err != nil {
			s.warn("KAFKA", fmt.Sprintf("Failed to publish booking %s event for %s: %v", eventType, booking.BookingID, err))
		}
	}
	s.emit(eventType, booking)
}

func (s *BookingService) warn(category, message string) {
	if s.Logger != nil {
		s.Logger.Warn(category, message)
	}
}

func (s *BookingService) emit(eventType string, booking models.Booking) {
	if s.Events == nil {
		return
	}
	s.Events.EmitBookingEvent(models.BookingEvent{
		Type:      eventType,
		BookingID: booking.BookingID,
		Booking:   &booking,
		Timestamp: s.Now(),
	})
}
