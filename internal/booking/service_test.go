package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/booking"
	"ms-booking/internal/models"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateBooking(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockDBLayer) GetBookingByID(id string) (*models.Booking, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockDBLayer) GetBookingsByDate(date string) ([]models.Booking, error) {
	args := m.Called(date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) ListBookings() ([]models.Booking, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) ListBookingsByUser(userID string) ([]models.Booking, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockDBLayer) UpdateBookingStatus(id string, status models.BookingStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockDBLayer) RescheduleBooking(id, date, startTime string, duration int) error {
	args := m.Called(id, date, startTime, duration)
	return args.Error(0)
}

func (m *MockDBLayer) AdminUpdateBooking(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockDBLayer) SetFlyerURL(id, url string) error {
	args := m.Called(id, url)
	return args.Error(0)
}

func (m *MockDBLayer) SetReceiptURL(id, url string) error {
	args := m.Called(id, url)
	return args.Error(0)
}

func (m *MockDBLayer) SetPaymentRef(id, reference string) error {
	args := m.Called(id, reference)
	return args.Error(0)
}

func (m *MockDBLayer) GetBookingByPaymentRef(reference string) (*models.Booking, error) {
	args := m.Called(reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

type MockSlotLock struct {
	mock.Mock
}

func (m *MockSlotLock) LockSlots(date string, slots []string, bookingID string) (bool, error) {
	args := m.Called(date, slots, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSlotLock) UnlockSlots(date string, slots []string, bookingID string) error {
	args := m.Called(date, slots, bookingID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initialize(ctx context.Context, email string, amountMajor float64) (*models.PaymentInit, error) {
	args := m.Called(ctx, email, amountMajor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentInit), args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, reference string) (*models.PaymentVerification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentVerification), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingCreated(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockPublisher) PublishBookingPaid(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockPublisher) PublishBookingCancelled(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockPublisher) PublishBookingCompleted(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) EmitBookingEvent(event models.BookingEvent) {
	m.Called(event)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Upload(ctx context.Context, name string, data []byte, progress func(written, total int64)) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type MockReceipts struct {
	mock.Mock
}

func (m *MockReceipts) GenerateEncryptedQR(b models.Booking) ([]byte, error) {
	args := m.Called(b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type serviceMocks struct {
	db       *MockDBLayer
	redis    *MockSlotLock
	gateway  *MockGateway
	kafka    *MockPublisher
	events   *MockEmitter
	media    *MockMediaStore
	receipts *MockReceipts
}

func newTestService(t *testing.T) (*booking.BookingService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		db:       new(MockDBLayer),
		redis:    new(MockSlotLock),
		gateway:  new(MockGateway),
		kafka:    new(MockPublisher),
		events:   new(MockEmitter),
		media:    new(MockMediaStore),
		receipts: new(MockReceipts),
	}
	svc := booking.NewBookingService(m.db, m.redis, m.gateway, m.kafka, m.events, m.media, m.receipts, nil)
	svc.Now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, m
}

// Tests start here

func TestPlaceBooking_HappyPath(t *testing.T) {
	svc, m := newTestService(t)

	req := models.BookingRequest{
		Name:      "John Doe",
		Email:     "john@example.com",
		Date:      "2025-06-02",
		StartTime: "19:00",
		Duration:  2,
	}

	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{}, nil)
	m.redis.On("LockSlots", "2025-06-02", []string{"19:00", "20:00"}, mock.Anything).Return(true, nil)
	m.gateway.On("Initialize", mock.Anything, "john@example.com", 250.0).Return(
		&models.PaymentInit{AccessCode: "ac_1", Reference: "ref_1"}, nil)
	m.db.On("CreateBooking", mock.MatchedBy(func(b models.Booking) bool {
		return b.Amount == 250 && b.Status == models.StatusPending && b.PaymentRef == "ref_1"
	})).Return(nil)
	m.kafka.On("PublishBookingCreated", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	resp, err := svc.PlaceBooking(context.Background(), "user123", req)
	require.NoError(t, err)
	assert.Equal(t, 250.0, resp.Amount)
	assert.Equal(t, "ac_1", resp.AccessCode)
	assert.Equal(t, "ref_1", resp.Reference)
	assert.Equal(t, "Pending", resp.Status)

	m.db.AssertExpectations(t)
	m.redis.AssertExpectations(t)
	m.gateway.AssertExpectations(t)
}

func TestPlaceBooking_MissingFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PlaceBooking(context.Background(), "user123", models.BookingRequest{
		Name: "John Doe", Date: "2025-06-02",
	})
	assert.ErrorIs(t, err, booking.ErrMissingFields)
}

func TestPlaceBooking_ConflictRejected(t *testing.T) {
	svc, m := newTestService(t)

	// Existing Paid booking 19:00-20:00; request 19:00-21:00 must conflict
	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{
		{BookingID: "b1", Date: "2025-06-02", StartTime: "19:00", Duration: 1, Status: models.StatusPaid},
	}, nil)

	_, err := svc.PlaceBooking(context.Background(), "user123", models.BookingRequest{
		Name: "John Doe", Email: "john@example.com", Date: "2025-06-02", StartTime: "19:00", Duration: 2,
	})
	assert.ErrorIs(t, err, booking.ErrSlotUnavailable)

	m.redis.AssertNotCalled(t, "LockSlots", mock.Anything, mock.Anything, mock.Anything)
	m.gateway.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceBooking_LockContention(t *testing.T) {
	svc, m := newTestService(t)

	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{}, nil)
	m.redis.On("LockSlots", "2025-06-02", []string{"10:00"}, mock.Anything).Return(false, nil)

	_, err := svc.PlaceBooking(context.Background(), "user123", models.BookingRequest{
		Name: "John Doe", Email: "john@example.com", Date: "2025-06-02", StartTime: "10:00", Duration: 1,
	})
	assert.ErrorIs(t, err, booking.ErrSlotLocked)
	m.gateway.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceBooking_GatewayFailureReleasesLocks(t *testing.T) {
	svc, m := newTestService(t)

	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{}, nil)
	m.redis.On("LockSlots", "2025-06-02", []string{"10:00"}, mock.Anything).Return(true, nil)
	m.gateway.On("Initialize", mock.Anything, "john@example.com", 100.0).Return(nil, errors.New("gateway down"))
	m.redis.On("UnlockSlots", "2025-06-02", []string{"10:00"}, mock.Anything).Return(nil)

	_, err := svc.PlaceBooking(context.Background(), "user123", models.BookingRequest{
		Name: "John Doe", Email: "john@example.com", Date: "2025-06-02", StartTime: "10:00", Duration: 1,
	})
	require.Error(t, err)

	m.db.AssertNotCalled(t, "CreateBooking", mock.Anything)
	m.redis.AssertExpectations(t)
}

func TestPlaceBooking_DBFailureReleasesLocks(t *testing.T) {
	svc, m := newTestService(t)

	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{}, nil)
	m.redis.On("LockSlots", "2025-06-02", []string{"10:00"}, mock.Anything).Return(true, nil)
	m.gateway.On("Initialize", mock.Anything, "john@example.com", 100.0).Return(
		&models.PaymentInit{AccessCode: "ac", Reference: "ref"}, nil)
	m.db.On("CreateBooking", mock.Anything).Return(errors.New("insert failed"))
	m.redis.On("UnlockSlots", "2025-06-02", []string{"10:00"}, mock.Anything).Return(nil)

	_, err := svc.PlaceBooking(context.Background(), "user123", models.BookingRequest{
		Name: "John Doe", Email: "john@example.com", Date: "2025-06-02", StartTime: "10:00", Duration: 1,
	})
	require.Error(t, err)
	m.redis.AssertExpectations(t)
}

func TestConfirmPayment_Success(t *testing.T) {
	svc, m := newTestService(t)

	pending := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "19:00",
		Duration: 1, Amount: 150, Status: models.StatusPending, PaymentRef: "ref_1",
	}

	m.db.On("GetBookingByID", "b1").Return(pending, nil)
	m.gateway.On("Verify", mock.Anything, "ref_1").Return(&models.PaymentVerification{Paid: true, Amount: 150}, nil)
	m.db.On("UpdateBookingStatus", "b1", models.StatusPaid).Return(nil)
	m.redis.On("UnlockSlots", "2025-06-02", []string{"19:00"}, "b1").Return(nil)
	m.receipts.On("GenerateEncryptedQR", mock.Anything).Return([]byte("png"), nil)
	m.media.On("Upload", mock.Anything, "receipts/b1.png", []byte("png")).Return("/media/receipts/b1.png", nil)
	m.db.On("SetReceiptURL", "b1", "/media/receipts/b1.png").Return(nil)
	m.kafka.On("PublishBookingPaid", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	got, warning, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		BookingID: "b1", Reference: "ref_1",
	})
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, models.StatusPaid, got.Status)
	assert.Equal(t, 150.0, got.Amount, "amount must not change on status transitions")

	m.db.AssertExpectations(t)
}

func TestConfirmPayment_ReceiptFailureIsWarningOnly(t *testing.T) {
	svc, m := newTestService(t)

	pending := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "19:00",
		Duration: 1, Amount: 150, Status: models.StatusPending, PaymentRef: "ref_1",
	}

	m.db.On("GetBookingByID", "b1").Return(pending, nil)
	m.gateway.On("Verify", mock.Anything, "ref_1").Return(&models.PaymentVerification{Paid: true, Amount: 150}, nil)
	m.db.On("UpdateBookingStatus", "b1", models.StatusPaid).Return(nil)
	m.redis.On("UnlockSlots", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.receipts.On("GenerateEncryptedQR", mock.Anything).Return([]byte("png"), nil)
	m.media.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("storage down"))
	m.kafka.On("PublishBookingPaid", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	got, warning, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		BookingID: "b1", Reference: "ref_1",
	})
	require.NoError(t, err, "a storage failure after successful payment must not fail the booking")
	assert.NotEmpty(t, warning)
	assert.Equal(t, models.StatusPaid, got.Status)
}

func TestConfirmPayment_WindowClosed(t *testing.T) {
	svc, m := newTestService(t)

	_, _, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		BookingID: "b1", Closed: true,
	})
	assert.ErrorIs(t, err, booking.ErrPaymentWindowClosed)
	m.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestConfirmPayment_ChargeFailed(t *testing.T) {
	svc, m := newTestService(t)

	pending := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "19:00",
		Duration: 1, Status: models.StatusPending, PaymentRef: "ref_1",
	}
	m.db.On("GetBookingByID", "b1").Return(pending, nil)
	m.gateway.On("Verify", mock.Anything, "ref_1").Return(&models.PaymentVerification{Paid: false}, nil)

	_, _, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		BookingID: "b1", Reference: "ref_1",
	})
	assert.ErrorIs(t, err, booking.ErrPaymentFailed)
	m.db.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything)
}

func TestConfirmPayment_AmountMismatch(t *testing.T) {
	svc, m := newTestService(t)

	pending := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "19:00",
		Duration: 1, Amount: 150, Status: models.StatusPending, PaymentRef: "ref_1",
	}
	m.db.On("GetBookingByID", "b1").Return(pending, nil)
	// The charge succeeded, but for the wrong amount.
	m.gateway.On("Verify", mock.Anything, "ref_1").Return(&models.PaymentVerification{Paid: true, Amount: 100}, nil)

	_, _, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		BookingID: "b1", Reference: "ref_1",
	})
	assert.ErrorIs(t, err, booking.ErrAmountMismatch)
	m.db.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything)
}

func TestConfirmPayment_ResolvesBookingByReference(t *testing.T) {
	svc, m := newTestService(t)

	pending := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "19:00",
		Duration: 1, Amount: 150, Status: models.StatusPending, PaymentRef: "ref_1",
	}

	// No booking ID in the request; the gateway reference is the only handle.
	m.db.On("GetBookingByPaymentRef", "ref_1").Return(pending, nil)
	m.gateway.On("Verify", mock.Anything, "ref_1").Return(&models.PaymentVerification{Paid: true, Amount: 150}, nil)
	m.db.On("UpdateBookingStatus", "b1", models.StatusPaid).Return(nil)
	m.redis.On("UnlockSlots", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.receipts.On("GenerateEncryptedQR", mock.Anything).Return([]byte("png"), nil)
	m.media.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("/media/receipts/b1.png", nil)
	m.db.On("SetReceiptURL", "b1", "/media/receipts/b1.png").Return(nil)
	m.kafka.On("PublishBookingPaid", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	got, _, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		Reference: "ref_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BookingID)
	m.db.AssertNotCalled(t, "GetBookingByID", mock.Anything)
}

func TestConfirmPayment_RecordsFreshReference(t *testing.T) {
	svc, m := newTestService(t)

	pending := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "19:00",
		Duration: 1, Amount: 150, Status: models.StatusPending, PaymentRef: "ref_old",
	}
	m.db.On("GetBookingByID", "b1").Return(pending, nil)
	m.gateway.On("Verify", mock.Anything, "ref_new").Return(&models.PaymentVerification{Paid: true, Amount: 150}, nil)
	m.db.On("UpdateBookingStatus", "b1", models.StatusPaid).Return(nil)
	m.db.On("SetPaymentRef", "b1", "ref_new").Return(nil)
	m.redis.On("UnlockSlots", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.receipts.On("GenerateEncryptedQR", mock.Anything).Return([]byte("png"), nil)
	m.media.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("/media/receipts/b1.png", nil)
	m.db.On("SetReceiptURL", "b1", "/media/receipts/b1.png").Return(nil)
	m.kafka.On("PublishBookingPaid", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	got, _, err := svc.ConfirmPayment(context.Background(), "user123", models.VerifyPaymentRequest{
		BookingID: "b1", Reference: "ref_new",
	})
	require.NoError(t, err)
	assert.Equal(t, "ref_new", got.PaymentRef)
	m.db.AssertExpectations(t)
}

func TestCancelBooking_Idempotent(t *testing.T) {
	svc, m := newTestService(t)

	cancelled := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "10:00",
		Duration: 1, Status: models.StatusCancelled,
	}
	m.db.On("GetBookingByID", "b1").Return(cancelled, nil)

	// Cancelling an already cancelled booking is a no-op, not an error
	err := svc.CancelBooking("user123", false, "b1")
	assert.NoError(t, err)
	m.db.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything)
}

func TestCancelBooking_OwnerOnly(t *testing.T) {
	svc, m := newTestService(t)

	b := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "10:00",
		Duration: 1, Status: models.StatusPending,
	}
	m.db.On("GetBookingByID", "b1").Return(b, nil)

	err := svc.CancelBooking("someone-else", false, "b1")
	assert.ErrorIs(t, err, booking.ErrForbidden)

	// Admins may cancel anyone's booking
	m.db.On("UpdateBookingStatus", "b1", models.StatusCancelled).Return(nil)
	m.redis.On("UnlockSlots", "2025-06-02", []string{"10:00"}, "b1").Return(nil)
	m.kafka.On("PublishBookingCancelled", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	err = svc.CancelBooking("someone-else", true, "b1")
	assert.NoError(t, err)
}

func TestCancelBooking_CompletedIsTerminal(t *testing.T) {
	svc, m := newTestService(t)

	b := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-05-01", StartTime: "10:00",
		Duration: 1, Status: models.StatusCompleted,
	}
	m.db.On("GetBookingByID", "b1").Return(b, nil)

	err := svc.CancelBooking("user123", false, "b1")
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)
}

func TestReschedule_ExcludesSelfFromConflicts(t *testing.T) {
	svc, m := newTestService(t)

	b := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "10:00",
		Duration: 1, Status: models.StatusPending,
	}
	m.db.On("GetBookingByID", "b1").Return(b, nil)
	// Snapshot contains only the booking being moved
	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{*b}, nil)
	m.db.On("RescheduleBooking", "b1", "2025-06-02", "11:00", 1).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	err := svc.Reschedule("user123", false, "b1", "2025-06-02", "11:00", 1)
	assert.NoError(t, err)
	m.db.AssertExpectations(t)
}

func TestMarkCompleted_RequiresElapsedDate(t *testing.T) {
	svc, m := newTestService(t)

	// Now is 2025-06-01 09:00; this booking is in the future
	future := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "10:00",
		Duration: 1, Status: models.StatusPaid,
	}
	m.db.On("GetBookingByID", "b1").Return(future, nil)

	err := svc.MarkCompleted("b1")
	assert.ErrorIs(t, err, booking.ErrInvalidTransition)

	// An elapsed Paid booking completes fine
	past := &models.Booking{
		BookingID: "b2", UserID: "user123", Date: "2025-05-30", StartTime: "10:00",
		Duration: 1, Status: models.StatusPaid,
	}
	m.db.On("GetBookingByID", "b2").Return(past, nil)
	m.db.On("UpdateBookingStatus", "b2", models.StatusCompleted).Return(nil)
	m.kafka.On("PublishBookingCompleted", mock.Anything).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	assert.NoError(t, svc.MarkCompleted("b2"))
}

func TestAdminOverride_BypassesTransitionGraph(t *testing.T) {
	svc, m := newTestService(t)

	b := &models.Booking{
		BookingID: "b1", UserID: "user123", Date: "2025-06-02", StartTime: "10:00",
		Duration: 1, Amount: 100, Status: models.StatusCancelled,
	}
	m.db.On("GetBookingByID", "b1").Return(b, nil)

	newStatus := models.StatusConfirmed
	m.db.On("AdminUpdateBooking", mock.MatchedBy(func(updated models.Booking) bool {
		return updated.Status == models.StatusConfirmed && updated.Amount == 100
	})).Return(nil)
	m.events.On("EmitBookingEvent", mock.Anything).Return()

	got, err := svc.AdminOverride("b1", models.AdminBookingUpdate{Status: &newStatus})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
}

func TestAvailability_PastSlotExclusion(t *testing.T) {
	svc, m := newTestService(t)
	svc.Now = func() time.Time { return time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC) }

	m.db.On("GetBookingsByDate", "2025-06-01").Return([]models.Booking{}, nil)
	m.db.On("GetBookingsByDate", "2025-06-02").Return([]models.Booking{}, nil)

	today, err := svc.Availability("2025-06-01", 1)
	require.NoError(t, err)
	tomorrow, err := svc.Availability("2025-06-02", 1)
	require.NoError(t, err)

	byTime := func(slots []models.SlotInfo, t string) models.SlotInfo {
		for _, s := range slots {
			if s.Time == t {
				return s
			}
		}
		return models.SlotInfo{}
	}

	assert.False(t, byTime(today, "14:00").Available, "elapsed slot today must be excluded")
	assert.True(t, byTime(today, "16:00").Available)
	assert.True(t, byTime(tomorrow, "14:00").Available, "tomorrow's slot stays available")
}
