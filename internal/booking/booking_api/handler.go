package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
)

// maxFlyerSize caps flyer uploads at 5MB.
const maxFlyerSize = 5 << 20

type Handler struct {
	BookingService *booking.BookingService
	Logger         *logger.Logger
}

func NewHandler(bookingService *booking.BookingService, log *logger.Logger) *Handler {
	return &Handler{
		BookingService: bookingService,
		Logger:         log,
	}
}

// GetAvailability returns the slot grid for a date. Duration defaults to 1.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	duration := 1
	if d := r.URL.Query().Get("duration"); d != "" {
		if _, err := fmt.Sscanf(d, "%d", &duration); err != nil || duration < 1 {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}
	}
	h.Logger.Info("API", fmt.Sprintf("GetAvailability: date=%s duration=%d", date, duration))

	slots, err := h.BookingService.Availability(date, duration)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAvailability: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("availability", slots))
}

func (h *Handler) PlaceBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceBooking: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("PlaceBooking: user=%s date=%s time=%s", userID, req.Date, req.StartTime))

	resp, err := h.BookingService.PlaceBooking(r.Context(), userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceBooking: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("booking created", resp))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("GetBooking: bookingId=%s", bookingID))

	b, err := h.BookingService.GetBooking(bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: booking not found: %v", err))
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	if !auth.IsAdmin(r.Context()) && b.UserID != auth.UserID(r.Context()) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("booking", b))
}

// GetMyBookings lists the caller's bookings, newest first.
func (h *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	bookings, err := h.BookingService.ListUserBookings(userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMyBookings: %v", err))
		http.Error(w, "Could not load bookings", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("bookings", bookings))
}

// ListBookings returns every booking. Admin only.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.BookingService.ListBookings()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookings: %v", err))
		http.Error(w, "Could not load bookings", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("bookings", bookings))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingId=%s", bookingID))

	err := h.BookingService.CancelBooking(auth.UserID(r.Context()), auth.IsAdmin(r.Context()), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.BookingID == "" {
		req.BookingID = chi.URLParam(r, "bookingId")
	}
	h.Logger.Info("API", fmt.Sprintf("VerifyPayment: bookingId=%s reference=%s", req.BookingID, req.Reference))

	b, warning, err := h.BookingService.ConfirmPayment(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyPayment: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	message := "payment confirmed"
	if warning != "" {
		message = warning
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, b))
}

// UploadFlyer attaches event artwork to a booking via multipart form upload.
func (h *Handler) UploadFlyer(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	if err := r.ParseMultipartForm(maxFlyerSize); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("flyer")
	if err != nil {
		http.Error(w, "flyer file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxFlyerSize))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	url, err := h.BookingService.AttachFlyer(r.Context(), auth.UserID(r.Context()), bookingID, header.Filename, data)
	if err != nil {
		if errors.Is(err, booking.ErrForbidden) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		// The booking stands even when artwork storage fails.
		h.Logger.Warn("API", fmt.Sprintf("UploadFlyer: %v", err))
		utils.WriteJSON(w, http.StatusOK, utils.ErrorResponse("booking saved, but the flyer could not be stored", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("flyer uploaded", map[string]string{"flyer_url": url}))
}

func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var req struct {
		Date      string `json:"date"`
		StartTime string `json:"time"`
		Duration  int    `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Reschedule: bookingId=%s date=%s time=%s", bookingID, req.Date, req.StartTime))

	err := h.BookingService.Reschedule(auth.UserID(r.Context()), auth.IsAdmin(r.Context()), bookingID, req.Date, req.StartTime, req.Duration)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Reschedule: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("booking rescheduled", nil))
}

// AdminUpdateBooking applies an administrative override to any booking field.
func (h *Handler) AdminUpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	var update models.AdminBookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("AdminUpdateBooking: bookingId=%s", bookingID))

	b, err := h.BookingService.AdminOverride(bookingID, update)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AdminUpdateBooking: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("booking updated", b))
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrSlotLocked),
		errors.Is(err, booking.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, booking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, booking.ErrPaymentFailed),
		errors.Is(err, booking.ErrPaymentWindowClosed),
		errors.Is(err, booking.ErrAmountMismatch):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
