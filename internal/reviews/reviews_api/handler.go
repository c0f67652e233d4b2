package reviews_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/reviews"
	"ms-booking/internal/utils"
)

type Handler struct {
	ReviewService *reviews.ReviewService
	Logger        *logger.Logger
}

func NewHandler(reviewService *reviews.ReviewService, log *logger.Logger) *Handler {
	return &Handler{
		ReviewService: reviewService,
		Logger:        log,
	}
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	h.Logger.Info("API", fmt.Sprintf("SubmitReview: user=%s booking=%s rating=%d", userID, req.BookingID, req.Rating))

	review, err := h.ReviewService.SubmitReview(userID, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitReview: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("review submitted", review))
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	all, err := h.ReviewService.ListReviews()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListReviews: %v", err))
		http.Error(w, "Could not load reviews", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("reviews", all))
}

// Testimonials serves the landing page strip: recent reviews rated 4+.
func (h *Handler) Testimonials(w http.ResponseWriter, r *http.Request) {
	top, err := h.ReviewService.Testimonials()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Testimonials: %v", err))
		http.Error(w, "Could not load testimonials", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("testimonials", top))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reviews.ErrMissingBookingID), errors.Is(err, reviews.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, reviews.ErrNotBookingOwner):
		return http.StatusForbidden
	case errors.Is(err, reviews.ErrNotReviewable), errors.Is(err, reviews.ErrAlreadyReviewed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
