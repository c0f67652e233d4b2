package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/sse"
)

// SSEHandler streams booking lifecycle events to connected clients.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.BookingEventEmitter
}

func NewSSEHandler(log *logger.Logger, emitter *sse.BookingEventEmitter) *SSEHandler {
	return &SSEHandler{
		Logger:       log,
		EventEmitter: emitter,
	}
}

// HandleAllBookingEvents streams every booking event. Admin dashboard feed.
func (h *SSEHandler) HandleAllBookingEvents(w http.ResponseWriter, r *http.Request) {
	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToAll(ctx)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", "Client connected to the booking event feed")

	h.stream(w, ctx.Done(), eventChan)
}

// HandleMyBookingEvents streams the caller's own booking events.
func (h *SSEHandler) HandleMyBookingEvents(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToUser(ctx, userID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"userID\":\"%s\"}\n\n", userID)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to booking events for user: %s", userID))

	h.stream(w, ctx.Done(), eventChan)
}

func (h *SSEHandler) stream(w http.ResponseWriter, done <-chan struct{}, eventChan chan models.BookingEvent) {
	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", "Event channel closed")
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize booking event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-done:
			h.Logger.Debug("SSE", "Client disconnected from booking events")
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
