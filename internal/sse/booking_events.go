package sse

import (
	"context"
	"ms-booking/internal/models"
	"sync"
)

// BookingEventEmitter manages SSE connections and event broadcasting for
// booking lifecycle events
type BookingEventEmitter struct {
	// Admin feed clients - every booking event goes here
	allClients     []chan models.BookingEvent
	allClientMutex sync.RWMutex

	// Per-user channel clients map - key: userID, value: slice of client channels
	userClients     map[string][]chan models.BookingEvent
	userClientMutex sync.RWMutex
}

// NewBookingEventEmitter creates a new SSE event emitter for booking events
func NewBookingEventEmitter() *BookingEventEmitter {
	return &BookingEventEmitter{
		userClients: make(map[string][]chan models.BookingEvent),
	}
}

// SubscribeToAll adds a client to the firehose of every booking event
func (e *BookingEventEmitter) SubscribeToAll(ctx context.Context) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)

	e.allClientMutex.Lock()
	e.allClients = append(e.allClients, clientChan)
	e.allClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeAllClient(clientChan)
	}()

	return clientChan
}

// SubscribeToUser adds a client to a single user's booking events
func (e *BookingEventEmitter) SubscribeToUser(ctx context.Context, userID string) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)

	e.userClientMutex.Lock()
	if e.userClients[userID] == nil {
		e.userClients[userID] = []chan models.BookingEvent{}
	}
	e.userClients[userID] = append(e.userClients[userID], clientChan)
	e.userClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeUserClient(userID, clientChan)
	}()

	return clientChan
}

// EmitBookingEvent broadcasts a booking event to all subscribed clients
func (e *BookingEventEmitter) EmitBookingEvent(event models.BookingEvent) {
	e.allClientMutex.RLock()
	clients := e.allClients
	e.allClientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send to avoid slowing down emitter if client is slow
		select {
		case clientChan <- event:
		default:
			// Channel buffer full, skip this client for now
		}
	}

	if event.Booking == nil {
		return
	}

	e.userClientMutex.RLock()
	userClients := e.userClients[event.Booking.UserID]
	e.userClientMutex.RUnlock()

	for _, clientChan := range userClients {
		select {
		case clientChan <- event:
		default:
			// Channel buffer full, skip this client for now
		}
	}
}

// Helper methods to remove clients when they disconnect
func (e *BookingEventEmitter) removeAllClient(clientChan chan models.BookingEvent) {
	e.allClientMutex.Lock()
	defer e.allClientMutex.Unlock()

	for i, ch := range e.allClients {
		if ch == clientChan {
			e.allClients = append(e.allClients[:i], e.allClients[i+1:]...)
			close(clientChan)
			break
		}
	}
}

func (e *BookingEventEmitter) removeUserClient(userID string, clientChan chan models.BookingEvent) {
	e.userClientMutex.Lock()
	defer e.userClientMutex.Unlock()

	clients := e.userClients[userID]
	for i, ch := range clients {
		if ch == clientChan {
			e.userClients[userID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	// Clean up map entry if no more clients
	if len(e.userClients[userID]) == 0 {
		delete(e.userClients, userID)
	}
}

// GetAllClientCount returns the number of clients on the firehose feed
func (e *BookingEventEmitter) GetAllClientCount() int {
	e.allClientMutex.RLock()
	defer e.allClientMutex.RUnlock()
	return len(e.allClients)
}

// GetUserClientCount returns the number of clients subscribed to a user's feed
func (e *BookingEventEmitter) GetUserClientCount(userID string) int {
	e.userClientMutex.RLock()
	defer e.userClientMutex.RUnlock()
	return len(e.userClients[userID])
}
