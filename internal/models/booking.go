package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusUnpaid    BookingStatus = "Unpaid"
	StatusPaid      BookingStatus = "Paid"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCompleted BookingStatus = "Completed"
	StatusCancelled BookingStatus = "Cancelled"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID   string        `bun:"booking_id,pk" json:"booking_id"`
	UserID      string        `bun:"user_id,nullzero" json:"user_id,omitempty"`
	Name        string        `bun:"name" json:"name"`
	Email       string        `bun:"email,nullzero" json:"email,omitempty"`
	Phone       string        `bun:"phone,nullzero" json:"phone,omitempty"`
	Date        string        `bun:"date" json:"date"`       // YYYY-MM-DD
	StartTime   string        `bun:"start_time" json:"time"` // HH:00, on the slot grid
	Duration    int           `bun:"duration" json:"duration"`
	Amount      float64       `bun:"amount" json:"amount"`
	Status      BookingStatus `bun:"status" json:"status"`
	Description string        `bun:"description,nullzero" json:"description,omitempty"`
	FlyerURL    string        `bun:"flyer_url,nullzero" json:"flyer_url,omitempty"`
	ReceiptURL  string        `bun:"receipt_url,nullzero" json:"receipt_url,omitempty"`
	PaymentRef  string        `bun:"payment_ref,nullzero" json:"payment_ref,omitempty"`
	CreatedAt   time.Time     `bun:"created_at" json:"created_at"`
}

type BookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Date        string `json:"date"`
	StartTime   string `json:"time"`
	Duration    int    `json:"duration"`
	Description string `json:"description,omitempty"`
}

type BookingResponse struct {
	BookingID  string  `json:"booking_id"`
	Date       string  `json:"date"`
	StartTime  string  `json:"time"`
	Duration   int     `json:"duration"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	AccessCode string  `json:"access_code,omitempty"`
	Reference  string  `json:"reference,omitempty"`
}

// AdminBookingUpdate carries an administrative override. Every field may be
// set, including status, bypassing the normal transition graph.
type AdminBookingUpdate struct {
	Name        *string        `json:"name,omitempty"`
	Email       *string        `json:"email,omitempty"`
	Phone       *string        `json:"phone,omitempty"`
	Date        *string        `json:"date,omitempty"`
	StartTime   *string        `json:"time,omitempty"`
	Duration    *int           `json:"duration,omitempty"`
	Status      *BookingStatus `json:"status,omitempty"`
	Description *string        `json:"description,omitempty"`
}

type SlotInfo struct {
	Time      string  `json:"time"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
}

type BookingEvent struct {
	Type      string    `json:"type"` // created, paid, cancelled, completed, updated
	BookingID string    `json:"booking_id"`
	Booking   *Booking  `json:"booking,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
