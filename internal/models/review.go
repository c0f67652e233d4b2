package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ReviewID  string    `bun:"review_id,pk" json:"review_id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	BookingID string    `bun:"booking_id,notnull" json:"booking_id"`
	Name      string    `bun:"name" json:"name"`
	Avatar    string    `bun:"avatar,nullzero" json:"avatar,omitempty"`
	Rating    int       `bun:"rating,notnull" json:"rating"` // 1..5
	Quote     string    `bun:"quote" json:"quote"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

type ReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Quote     string `json:"quote"`
}
