package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ms-booking/internal/models"
)

// Pricing and grid constants. The after-hours fee is flat per booking, it is
// never scaled by duration.
const (
	OpenHour  = 8  // first bookable start, 08:00
	CloseHour = 22 // last bookable start, 22:00

	BaseRate      = 100.0
	AfterHoursFee = 50.0

	afterHoursStart = 18 // 6 PM, floodlight fee applies
	earlyHoursEnd   = 6
)

const DateLayout = "2006-01-02"

// SlotTimes returns the fixed hourly grid, 08:00 through 22:00 inclusive.
func SlotTimes() []string {
	slots := make([]string, 0, CloseHour-OpenHour+1)
	for h := OpenHour; h <= CloseHour; h++ {
		slots = append(slots, FormatSlot(h))
	}
	return slots
}

func FormatSlot(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// ParseSlot parses an "HH:00" start time and validates it against the grid.
func ParseSlot(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	if parts[1] != "00" {
		return 0, fmt.Errorf("time %q is not on the hourly grid", s)
	}
	if hour < OpenHour || hour > CloseHour {
		return 0, fmt.Errorf("time %q is outside bookable hours (%s-%s)", s, FormatSlot(OpenHour), FormatSlot(CloseHour))
	}
	return hour, nil
}

// Overlaps reports whether [aStart, aStart+aDur) and [bStart, bStart+bDur)
// intersect. Both intervals are on the same date.
func Overlaps(aStart, aDur, bStart, bDur int) bool {
	return aStart < bStart+bDur && bStart < aStart+aDur
}

// Quote is the price breakdown for a prospective booking.
type Quote struct {
	BaseRate      float64 `json:"base_rate"`
	Duration      int     `json:"duration"`
	AfterHoursFee float64 `json:"after_hours_fee"`
	Total         float64 `json:"total"`
}

// IsAfterHours reports whether the floodlight fee applies: the booking starts
// at or after 18:00, runs past 18:00, or starts before 06:00.
func IsAfterHours(startHour, duration int) bool {
	return startHour >= afterHoursStart || startHour+duration > afterHoursStart || startHour < earlyHoursEnd
}

// Price computes the total for a booking. The quote is taken once at
// submission time and stored on the booking; it is never recomputed.
func Price(startHour, duration int) Quote {
	q := Quote{BaseRate: BaseRate, Duration: duration}
	if IsAfterHours(startHour, duration) {
		q.AfterHoursFee = AfterHoursFee
	}
	q.Total = BaseRate*float64(duration) + q.AfterHoursFee
	return q
}

// conflictsWith reports whether a candidate [startHour, startHour+duration) on
// date collides with an existing non-cancelled booking.
func conflictsWith(date string, startHour, duration int, b models.Booking) bool {
	if b.Status == models.StatusCancelled || b.Date != date {
		return false
	}
	existingStart, err := ParseSlot(b.StartTime)
	if err != nil {
		return false
	}
	dur := b.Duration
	if dur < 1 {
		dur = 1
	}
	return Overlaps(startHour, duration, existingStart, dur)
}

// SlotAvailable reports whether a booking of the given duration may start at
// startHour on date: the start must not be in the past and the interval must
// not overlap any existing non-cancelled booking on that date.
func SlotAvailable(now time.Time, date string, startHour, duration int, existing []models.Booking) bool {
	day, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	slotStart := day.Add(time.Duration(startHour) * time.Hour)
	if slotStart.Before(now) {
		return false
	}
	for _, b := range existing {
		if conflictsWith(date, startHour, duration, b) {
			return false
		}
	}
	return true
}

// AvailableSlots evaluates every grid slot on date for a booking of the given
// duration against a snapshot of existing bookings.
func AvailableSlots(now time.Time, date string, duration int, existing []models.Booking) []models.SlotInfo {
	slots := make([]models.SlotInfo, 0, CloseHour-OpenHour+1)
	for h := OpenHour; h <= CloseHour; h++ {
		slots = append(slots, models.SlotInfo{
			Time:      FormatSlot(h),
			Available: SlotAvailable(now, date, h, duration, existing),
			Price:     Price(h, duration).Total,
		})
	}
	return slots
}

// transitions is the reservation state machine. Admin overrides bypass it;
// everything else goes through CanTransition.
var transitions = map[models.BookingStatus][]models.BookingStatus{
	models.StatusPending:   {models.StatusPaid, models.StatusCancelled},
	models.StatusUnpaid:    {models.StatusPaid, models.StatusCancelled},
	models.StatusPaid:      {models.StatusCompleted, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
}

func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Elapsed reports whether the booked interval has fully passed. Reviews and
// completion are only valid for elapsed bookings.
func Elapsed(now time.Time, b models.Booking) bool {
	day, err := time.ParseInLocation(DateLayout, b.Date, now.Location())
	if err != nil {
		return false
	}
	startHour, err := ParseSlot(b.StartTime)
	if err != nil {
		return false
	}
	end := day.Add(time.Duration(startHour+b.Duration) * time.Hour)
	return end.Before(now)
}
