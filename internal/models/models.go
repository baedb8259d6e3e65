package models

import "time"

// TimeSlots is the fixed universe of bookable appointment times, in display
// order. Availability and conflict checks operate over exactly this set.
var TimeSlots = []string{
	"10:00 AM",
	"12:00 PM",
	"2:00 PM",
	"4:00 PM",
	"6:00 PM",
}

// IsValidSlot reports whether slot belongs to the fixed slot universe.
func IsValidSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Hold is a visitor's temporary claim on a (service, date, slot) triple.
// It is destroyed by explicit release, by confirmation (converted into a
// Booking), or logically once ExpiresAt has passed: every read path treats
// a past-expiry row as absent, whether or not the sweeper removed it yet.
type Hold struct {
	ID           string    `json:"id"`
	ServiceID    string    `json:"service_id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Slot         string    `json:"slot"` // e.g. "2:00 PM"
	RequesterKey string    `json:"-"`    // opaque session key, never exposed
	ClientName   string    `json:"client_name"`
	ClientEmail  string    `json:"client_email"`
	Notes        string    `json:"notes,omitempty"`
	AddOn        bool      `json:"add_on"`
	TotalPrice   int64     `json:"total_price"` // cents
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the hold is logically absent at the given instant.
func (h *Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// Remaining returns the time left before expiry, floored at zero.
func (h *Hold) Remaining(now time.Time) time.Duration {
	if h.Expired(now) {
		return 0
	}
	return h.ExpiresAt.Sub(now)
}

// Booking statuses. A booking is created as confirmed; the remaining
// statuses are administrative transitions that never change the booking's
// slot identity. A cancelled booking frees its slot.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// IsValidBookingStatus reports whether s is an allowed booking status.
func IsValidBookingStatus(s string) bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is the durable, terminal record produced by confirming a hold.
// Slot, service and detail fields mirror the hold it was created from.
type Booking struct {
	ID          string    `json:"id"`
	HoldID      string    `json:"hold_id"`
	ServiceID   string    `json:"service_id"`
	Date        string    `json:"date"`
	Slot        string    `json:"slot"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	Notes       string    `json:"notes,omitempty"`
	AddOn       bool      `json:"add_on"`
	TotalPrice  int64     `json:"total_price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Active reports whether the booking still occupies its slot.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}

// ScheduleRule scopes.
const (
	RuleScopeRecurring = "recurring"
	RuleScopeDate      = "date"
)

// ScheduleRule removes slots from availability. A recurring rule applies to
// a day of week indefinitely; a date rule applies to one calendar date and
// takes precedence over recurring rules. An empty Slot means the entire day
// is blocked; creating a full-day rule removes any per-slot rules already
// present in the same scope.
type ScheduleRule struct {
	ID        int64     `json:"id"`
	Scope     string    `json:"scope"`                // recurring | date
	DayOfWeek int       `json:"day_of_week"`          // 0=Sunday..6=Saturday, recurring only
	Date      string    `json:"date,omitempty"`       // YYYY-MM-DD, date scope only
	Slot      string    `json:"slot,omitempty"`       // empty = full day
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FullDay reports whether the rule blocks the entire day in its scope.
func (r *ScheduleRule) FullDay() bool {
	return r.Slot == ""
}
