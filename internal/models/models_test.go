package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSlot(t *testing.T) {
	for _, slot := range TimeSlots {
		assert.True(t, IsValidSlot(slot), slot)
	}

	for _, slot := range []string{"", "10:00", "10:00 am", "8:00 PM", "2:00PM"} {
		assert.False(t, IsValidSlot(slot), slot)
	}
}

func TestHold_ExpiryIsExclusive(t *testing.T) {
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hold := Hold{ExpiresAt: expires}

	// Live strictly before the boundary, expired at and after it.
	assert.False(t, hold.Expired(expires.Add(-time.Second)))
	assert.True(t, hold.Expired(expires))
	assert.True(t, hold.Expired(expires.Add(time.Second)))
}

func TestHold_Remaining(t *testing.T) {
	expires := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hold := Hold{ExpiresAt: expires}

	assert.Equal(t, 10*time.Minute, hold.Remaining(expires.Add(-10*time.Minute)))
	assert.Equal(t, time.Duration(0), hold.Remaining(expires))
	assert.Equal(t, time.Duration(0), hold.Remaining(expires.Add(time.Hour)))
}

func TestBooking_Active(t *testing.T) {
	for status, active := range map[string]bool{
		BookingStatusConfirmed: true,
		BookingStatusCompleted: true,
		BookingStatusCancelled: false,
	} {
		b := Booking{Status: status}
		assert.Equal(t, active, b.Active(), status)
	}
}

func TestScheduleRule_FullDay(t *testing.T) {
	full := ScheduleRule{Scope: RuleScopeRecurring, DayOfWeek: 2}
	assert.True(t, full.FullDay())

	partial := ScheduleRule{Scope: RuleScopeRecurring, DayOfWeek: 2, Slot: "2:00 PM"}
	assert.False(t, partial.FullDay())
}
