package models

import "errors"

// Reservation outcomes that are routine results of contention or timing.
// They are returned as values, matched with errors.Is, and mapped to
// distinct user-facing responses; none of them is an unexpected error.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSlotBlocked     = errors.New("slot blocked by schedule")
	ErrSlotTaken       = errors.New("slot already taken")
	ErrAlreadyHolding  = errors.New("requester already has an active hold")
	ErrHoldExpired     = errors.New("hold expired")
	ErrHoldNotFound    = errors.New("hold not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrRuleNotFound    = errors.New("schedule rule not found")
	ErrUnknownService  = errors.New("unknown service")
)
