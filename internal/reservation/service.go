// Package reservation implements the hold lifecycle: time-boxed claims on
// appointment slots, their release, and their conversion into bookings.
package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"arcana/internal/catalog"
	"arcana/internal/clock"
	"arcana/internal/database"
	"arcana/internal/metrics"
	"arcana/internal/models"
)

// DefaultHoldTTL is the fixed hold lifetime. It is not extended by user
// activity; expiry is a pure function of the stored timestamp.
const DefaultHoldTTL = 10 * time.Minute

// SlotChecker answers whether slots are administratively blocked.
type SlotChecker interface {
	BlockedSlots(ctx context.Context, date string) ([]string, error)
}

// Service coordinates holds and bookings over the slot ledger.
type Service struct {
	db      *database.DB
	blocked SlotChecker
	catalog catalog.PriceLookup
	clock   clock.Clock
	logger  *zerolog.Logger
	holdTTL time.Duration
}

// Option configures the service.
type Option func(*Service)

// WithHoldTTL overrides the default hold lifetime.
func WithHoldTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// NewService wires the reservation engine together.
func NewService(db *database.DB, blocked SlotChecker, cat catalog.PriceLookup, clk clock.Clock, logger *zerolog.Logger, opts ...Option) *Service {
	svc := &Service{
		db:      db,
		blocked: blocked,
		catalog: cat,
		clock:   clk,
		logger:  logger,
		holdTTL: DefaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateHoldInput carries the visitor's claim request.
type CreateHoldInput struct {
	RequesterKey string
	ServiceID    string
	Date         string // YYYY-MM-DD
	Slot         string
	ClientName   string
	ClientEmail  string
	Notes        string
	AddOn        bool
}

func (in CreateHoldInput) validate() error {
	if in.RequesterKey == "" {
		return fmt.Errorf("%w: requester key is required", models.ErrInvalidInput)
	}
	if in.ServiceID == "" {
		return fmt.Errorf("%w: service is required", models.ErrInvalidInput)
	}
	if _, err := time.Parse(models.DateFormat, in.Date); err != nil {
		return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", models.ErrInvalidInput, in.Date)
	}
	if !models.IsValidSlot(in.Slot) {
		return fmt.Errorf("%w: unknown time slot %q", models.ErrInvalidInput, in.Slot)
	}
	return nil
}

// CreateHold claims a slot for the requester. Rejections are checked in a
// fixed order, each with its own reason: the requester already holding a
// live hold, the slot being administratively blocked, and the slot being
// occupied by another live hold or a booking.
func (s *Service) CreateHold(ctx context.Context, in CreateHoldInput) (*models.Hold, error) {
	if err := in.validate(); err != nil {
		metrics.IncHoldRejected("invalid_input")
		return nil, err
	}

	svc, ok := s.catalog.Lookup(in.ServiceID)
	if !ok {
		metrics.IncHoldRejected("unknown_service")
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownService, in.ServiceID)
	}

	now := s.clock.Now()

	if _, err := s.db.ActiveHoldByRequester(ctx, in.RequesterKey, now); err == nil {
		metrics.IncHoldRejected("already_holding")
		return nil, models.ErrAlreadyHolding
	} else if err != models.ErrHoldNotFound {
		return nil, fmt.Errorf("check requester: %w", err)
	}

	blocked, err := s.blocked.BlockedSlots(ctx, in.Date)
	if err != nil {
		return nil, err
	}
	for _, slot := range blocked {
		if slot == in.Slot {
			metrics.IncHoldRejected("slot_blocked")
			return nil, models.ErrSlotBlocked
		}
	}

	hold := &models.Hold{
		ID:           uuid.NewString(),
		ServiceID:    in.ServiceID,
		Date:         in.Date,
		Slot:         in.Slot,
		RequesterKey: in.RequesterKey,
		ClientName:   in.ClientName,
		ClientEmail:  in.ClientEmail,
		Notes:        in.Notes,
		AddOn:        in.AddOn,
		TotalPrice:   svc.Price(in.AddOn),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.holdTTL),
	}

	if err := s.db.CreateHold(ctx, hold, now); err != nil {
		switch err {
		case models.ErrAlreadyHolding:
			metrics.IncHoldRejected("already_holding")
		case models.ErrSlotTaken:
			metrics.IncHoldRejected("slot_taken")
		}
		return nil, err
	}

	metrics.IncHoldCreated()
	s.logger.Debug().
		Str("hold_id", hold.ID).
		Str("service", hold.ServiceID).
		Str("date", hold.Date).
		Str("slot", hold.Slot).
		Time("expires_at", hold.ExpiresAt).
		Msg("hold created")
	return hold, nil
}

// GetHold returns a hold by id, treating past-expiry rows as absent.
// Reads are retried on transient storage failures.
func (s *Service) GetHold(ctx context.Context, holdID string) (*models.Hold, error) {
	if holdID == "" {
		return nil, fmt.Errorf("%w: hold id is required", models.ErrInvalidInput)
	}

	var hold *models.Hold
	err := withReadRetry(ctx, func() error {
		var err error
		hold, err = s.db.GetHold(ctx, holdID, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// ReleaseHold abandons a hold. Idempotent: releasing a missing, expired or
// already released hold succeeds, so clients and expiry handlers can call
// it defensively.
func (s *Service) ReleaseHold(ctx context.Context, holdID string) error {
	if holdID == "" {
		return fmt.Errorf("%w: hold id is required", models.ErrInvalidInput)
	}
	if err := s.db.DeleteHold(ctx, holdID); err != nil {
		return err
	}
	metrics.IncHoldReleased()
	s.logger.Debug().Str("hold_id", holdID).Msg("hold released")
	return nil
}

// Confirm converts a still-valid hold into a booking. Expiry is re-checked
// at this moment rather than trusting any countdown a client displayed,
// and the conversion is atomic: on any failure no booking exists and an
// expired hold's slot is already reclaimed.
func (s *Service) Confirm(ctx context.Context, holdID string) (*models.Booking, error) {
	if holdID == "" {
		return nil, fmt.Errorf("%w: hold id is required", models.ErrInvalidInput)
	}

	booking, err := s.db.ConfirmHold(ctx, holdID, uuid.NewString(), s.clock.Now())
	if err != nil {
		switch err {
		case models.ErrHoldNotFound:
			metrics.IncConfirmRejected("not_found")
		case models.ErrHoldExpired:
			metrics.IncConfirmRejected("expired")
		}
		return nil, err
	}

	metrics.IncBookingConfirmed()
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("hold_id", holdID).
		Str("service", booking.ServiceID).
		Str("date", booking.Date).
		Str("slot", booking.Slot).
		Msg("booking confirmed")
	return booking, nil
}
