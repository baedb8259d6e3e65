package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arcana/internal/models"
)

// CreateHold atomically claims a slot. Inside one write transaction it
// reclaims expired hold rows touching the slot or the requester, rejects
// if the requester already has a live hold or the slot is occupied by a
// live hold or an active booking, then inserts. Losers of a concurrent
// race get models.ErrSlotTaken, never a silently overwritten hold.
func (db *DB) CreateHold(ctx context.Context, hold *models.Hold, now time.Time) error {
	if hold == nil {
		return fmt.Errorf("hold is nil")
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		// Lazy expiry: past-expiry rows are logically absent, reclaim them
		// before conflict checks so they never block a new claim.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM holds
			 WHERE expires_at <= ?
			   AND ((service_id = ? AND date = ? AND slot = ?) OR requester_key = ?)`,
			now, hold.ServiceID, hold.Date, hold.Slot, hold.RequesterKey,
		); err != nil {
			return fmt.Errorf("reclaim expired holds: %w", err)
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM holds WHERE requester_key = ? AND expires_at > ?",
			hold.RequesterKey, now,
		).Scan(&count); err != nil {
			return fmt.Errorf("check requester hold: %w", err)
		}
		if count > 0 {
			return models.ErrAlreadyHolding
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT
				(SELECT COUNT(*) FROM holds
				 WHERE service_id = ? AND date = ? AND slot = ? AND expires_at > ?)
				+
				(SELECT COUNT(*) FROM bookings
				 WHERE service_id = ? AND date = ? AND slot = ? AND status != 'cancelled')`,
			hold.ServiceID, hold.Date, hold.Slot, now,
			hold.ServiceID, hold.Date, hold.Slot,
		).Scan(&count); err != nil {
			return fmt.Errorf("check slot occupancy: %w", err)
		}
		if count > 0 {
			return models.ErrSlotTaken
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO holds (
				id, service_id, date, slot, requester_key,
				client_name, client_email, notes, add_on, total_price,
				created_at, expires_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			hold.ID, hold.ServiceID, hold.Date, hold.Slot, hold.RequesterKey,
			hold.ClientName, hold.ClientEmail, hold.Notes, hold.AddOn, hold.TotalPrice,
			hold.CreatedAt, hold.ExpiresAt,
		)
		if err != nil {
			// Unique index backstop: treat a constraint hit as losing the race.
			if isUniqueConstraintErr(err) {
				return models.ErrSlotTaken
			}
			return fmt.Errorf("insert hold: %w", err)
		}
		return nil
	})
}

// GetHold returns a hold by id. A row whose expiry has passed is treated as
// absent and deleted on the way out, so every read path reclaims the slot.
func (db *DB) GetHold(ctx context.Context, id string, now time.Time) (*models.Hold, error) {
	hold, err := db.getHoldRow(ctx, id)
	if err != nil {
		return nil, err
	}
	if hold.Expired(now) {
		if _, err := db.ExecContext(ctx, "DELETE FROM holds WHERE id = ? AND expires_at <= ?", id, now); err != nil {
			db.logger.Warn().Err(err).Str("hold_id", id).Msg("failed to reclaim expired hold")
		}
		return nil, models.ErrHoldNotFound
	}
	return hold, nil
}

// ActiveHoldByRequester returns the requester's live hold, if any.
func (db *DB) ActiveHoldByRequester(ctx context.Context, requesterKey string, now time.Time) (*models.Hold, error) {
	row := db.QueryRowContext(ctx,
		holdSelect+" WHERE requester_key = ? AND expires_at > ?",
		requesterKey, now,
	)
	hold, err := scanHold(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return hold, nil
}

// DeleteHold releases a hold. Deleting a missing, expired or already
// released hold is a no-op success so callers can release defensively.
func (db *DB) DeleteHold(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM holds WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete hold: %w", err)
	}
	return nil
}

// DeleteExpiredHolds evicts every hold whose expiry has passed. This is a
// memory/performance optimization; correctness never depends on it running.
func (db *DB) DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM holds WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("delete expired holds: %w", err)
	}
	return res.RowsAffected()
}

const holdSelect = `SELECT id, service_id, date, slot, requester_key,
	client_name, client_email, notes, add_on, total_price, created_at, expires_at
	FROM holds`

func (db *DB) getHoldRow(ctx context.Context, id string) (*models.Hold, error) {
	row := db.QueryRowContext(ctx, holdSelect+" WHERE id = ?", id)
	hold, err := scanHold(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	return hold, nil
}

func scanHold(row rowScanner) (*models.Hold, error) {
	var h models.Hold
	if err := row.Scan(
		&h.ID, &h.ServiceID, &h.Date, &h.Slot, &h.RequesterKey,
		&h.ClientName, &h.ClientEmail, &h.Notes, &h.AddOn, &h.TotalPrice,
		&h.CreatedAt, &h.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &h, nil
}
