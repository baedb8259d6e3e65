package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arcana/internal/models"
)

// ConfirmHold converts a still-valid hold into a booking: the hold row is
// deleted and the booking inserted in one transaction, so no partial
// outcome is observable even if the process crashes between the writes.
// Expiry is re-validated at the moment of conversion, not when the caller
// started checkout.
func (db *DB) ConfirmHold(ctx context.Context, holdID, bookingID string, now time.Time) (*models.Booking, error) {
	var booking *models.Booking

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, holdSelect+" WHERE id = ?", holdID)
		hold, err := scanHold(row)
		if err == sql.ErrNoRows {
			return models.ErrHoldNotFound
		}
		if err != nil {
			return fmt.Errorf("load hold: %w", err)
		}

		if hold.Expired(now) {
			// Reclaim the slot; the caller is told the window closed.
			if _, err := tx.ExecContext(ctx, "DELETE FROM holds WHERE id = ?", holdID); err != nil {
				return fmt.Errorf("reclaim expired hold: %w", err)
			}
			return models.ErrHoldExpired
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM holds WHERE id = ?", holdID); err != nil {
			return fmt.Errorf("remove hold: %w", err)
		}

		b := &models.Booking{
			ID:          bookingID,
			HoldID:      hold.ID,
			ServiceID:   hold.ServiceID,
			Date:        hold.Date,
			Slot:        hold.Slot,
			ClientName:  hold.ClientName,
			ClientEmail: hold.ClientEmail,
			Notes:       hold.Notes,
			AddOn:       hold.AddOn,
			TotalPrice:  hold.TotalPrice,
			Status:      models.BookingStatusConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (
				id, hold_id, service_id, date, slot,
				client_name, client_email, notes, add_on, total_price,
				status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.HoldID, b.ServiceID, b.Date, b.Slot,
			b.ClientName, b.ClientEmail, b.Notes, b.AddOn, b.TotalPrice,
			b.Status, b.CreatedAt, b.UpdatedAt,
		); err != nil {
			if isUniqueConstraintErr(err) {
				return models.ErrSlotTaken
			}
			return fmt.Errorf("insert booking: %w", err)
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetBooking returns a booking by id.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, bookingSelect+" WHERE id = ?", id)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ListBookings returns bookings, optionally filtered by date, newest first.
func (db *DB) ListBookings(ctx context.Context, date string) ([]models.Booking, error) {
	query := bookingSelect
	var args []any
	if date != "" {
		query += " WHERE date = ?"
		args = append(args, date)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// UpdateBookingStatus applies an administrative status transition. The
// booking's slot identity never changes; cancelling frees the slot because
// occupancy checks skip cancelled bookings.
func (db *DB) UpdateBookingStatus(ctx context.Context, id, status string) error {
	if !models.IsValidBookingStatus(status) {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}

	res, err := db.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrBookingNotFound
	}
	return nil
}

const bookingSelect = `SELECT id, hold_id, service_id, date, slot,
	client_name, client_email, notes, add_on, total_price, status, created_at, updated_at
	FROM bookings`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	if err := row.Scan(
		&b.ID, &b.HoldID, &b.ServiceID, &b.Date, &b.Slot,
		&b.ClientName, &b.ClientEmail, &b.Notes, &b.AddOn, &b.TotalPrice,
		&b.Status, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
