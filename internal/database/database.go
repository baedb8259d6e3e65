package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the slot ledger: the durable record of schedule rules, holds and
// bookings, and the source of truth for conflict detection.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewDB opens the database and creates tables if they don't exist.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode plus busy timeout so concurrent writers queue instead of
	// failing. _txlock=immediate makes every transaction take the write
	// lock up front, which serializes check-then-insert sequences: two
	// concurrent claims of the same slot cannot both pass the conflict
	// check, the loser observes the winner's row.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{
		DB:     db,
		logger: logger,
	}

	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS schedule_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scope TEXT NOT NULL CHECK (scope IN ('recurring', 'date')),
			day_of_week INTEGER NOT NULL DEFAULT 0,
			date TEXT NOT NULL DEFAULT '',
			slot TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS holds (
			id TEXT PRIMARY KEY,
			service_id TEXT NOT NULL,
			date TEXT NOT NULL,
			slot TEXT NOT NULL,
			requester_key TEXT NOT NULL,
			client_name TEXT NOT NULL,
			client_email TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			add_on BOOLEAN NOT NULL DEFAULT 0,
			total_price INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			hold_id TEXT NOT NULL,
			service_id TEXT NOT NULL,
			date TEXT NOT NULL,
			slot TEXT NOT NULL,
			client_name TEXT NOT NULL,
			client_email TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			add_on BOOLEAN NOT NULL DEFAULT 0,
			total_price INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		// One occupant per slot. Expired hold rows are purged inside the
		// same transaction before inserts, so the unique index only ever
		// sees live claims. Cancelled bookings free their slot.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_holds_slot
			ON holds(service_id, date, slot)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_holds_requester
			ON holds(requester_key)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_slot
			ON bookings(service_id, date, slot) WHERE status != 'cancelled'`,

		`CREATE INDEX IF NOT EXISTS idx_holds_expires ON holds(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_recurring
			ON schedule_rules(scope, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_date ON schedule_rules(scope, date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// withTx runs fn inside a write transaction and commits unless fn fails.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (db *DB) Close() error {
	return db.DB.Close()
}
