package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arcana/internal/models"
)

// CreateRule inserts a schedule rule. Creating a full-day rule removes any
// per-slot rules already present in the same scope: a day cannot be fully
// blocked and carry independent per-slot blocks at the same time.
func (db *DB) CreateRule(ctx context.Context, rule *models.ScheduleRule) error {
	if rule == nil {
		return fmt.Errorf("rule is nil")
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if rule.FullDay() {
			var err error
			switch rule.Scope {
			case models.RuleScopeRecurring:
				_, err = tx.ExecContext(ctx,
					`DELETE FROM schedule_rules
					 WHERE scope = ? AND day_of_week = ? AND slot != ''`,
					models.RuleScopeRecurring, rule.DayOfWeek,
				)
			case models.RuleScopeDate:
				_, err = tx.ExecContext(ctx,
					`DELETE FROM schedule_rules
					 WHERE scope = ? AND date = ? AND slot != ''`,
					models.RuleScopeDate, rule.Date,
				)
			}
			if err != nil {
				return fmt.Errorf("remove superseded rules: %w", err)
			}
		}

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_rules (scope, day_of_week, date, slot, reason, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rule.Scope, rule.DayOfWeek, rule.Date, rule.Slot, rule.Reason, now,
		)
		if err != nil {
			return fmt.Errorf("insert rule: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("rule id: %w", err)
		}
		rule.ID = id
		rule.CreatedAt = now
		return nil
	})
}

// DeleteRule removes a rule by id.
func (db *DB) DeleteRule(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM schedule_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrRuleNotFound
	}
	return nil
}

// GetRule returns a rule by id.
func (db *DB) GetRule(ctx context.Context, id int64) (*models.ScheduleRule, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, scope, day_of_week, date, slot, reason, created_at
		 FROM schedule_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules returns all schedule rules ordered by scope and creation.
func (db *DB) ListRules(ctx context.Context) ([]models.ScheduleRule, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, scope, day_of_week, date, slot, reason, created_at
		 FROM schedule_rules ORDER BY scope, day_of_week, date, id`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []models.ScheduleRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

// RulesForDate returns the rules that can affect a calendar date: recurring
// rules for its day of week plus date rules for that exact date.
func (db *DB) RulesForDate(ctx context.Context, date string) ([]models.ScheduleRule, error) {
	parsed, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", models.ErrInvalidInput, date)
	}
	dayOfWeek := int(parsed.Weekday())

	rows, err := db.QueryContext(ctx,
		`SELECT id, scope, day_of_week, date, slot, reason, created_at
		 FROM schedule_rules
		 WHERE (scope = ? AND day_of_week = ?) OR (scope = ? AND date = ?)
		 ORDER BY id`,
		models.RuleScopeRecurring, dayOfWeek, models.RuleScopeDate, date,
	)
	if err != nil {
		return nil, fmt.Errorf("rules for date: %w", err)
	}
	defer rows.Close()

	var rules []models.ScheduleRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.ScheduleRule, error) {
	var r models.ScheduleRule
	if err := row.Scan(
		&r.ID, &r.Scope, &r.DayOfWeek, &r.Date, &r.Slot, &r.Reason, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}
