// Package availability computes which time slots are bookable on a date by
// merging the recurring weekly schedule with date-specific overrides.
package availability

import (
	"context"
	"fmt"
	"time"

	"arcana/internal/models"
)

// RuleSource loads the schedule rules that can affect a calendar date.
type RuleSource interface {
	RulesForDate(ctx context.Context, date string) ([]models.ScheduleRule, error)
}

// Resolver answers "which slots are blocked on this date".
type Resolver struct {
	rules RuleSource
}

// NewResolver creates a resolver over the given rule source.
func NewResolver(rules RuleSource) *Resolver {
	return &Resolver{rules: rules}
}

// BlockedSlots returns the blocked slot identifiers for a date, in slot
// universe order. Precedence: a recurring full-day rule blocks everything;
// otherwise recurring per-slot rules apply, then date-specific rules narrow
// further: a date full-day rule again blocks everything, else date per-slot
// rules are unioned in. Date rules never widen availability.
func (r *Resolver) BlockedSlots(ctx context.Context, date string) ([]string, error) {
	if _, err := time.Parse(models.DateFormat, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", models.ErrInvalidInput, date)
	}

	rules, err := r.rules.RulesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	return MergeRules(rules), nil
}

// AvailableSlots returns the complement of BlockedSlots over the universe.
func (r *Resolver) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	blocked, err := r.BlockedSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	blockedSet := make(map[string]struct{}, len(blocked))
	for _, s := range blocked {
		blockedSet[s] = struct{}{}
	}

	available := make([]string, 0, len(models.TimeSlots))
	for _, s := range models.TimeSlots {
		if _, ok := blockedSet[s]; !ok {
			available = append(available, s)
		}
	}
	return available, nil
}

// MergeRules computes the blocked set from already-loaded rules. Pure and
// synchronous; the rules are assumed pre-filtered to the target date.
func MergeRules(rules []models.ScheduleRule) []string {
	var (
		recurring = make(map[string]struct{})
		dated     = make(map[string]struct{})
		dateFull  bool
	)

	for _, rule := range rules {
		switch rule.Scope {
		case models.RuleScopeRecurring:
			if rule.FullDay() {
				// The whole day is closed every week, nothing else matters.
				return append([]string(nil), models.TimeSlots...)
			}
			recurring[rule.Slot] = struct{}{}
		case models.RuleScopeDate:
			if rule.FullDay() {
				dateFull = true
				continue
			}
			dated[rule.Slot] = struct{}{}
		}
	}

	if dateFull {
		return append([]string(nil), models.TimeSlots...)
	}

	blocked := make([]string, 0, len(recurring)+len(dated))
	for _, s := range models.TimeSlots {
		_, inRecurring := recurring[s]
		_, inDated := dated[s]
		if inRecurring || inDated {
			blocked = append(blocked, s)
		}
	}
	return blocked
}
