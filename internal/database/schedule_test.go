package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcana/internal/models"
)

func TestCreateRule_FullDaySupersedesSlotRules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Two per-slot rules for Tuesdays.
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeRecurring, DayOfWeek: 2, Slot: "10:00 AM",
	}))
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeRecurring, DayOfWeek: 2, Slot: "2:00 PM",
	}))
	// Unrelated day and scope, must survive.
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeRecurring, DayOfWeek: 3, Slot: "2:00 PM",
	}))
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-12-23", Slot: "4:00 PM",
	}))

	// Full-day rule for Tuesdays removes the finer Tuesday rules.
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeRecurring, DayOfWeek: 2, Reason: "closed on Tuesdays",
	}))

	rules, err := db.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	var tuesdayRules []models.ScheduleRule
	for _, r := range rules {
		if r.Scope == models.RuleScopeRecurring && r.DayOfWeek == 2 {
			tuesdayRules = append(tuesdayRules, r)
		}
	}
	require.Len(t, tuesdayRules, 1)
	assert.True(t, tuesdayRules[0].FullDay())
}

func TestCreateRule_DateFullDaySupersedesSameDateOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-12-24", Slot: "2:00 PM",
	}))
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-12-26", Slot: "2:00 PM",
	}))

	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-12-24", Reason: "holiday eve",
	}))

	rules, err := db.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	for _, r := range rules {
		if r.Date == "2025-12-24" {
			assert.True(t, r.FullDay())
		}
		if r.Date == "2025-12-26" {
			assert.Equal(t, "2:00 PM", r.Slot)
		}
	}
}

func TestRulesForDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// 2025-12-23 is a Tuesday (weekday 2).
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeRecurring, DayOfWeek: 2, Slot: "10:00 AM",
	}))
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-12-23", Slot: "4:00 PM",
	}))
	// Different weekday and date, must be excluded.
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeRecurring, DayOfWeek: 5, Slot: "10:00 AM",
	}))
	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-12-30", Slot: "4:00 PM",
	}))

	rules, err := db.RulesForDate(ctx, "2025-12-23")
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = db.RulesForDate(ctx, "23.12.2025")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDeleteRule(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rule := &models.ScheduleRule{Scope: models.RuleScopeRecurring, DayOfWeek: 1, Slot: "12:00 PM"}
	require.NoError(t, db.CreateRule(ctx, rule))
	require.NotZero(t, rule.ID)

	require.NoError(t, db.DeleteRule(ctx, rule.ID))
	assert.ErrorIs(t, db.DeleteRule(ctx, rule.ID), models.ErrRuleNotFound)

	_, err := db.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, models.ErrRuleNotFound)
}
