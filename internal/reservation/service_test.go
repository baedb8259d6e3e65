package reservation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arcana/internal/availability"
	"arcana/internal/catalog"
	"arcana/internal/config"
	"arcana/internal/database"
	"arcana/internal/models"
)

// testClock is a settable clock so expiry can be simulated without sleeping.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*Service, *testClock, *database.DB) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cat := catalog.NewStatic([]config.ServiceEntry{
		{ID: "tarot-reading", Name: "Tarot Reading", BasePrice: 6500, AddOnPrice: 1500},
		{ID: "palm-reading", Name: "Palm Reading", BasePrice: 4500},
	})

	clk := newTestClock(time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC))
	svc := NewService(db, availability.NewResolver(db), cat, clk, &logger)
	return svc, clk, db
}

func holdInput(requester, slot string) CreateHoldInput {
	return CreateHoldInput{
		RequesterKey: requester,
		ServiceID:    "tarot-reading",
		Date:         "2025-06-01",
		Slot:         slot,
		ClientName:   "Ada",
		ClientEmail:  "ada@example.com",
	}
}

func TestCreateHold_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreateHoldInput)
		wantErr error
	}{
		{"missing requester", func(in *CreateHoldInput) { in.RequesterKey = "" }, models.ErrInvalidInput},
		{"missing service", func(in *CreateHoldInput) { in.ServiceID = "" }, models.ErrInvalidInput},
		{"bad date", func(in *CreateHoldInput) { in.Date = "01.06.2025" }, models.ErrInvalidInput},
		{"unknown slot", func(in *CreateHoldInput) { in.Slot = "3:33 PM" }, models.ErrInvalidInput},
		{"unknown service", func(in *CreateHoldInput) { in.ServiceID = "crystal-ball" }, models.ErrUnknownService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := holdInput("visitor-a", "4:00 PM")
			tt.mutate(&in)
			_, err := svc.CreateHold(ctx, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateHold_PriceAndTTL(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()

	in := holdInput("visitor-a", "4:00 PM")
	in.AddOn = true
	hold, err := svc.CreateHold(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, int64(8000), hold.TotalPrice) // base 6500 + add-on 1500
	assert.Equal(t, clk.Now().Add(10*time.Minute), hold.ExpiresAt)
	assert.NotEmpty(t, hold.ID)
}

func TestCreateHold_AlreadyHolding(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)

	// A second hold is rejected regardless of target slot.
	_, err = svc.CreateHold(ctx, holdInput("visitor-a", "2:00 PM"))
	assert.ErrorIs(t, err, models.ErrAlreadyHolding)

	in := holdInput("visitor-a", "6:00 PM")
	in.ServiceID = "palm-reading"
	in.Date = "2025-06-02"
	_, err = svc.CreateHold(ctx, in)
	assert.ErrorIs(t, err, models.ErrAlreadyHolding)
}

func TestCreateHold_SlotBlocked(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.CreateRule(ctx, &models.ScheduleRule{
		Scope: models.RuleScopeDate, Date: "2025-06-01", Slot: "4:00 PM", Reason: "maintenance",
	}))

	_, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	assert.ErrorIs(t, err, models.ErrSlotBlocked)

	// Other slots on the same date stay bookable.
	_, err = svc.CreateHold(ctx, holdInput("visitor-a", "2:00 PM"))
	assert.NoError(t, err)
}

func TestCreateHold_SlotTaken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)

	// Requester B asks for the identical triple.
	_, err = svc.CreateHold(ctx, holdInput("visitor-b", "4:00 PM"))
	assert.ErrorIs(t, err, models.ErrSlotTaken)
}

func TestCreateHold_ConcurrentClaimsSameSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const claimants = 8
	var wg sync.WaitGroup
	errs := make([]error, claimants)

	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := holdInput(string(rune('a'+i))+"-visitor", "4:00 PM")
			_, errs[i] = svc.CreateHold(ctx, in)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent claim must win")
}

func TestReleaseHold_Idempotent(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()

	hold, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)

	require.NoError(t, svc.ReleaseHold(ctx, hold.ID))
	require.NoError(t, svc.ReleaseHold(ctx, hold.ID))
	require.NoError(t, svc.ReleaseHold(ctx, "never-existed"))

	// Releasing after natural expiry is also a no-op success.
	hold2, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)
	clk.Advance(11 * time.Minute)
	require.NoError(t, svc.ReleaseHold(ctx, hold2.ID))
}

func TestReleaseHold_FreesSlotForOthers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	hold, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseHold(ctx, hold.ID))

	_, err = svc.CreateHold(ctx, holdInput("visitor-b", "4:00 PM"))
	assert.NoError(t, err)
}

func TestGetHold_LazyExpiry(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()

	hold, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)

	got, err := svc.GetHold(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, hold.ID, got.ID)

	clk.Advance(10*time.Minute + time.Second)
	_, err = svc.GetHold(ctx, hold.ID)
	assert.ErrorIs(t, err, models.ErrHoldNotFound)
}

func TestConfirm_RoundTrip(t *testing.T) {
	svc, clk, _ := newTestService(t)
	ctx := context.Background()

	in := holdInput("visitor-a", "4:00 PM")
	in.AddOn = true
	in.Notes = "prefers the quiet room"
	hold, err := svc.CreateHold(ctx, in)
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	booking, err := svc.Confirm(ctx, hold.ID)
	require.NoError(t, err)

	assert.Equal(t, hold.ServiceID, booking.ServiceID)
	assert.Equal(t, hold.Date, booking.Date)
	assert.Equal(t, hold.Slot, booking.Slot)
	assert.Equal(t, hold.TotalPrice, booking.TotalPrice)
	assert.Equal(t, hold.Notes, booking.Notes)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

	// The converted hold is gone.
	_, err = svc.GetHold(ctx, hold.ID)
	assert.ErrorIs(t, err, models.ErrHoldNotFound)
}

func TestConfirm_AfterExpiry(t *testing.T) {
	svc, clk, db := newTestService(t)
	ctx := context.Background()

	hold, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)

	// Checkout stalls past the window; confirmation must re-check now.
	clk.Advance(11 * time.Minute)
	_, err = svc.Confirm(ctx, hold.ID)
	assert.ErrorIs(t, err, models.ErrHoldExpired)

	bookings, err := db.ListBookings(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Empty(t, bookings, "no booking may exist after a rejected confirm")

	// The slot is bookable again immediately.
	_, err = svc.CreateHold(ctx, holdInput("visitor-b", "4:00 PM"))
	assert.NoError(t, err)
}

func TestConfirm_UnknownHold(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Confirm(context.Background(), "never-existed")
	assert.ErrorIs(t, err, models.ErrHoldNotFound)
}

func TestSweeper_EvictsExpiredHolds(t *testing.T) {
	svc, clk, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateHold(ctx, holdInput("visitor-a", "4:00 PM"))
	require.NoError(t, err)
	clk.Advance(11 * time.Minute)

	logger := zerolog.Nop()
	sweeper := NewSweeper(db, clk, 10*time.Second, &logger)
	sweeper.sweep(ctx)

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM holds").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWithReadRetry_StopsOnDomainErr(t *testing.T) {
	calls := 0
	err := withReadRetry(context.Background(), func() error {
		calls++
		return models.ErrHoldNotFound
	})
	assert.ErrorIs(t, err, models.ErrHoldNotFound)
	assert.Equal(t, 1, calls, "domain outcomes are never retried")
}

func TestWithReadRetry_RetriesTransientFailure(t *testing.T) {
	calls := 0
	err := withReadRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}
