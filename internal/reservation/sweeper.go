package reservation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"arcana/internal/clock"
	"arcana/internal/database"
	"arcana/internal/metrics"
)

// Sweeper proactively evicts expired hold rows on an interval. It is purely
// a memory/performance optimization: every read path already treats
// past-expiry holds as absent, so correctness never depends on it running.
type Sweeper struct {
	db       *database.DB
	clock    clock.Clock
	interval time.Duration
	logger   *zerolog.Logger
}

// NewSweeper creates a sweeper with the given interval.
func NewSweeper(db *database.DB, clk clock.Clock, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Sweeper{
		db:       db,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("hold sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("hold sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.db.DeleteExpiredHolds(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if deleted > 0 {
		metrics.AddHoldsSwept(deleted)
		s.logger.Debug().Int64("deleted", deleted).Msg("expired holds evicted")
	}
}
