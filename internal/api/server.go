package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"arcana/internal/availability"
	"arcana/internal/config"
	"arcana/internal/database"
	"arcana/internal/models"
	"arcana/internal/reservation"
)

// HTTPServer exposes the reservation engine over HTTP.
type HTTPServer struct {
	server   *http.Server
	db       *database.DB
	svc      *reservation.Service
	resolver *availability.CachedResolver
	logger   *zerolog.Logger
	apiKey   string
	limiter  *rate.Limiter
}

// NewHTTPServer builds the server with routing and middleware.
func NewHTTPServer(cfg *config.Config, db *database.DB, svc *reservation.Service, resolver *availability.CachedResolver, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		db:       db,
		svc:      svc,
		resolver: resolver,
		logger:   logger,
		apiKey:   cfg.Server.AdminAPIKey,
	}

	if cfg.Server.RateLimit > 0 {
		burst := cfg.Server.RateBurst
		if burst <= 0 {
			burst = cfg.Server.RateLimit
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/slots", s.rateLimited(s.handleBlockedSlots))
	mux.HandleFunc("/api/v1/holds", s.rateLimited(s.handleHolds))
	mux.HandleFunc("/api/v1/holds/", s.rateLimited(s.handleHoldByID))
	mux.HandleFunc("/api/v1/admin/rules", s.requireAPIKey(s.handleRules))
	mux.HandleFunc("/api/v1/admin/rules/", s.requireAPIKey(s.handleRuleByID))
	mux.HandleFunc("/api/v1/admin/bookings", s.requireAPIKey(s.handleBookings))
	mux.HandleFunc("/api/v1/admin/bookings/", s.requireAPIKey(s.handleBookingByID))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.logged(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler (tests).
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("API server started")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *HTTPServer) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

func (s *HTTPServer) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeReservationError maps the typed reservation outcomes onto statuses.
// Each is distinguishable so the UI can tell "pick another time" from "you
// already have one in progress" from "your window expired".
func writeReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownService):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrAlreadyHolding):
		writeError(w, http.StatusConflict, "you already have a pending reservation")
	case errors.Is(err, models.ErrSlotBlocked):
		writeError(w, http.StatusConflict, "this time is not available for booking")
	case errors.Is(err, models.ErrSlotTaken):
		writeError(w, http.StatusConflict, "this slot is no longer available")
	case errors.Is(err, models.ErrHoldExpired):
		writeError(w, http.StatusGone, "your reservation window expired, please restart checkout")
	case errors.Is(err, models.ErrHoldNotFound),
		errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
