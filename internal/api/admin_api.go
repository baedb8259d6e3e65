package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"arcana/internal/metrics"
	"arcana/internal/models"
)

// CreateRuleRequest is the request body for POST /api/v1/admin/rules.
type CreateRuleRequest struct {
	Scope     string `json:"scope"`                 // recurring | date
	DayOfWeek int    `json:"day_of_week,omitempty"` // 0=Sunday..6=Saturday
	Date      string `json:"date,omitempty"`        // YYYY-MM-DD
	Slot      string `json:"slot,omitempty"`        // empty = entire day
	Reason    string `json:"reason,omitempty"`
}

func (r CreateRuleRequest) validate() (string, bool) {
	switch r.Scope {
	case models.RuleScopeRecurring:
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			return "day_of_week must be between 0 and 6", false
		}
	case models.RuleScopeDate:
		if _, err := time.Parse(models.DateFormat, r.Date); err != nil {
			return "invalid date format; expected YYYY-MM-DD", false
		}
	default:
		return "scope must be 'recurring' or 'date'", false
	}
	if r.Slot != "" && !models.IsValidSlot(r.Slot) {
		return "unknown time slot", false
	}
	return "", true
}

// handleRules lists or creates schedule rules.
// GET|POST /api/v1/admin/rules
func (s *HTTPServer) handleRules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_rules")

	switch r.Method {
	case http.MethodGet:
		rules, err := s.db.ListRules(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("list rules failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if rules == nil {
			rules = []models.ScheduleRule{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"rules": rules})

	case http.MethodPost:
		var req CreateRuleRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if msg, ok := req.validate(); !ok {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		rule := &models.ScheduleRule{
			Scope:     req.Scope,
			DayOfWeek: req.DayOfWeek,
			Date:      req.Date,
			Slot:      req.Slot,
			Reason:    req.Reason,
		}
		if err := s.db.CreateRule(r.Context(), rule); err != nil {
			s.logger.Error().Err(err).Msg("create rule failed")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		s.resolver.Invalidate(r.Context(), rule.Scope, rule.Date)
		writeJSON(w, http.StatusCreated, rule)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRuleByID deletes a schedule rule.
// DELETE /api/v1/admin/rules/{id}
func (s *HTTPServer) handleRuleByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_rule")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use DELETE")
		return
	}

	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/admin/rules/"), "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	rule, err := s.db.GetRule(r.Context(), id)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	if err := s.db.DeleteRule(r.Context(), id); err != nil {
		writeReservationError(w, err)
		return
	}

	// Removing a rule changes availability for the dates it covered.
	s.resolver.Invalidate(r.Context(), rule.Scope, rule.Date)
	w.WriteHeader(http.StatusNoContent)
}

// handleBookings lists bookings, optionally filtered by date.
// GET /api/v1/admin/bookings?date=YYYY-MM-DD
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_bookings")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(models.DateFormat, date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
	}

	bookings, err := s.db.ListBookings(r.Context(), date)
	if err != nil {
		s.logger.Error().Err(err).Msg("list bookings failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// UpdateStatusRequest is the request body for a booking status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// handleBookingByID handles booking subresources:
//
//	GET  /api/v1/admin/bookings/{id}
//	POST /api/v1/admin/bookings/{id}/status
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_booking")

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/admin/bookings/"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodGet:
		booking, err := s.db.GetBooking(r.Context(), parts[0])
		if err != nil {
			writeReservationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		var req UpdateStatusRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.db.UpdateBookingStatus(r.Context(), parts[0], req.Status); err != nil {
			writeReservationError(w, err)
			return
		}
		booking, err := s.db.GetBooking(r.Context(), parts[0])
		if err != nil {
			writeReservationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}
