package api

import (
	"net/http"

	"arcana/internal/metrics"
	"arcana/internal/models"
)

// SlotsResponse is the response for GET /api/v1/slots.
type SlotsResponse struct {
	Date           string   `json:"date"`
	BlockedSlots   []string `json:"blocked_slots"`
	AvailableSlots []string `json:"available_slots"`
}

// handleBlockedSlots returns which slots are administratively blocked for a
// date, so the UI can gray out unavailable times.
// GET /api/v1/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleBlockedSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	blocked, err := s.resolver.BlockedSlots(r.Context(), date)
	if err != nil {
		writeReservationError(w, err)
		return
	}

	blockedSet := make(map[string]struct{}, len(blocked))
	for _, slot := range blocked {
		blockedSet[slot] = struct{}{}
	}
	available := make([]string, 0, len(models.TimeSlots))
	for _, slot := range models.TimeSlots {
		if _, ok := blockedSet[slot]; !ok {
			available = append(available, slot)
		}
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		Date:           date,
		BlockedSlots:   blocked,
		AvailableSlots: available,
	})
}
