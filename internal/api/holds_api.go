package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"arcana/internal/metrics"
	"arcana/internal/reservation"
)

// CreateHoldRequest is the request body for POST /api/v1/holds.
type CreateHoldRequest struct {
	ServiceID    string `json:"service_id"`
	Date         string `json:"date"` // Format: YYYY-MM-DD
	Slot         string `json:"slot"` // e.g. "2:00 PM"
	RequesterKey string `json:"requester_key"`
	ClientName   string `json:"client_name"`
	ClientEmail  string `json:"client_email"`
	Notes        string `json:"notes,omitempty"`
	AddOn        bool   `json:"add_on"`
}

// HoldResponse describes a hold to the client, including the remaining
// seconds its countdown should display. The server stays authoritative;
// the client only caches this.
type HoldResponse struct {
	HoldID           string    `json:"hold_id"`
	ServiceID        string    `json:"service_id"`
	Date             string    `json:"date"`
	Slot             string    `json:"slot"`
	TotalPrice       int64     `json:"total_price"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
}

// ConfirmResponse is the response for a successful confirmation.
type ConfirmResponse struct {
	BookingID  string    `json:"booking_id"`
	HoldID     string    `json:"hold_id"`
	ServiceID  string    `json:"service_id"`
	Date       string    `json:"date"`
	Slot       string    `json:"slot"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// handleHolds creates a hold.
// POST /api/v1/holds
func (s *HTTPServer) handleHolds(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_hold")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateHoldRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	hold, err := s.svc.CreateHold(r.Context(), reservation.CreateHoldInput{
		RequesterKey: req.RequesterKey,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Slot:         req.Slot,
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		Notes:        req.Notes,
		AddOn:        req.AddOn,
	})
	if err != nil {
		writeReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, HoldResponse{
		HoldID:           hold.ID,
		ServiceID:        hold.ServiceID,
		Date:             hold.Date,
		Slot:             hold.Slot,
		TotalPrice:       hold.TotalPrice,
		ExpiresAt:        hold.ExpiresAt,
		RemainingSeconds: int64(hold.Remaining(hold.CreatedAt) / time.Second),
	})
}

// handleHoldByID dispatches hold subresource requests:
//
//	GET    /api/v1/holds/{id}          inspect (feeds the client countdown)
//	DELETE /api/v1/holds/{id}          release, idempotent
//	POST   /api/v1/holds/{id}/confirm  convert into a booking
func (s *HTTPServer) handleHoldByID(w http.ResponseWriter, r *http.Request) {
	holdID, confirm, ok := parseHoldPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if confirm {
		s.handleConfirmHold(w, r, holdID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetHold(w, r, holdID)
	case http.MethodDelete:
		s.handleReleaseHold(w, r, holdID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleGetHold(w http.ResponseWriter, r *http.Request, holdID string) {
	metrics.IncHTTP("get_hold")

	hold, err := s.svc.GetHold(r.Context(), holdID)
	if err != nil {
		writeReservationError(w, err)
		return
	}

	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, HoldResponse{
		HoldID:           hold.ID,
		ServiceID:        hold.ServiceID,
		Date:             hold.Date,
		Slot:             hold.Slot,
		TotalPrice:       hold.TotalPrice,
		ExpiresAt:        hold.ExpiresAt,
		RemainingSeconds: int64(hold.Remaining(now) / time.Second),
	})
}

func (s *HTTPServer) handleReleaseHold(w http.ResponseWriter, r *http.Request, holdID string) {
	metrics.IncHTTP("release_hold")

	if err := s.svc.ReleaseHold(r.Context(), holdID); err != nil {
		writeReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleConfirmHold(w http.ResponseWriter, r *http.Request, holdID string) {
	metrics.IncHTTP("confirm_hold")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	booking, err := s.svc.Confirm(r.Context(), holdID)
	if err != nil {
		writeReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ConfirmResponse{
		BookingID:  booking.ID,
		HoldID:     booking.HoldID,
		ServiceID:  booking.ServiceID,
		Date:       booking.Date,
		Slot:       booking.Slot,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
		CreatedAt:  booking.CreatedAt,
	})
}

// parseHoldPath extracts the hold id from /api/v1/holds/{id}[/confirm].
func parseHoldPath(path string) (holdID string, confirm bool, ok bool) {
	rest := strings.TrimPrefix(path, "/api/v1/holds/")
	if rest == path || rest == "" {
		return "", false, false
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch len(parts) {
	case 1:
		return parts[0], false, parts[0] != ""
	case 2:
		if parts[1] != "confirm" || parts[0] == "" {
			return "", false, false
		}
		return parts[0], true, true
	}
	return "", false, false
}
