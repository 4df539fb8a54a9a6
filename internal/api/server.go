// Package api exposes the scheduling facade and the pipeline summaries as a
// JSON API for the browser front-end. Rendering stays client-side; handlers
// only move validated data in and out.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/glenxmac/CC-PipeLineTool/internal/pipeline"
	"github.com/glenxmac/CC-PipeLineTool/internal/schedule"
)

// HTTPServer handles the JSON API.
type HTTPServer struct {
	session *schedule.Session
	deals   pipeline.DealAPI
	logger  *zerolog.Logger
}

// NewHTTPServer constructs the API over a scheduling session and a deal
// collaborator.
func NewHTTPServer(session *schedule.Session, deals pipeline.DealAPI, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{session: session, deals: deals, logger: logger}
}

// Routes returns the handler for the whole API.
func (s *HTTPServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/v1/slots", s.handleSlots)
	mux.HandleFunc("/api/v1/week", s.handleWeek)
	mux.HandleFunc("/api/v1/mechanics", s.handleMechanics)
	mux.HandleFunc("/api/v1/bookings", s.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", s.handleBookingByID)
	mux.HandleFunc("/api/v1/deals", s.handleDeals)
	mux.HandleFunc("/api/v1/deals/", s.handleDealByID)
	mux.HandleFunc("/api/v1/summary/weekly", s.handleWeeklySummary)
	mux.HandleFunc("/api/v1/summary/monthly", s.handleMonthlySummary)
	mux.HandleFunc("/api/v1/summary/export", s.handleSummaryExport)
	return mux
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeScheduleError maps facade rejections onto HTTP statuses.
func writeScheduleError(w http.ResponseWriter, err error) {
	reason := schedule.RejectReason(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrOverlap):
		status = http.StatusConflict
	case errors.Is(err, schedule.ErrOutOfHours), errors.Is(err, schedule.ErrMissingField):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, schedule.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schedule.ErrPersistence):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Reason: reason})
}

// pathID extracts the trailing id from /prefix/{id}[/action]. It returns
// the id and the optional action segment.
func pathID(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		return parts[0], parts[1], true
	}
	return parts[0], "", true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
