package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/glenxmac/CC-PipeLineTool/internal/metrics"
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/schedule"
)

// handleSlots lists the slot start times of the working day.
// GET /api/v1/slots
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	grid := s.session.Grid()
	writeJSON(w, http.StatusOK, map[string]any{
		"slots":      grid.Slots(),
		"slot_count": grid.SlotCount(),
	})
}

type weekResponse struct {
	Monday string        `json:"monday"`
	Label  string        `json:"label"`
	Days   []dayResponse `json:"days"`
}

type dayResponse struct {
	ISO   string `json:"iso"`
	Label string `json:"label"`
}

// resolveWindow builds the requested window from ?date= (default today) and
// ?shift= weeks.
func resolveWindow(r *http.Request) (schedule.WeekWindow, error) {
	anchor := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse(schedule.ISODate, dateStr)
		if err != nil {
			return schedule.WeekWindow{}, err
		}
		anchor = parsed
	}

	window := schedule.WindowFor(anchor)
	if shiftStr := r.URL.Query().Get("shift"); shiftStr != "" {
		shift, err := strconv.Atoi(shiftStr)
		if err != nil {
			return schedule.WeekWindow{}, err
		}
		window = window.Shift(shift)
	}
	return window, nil
}

// handleWeek describes the Monday-aligned window for a date.
// GET /api/v1/week?date=YYYY-MM-DD&shift=-1
func (s *HTTPServer) handleWeek(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("week")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	window, err := resolveWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date or shift parameter")
		return
	}

	resp := weekResponse{
		Monday: window.Monday.Format(schedule.ISODate),
		Label:  window.Label(),
	}
	for _, d := range window.Days() {
		resp.Days = append(resp.Days, dayResponse{ISO: d.ISO, Label: d.Label})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMechanics lists the bookable resources.
// GET /api/v1/mechanics
func (s *HTTPServer) handleMechanics(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("mechanics")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mechanics": s.session.Mechanics()})
}

// handleBookings serves the week's bookings and creates new ones.
// GET  /api/v1/bookings?date=YYYY-MM-DD&shift=0
// POST /api/v1/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("bookings_list")
		window, err := resolveWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date or shift parameter")
			return
		}
		if err := s.session.Load(r.Context(), window); err != nil {
			writeScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"window":   window.Label(),
			"monday":   window.Monday.Format(schedule.ISODate),
			"bookings": s.session.Bookings(),
		})

	case http.MethodPost:
		metrics.IncHTTP("bookings_create")
		var fields model.Booking
		if !decodeBody(w, r, &fields) {
			return
		}

		candidate, err := s.session.ProposeCreate(fields)
		if err != nil {
			metrics.IncBookingRejected(schedule.RejectReason(err))
			writeScheduleError(w, err)
			return
		}
		created, err := s.session.CommitCreate(r.Context(), candidate)
		if err != nil {
			metrics.IncBookingRejected(schedule.RejectReason(err))
			writeScheduleError(w, err)
			return
		}
		metrics.IncBookingCommitted("created")
		writeJSON(w, http.StatusCreated, created)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type moveRequest struct {
	DropSlot     int     `json:"drop_slot"`
	OffsetSlots  *int    `json:"offset_slots,omitempty"`
	GrabFraction float64 `json:"grab_fraction"`
	Mechanic     string  `json:"mechanic"`
	Date         string  `json:"date"`
}

// handleBookingByID edits, moves or deletes one booking.
// PUT    /api/v1/bookings/{id}
// DELETE /api/v1/bookings/{id}
// POST   /api/v1/bookings/{id}/move
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	id, action, ok := pathID(r.URL.Path, "/api/v1/bookings/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		metrics.IncHTTP("bookings_update")
		var fields model.Booking
		if !decodeBody(w, r, &fields) {
			return
		}
		candidate, err := s.session.ProposeEdit(id, fields)
		if err != nil {
			metrics.IncBookingRejected(schedule.RejectReason(err))
			writeScheduleError(w, err)
			return
		}
		updated, err := s.session.CommitEdit(r.Context(), candidate)
		if err != nil {
			writeScheduleError(w, err)
			return
		}
		metrics.IncBookingCommitted("updated")
		writeJSON(w, http.StatusOK, updated)

	case action == "" && r.Method == http.MethodDelete:
		metrics.IncHTTP("bookings_delete")
		if err := s.session.CommitDelete(r.Context(), id); err != nil {
			writeScheduleError(w, err)
			return
		}
		metrics.IncBookingCommitted("deleted")
		w.WriteHeader(http.StatusNoContent)

	case action == "move" && r.Method == http.MethodPost:
		metrics.IncHTTP("bookings_move")
		s.handleMove(w, r, id)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleMove(w http.ResponseWriter, r *http.Request, id string) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stored, ok := s.session.Booking(id)
	if !ok {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	// The grab offset is normally captured client-side at dragstart and sent
	// back verbatim; grab_fraction is the fallback for clients that only
	// report the pointer position.
	drag, err := schedule.BeginDrag(&stored, req.GrabFraction, s.session.Grid())
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	if req.OffsetSlots != nil {
		drag.OffsetSlots = *req.OffsetSlots
	}

	candidate, err := s.session.ProposeMove(drag, req.DropSlot, req.Mechanic, req.Date)
	if err != nil {
		metrics.IncBookingRejected(schedule.RejectReason(err))
		writeScheduleError(w, err)
		return
	}
	moved, err := s.session.CommitMove(r.Context(), candidate)
	if err != nil {
		metrics.IncBookingRejected(schedule.RejectReason(err))
		writeScheduleError(w, err)
		return
	}
	metrics.IncBookingCommitted("moved")
	writeJSON(w, http.StatusOK, moved)
}
