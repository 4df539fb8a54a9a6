package api

import (
	"net/http"

	"github.com/glenxmac/CC-PipeLineTool/internal/metrics"
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/pipeline"
	"github.com/glenxmac/CC-PipeLineTool/internal/report"
)

// handleDeals lists and creates deals.
// GET  /api/v1/deals
// POST /api/v1/deals
func (s *HTTPServer) handleDeals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("deals_list")
		deals, err := s.deals.ListDeals(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, "deal store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"deals":         deals,
			"status_counts": pipeline.StatusCounts(deals),
		})

	case http.MethodPost:
		metrics.IncHTTP("deals_create")
		var d model.Deal
		if !decodeBody(w, r, &d) {
			return
		}
		if err := pipeline.ValidateNew(&d); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		created, err := s.deals.CreateDeal(r.Context(), d)
		if err != nil {
			writeError(w, http.StatusBadGateway, "deal store unavailable")
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type closeRequest struct {
	Outcome   string `json:"outcome"`
	CloseDate string `json:"close_date"`
}

// handleDealByID updates, closes, reopens or deletes one deal.
// PUT    /api/v1/deals/{id}
// DELETE /api/v1/deals/{id}
// POST   /api/v1/deals/{id}/close
// POST   /api/v1/deals/{id}/reopen
func (s *HTTPServer) handleDealByID(w http.ResponseWriter, r *http.Request) {
	id, action, ok := pathID(r.URL.Path, "/api/v1/deals/")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		metrics.IncHTTP("deals_update")
		var d model.Deal
		if !decodeBody(w, r, &d) {
			return
		}
		if d.Status != "" && !model.ValidStatus(d.Status) {
			writeError(w, http.StatusUnprocessableEntity, "unknown status")
			return
		}
		updated, err := s.deals.UpdateDeal(r.Context(), id, d)
		if err != nil {
			writeError(w, http.StatusBadGateway, "deal store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case action == "" && r.Method == http.MethodDelete:
		metrics.IncHTTP("deals_delete")
		if err := s.deals.DeleteDeal(r.Context(), id); err != nil {
			writeError(w, http.StatusBadGateway, "deal store unavailable")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case action == "close" && r.Method == http.MethodPost:
		metrics.IncHTTP("deals_close")
		s.handleDealClose(w, r, id)

	case action == "reopen" && r.Method == http.MethodPost:
		metrics.IncHTTP("deals_reopen")
		s.handleDealReopen(w, r, id)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) findDeal(w http.ResponseWriter, r *http.Request, id string) (model.Deal, bool) {
	deals, err := s.deals.ListDeals(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "deal store unavailable")
		return model.Deal{}, false
	}
	for _, d := range deals {
		if d.ID == id {
			return d, true
		}
	}
	writeError(w, http.StatusNotFound, "deal not found")
	return model.Deal{}, false
}

func (s *HTTPServer) handleDealClose(w http.ResponseWriter, r *http.Request, id string) {
	var req closeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deal, ok := s.findDeal(w, r, id)
	if !ok {
		return
	}
	if err := pipeline.Close(&deal, req.Outcome, req.CloseDate); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.deals.UpdateDeal(r.Context(), id, deal)
	if err != nil {
		writeError(w, http.StatusBadGateway, "deal store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *HTTPServer) handleDealReopen(w http.ResponseWriter, r *http.Request, id string) {
	deal, ok := s.findDeal(w, r, id)
	if !ok {
		return
	}
	if err := pipeline.Reopen(&deal); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.deals.UpdateDeal(r.Context(), id, deal)
	if err != nil {
		writeError(w, http.StatusBadGateway, "deal store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleWeeklySummary returns the salesperson x ISO-week matrix.
// GET /api/v1/summary/weekly?month=YYYY-MM
func (s *HTTPServer) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("summary_weekly")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	deals, err := s.deals.ListDeals(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "deal store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, pipeline.BuildWeeklyMatrix(deals, r.URL.Query().Get("month")))
}

// handleMonthlySummary returns the per-salesperson snapshot.
// GET /api/v1/summary/monthly?month=YYYY-MM
func (s *HTTPServer) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("summary_monthly")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	deals, err := s.deals.ListDeals(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "deal store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, pipeline.BuildMonthlySnapshot(deals, r.URL.Query().Get("month")))
}

// handleSummaryExport streams both summaries as an xlsx workbook.
// GET /api/v1/summary/export?month=YYYY-MM
func (s *HTTPServer) handleSummaryExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("summary_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	deals, err := s.deals.ListDeals(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "deal store unavailable")
		return
	}

	month := r.URL.Query().Get("month")
	matrix := pipeline.BuildWeeklyMatrix(deals, month)
	snap := pipeline.BuildMonthlySnapshot(deals, month)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pipeline_summary.xlsx"`)
	if err := report.WriteSummaryWorkbook(w, matrix, snap); err != nil {
		s.logger.Error().Err(err).Msg("summary export failed")
	}
}
