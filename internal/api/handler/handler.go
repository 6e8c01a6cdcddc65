package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"timeclock.service/internal/core"
	"timeclock.service/internal/timeclock"
)

type TimeClockHandler struct {
	Service *core.TimeClockService
}

type recordEventResponse struct {
	EventID int64  `json:"eventId"`
	Message string `json:"message"`
}

type statusResponse struct {
	IsClockedIn bool       `json:"isClockedIn"`
	IsOnBreak   bool       `json:"isOnBreak"`
	Since       *time.Time `json:"since"`
}

// RecordEvent returns the handler for one of the four clock actions. The
// event is appended unconditionally; sequence problems surface later through
// the status/report/anomaly endpoints.
func (h *TimeClockHandler) RecordEvent(eventType timeclock.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employeeID := mux.Vars(r)["employeeId"]
		if employeeID == "" {
			http.Error(w, "employeeId is required", http.StatusBadRequest)
			return
		}

		id, err := h.Service.RecordEvent(r.Context(), employeeID, eventType)
		if err != nil {
			http.Error(w, "Service error recording clock event", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(recordEventResponse{
			EventID: id,
			Message: "Clock event recorded.",
		})
	}
}

// Status reports whether the employee is clocked in or on break, and since
// when. "Since" is the open break start while on break, otherwise the open
// session start; null when clocked out.
func (h *TimeClockHandler) Status(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]

	status, _, err := h.Service.CurrentStatus(r.Context(), employeeID)
	if err != nil {
		http.Error(w, "Service error reading clock status", http.StatusInternalServerError)
		return
	}

	since := status.SessionStart
	if status.OnBreak {
		since = status.BreakStart
	}

	writeJSON(w, statusResponse{
		IsClockedIn: status.ClockedIn,
		IsOnBreak:   status.OnBreak,
		Since:       since,
	})
}

// Report serves one employee's period report. With daily=true the response is
// the per-day bucketing instead of the flat session list.
func (h *TimeClockHandler) Report(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]

	start, end, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("daily") == "true" {
		totals, err := h.Service.DailyReport(r.Context(), employeeID, start, end)
		if err != nil {
			writeReportError(w, err)
			return
		}
		writeJSON(w, totals)
		return
	}

	report, err := h.Service.PeriodReport(r.Context(), employeeID, start, end)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, report)
}

// ReportAll serves the per-employee period reports for every employee.
func (h *TimeClockHandler) ReportAll(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reports, err := h.Service.PeriodReportAll(r.Context(), start, end)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, reports)
}

// Anomalies lists the event-sequence problems found in the period so an
// operator can correct payroll data manually.
func (h *TimeClockHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]

	start, end, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	anomalies, err := h.Service.ListAnomalies(r.Context(), employeeID, start, end)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, anomalies)
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be a RFC3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be a RFC3339 timestamp")
	}
	return start, end, nil
}

func writeReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, timeclock.ErrInvalidRange) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "Service error building report", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
