package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"timeclock.service/internal/api/handler"
	"timeclock.service/internal/core"
	"timeclock.service/internal/timeclock"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(service *core.TimeClockService) *mux.Router {

	h := handler.TimeClockHandler{
		Service: service,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/employees/{employeeId}/clock-in", h.RecordEvent(timeclock.EventClockIn)).Methods(http.MethodPost)
	api.HandleFunc("/employees/{employeeId}/clock-out", h.RecordEvent(timeclock.EventClockOut)).Methods(http.MethodPost)
	api.HandleFunc("/employees/{employeeId}/break-start", h.RecordEvent(timeclock.EventBreakStart)).Methods(http.MethodPost)
	api.HandleFunc("/employees/{employeeId}/break-end", h.RecordEvent(timeclock.EventBreakEnd)).Methods(http.MethodPost)

	api.HandleFunc("/employees/{employeeId}/status", h.Status).Methods(http.MethodGet)
	api.HandleFunc("/employees/{employeeId}/report", h.Report).Methods(http.MethodGet)
	api.HandleFunc("/employees/{employeeId}/anomalies", h.Anomalies).Methods(http.MethodGet)
	api.HandleFunc("/report", h.ReportAll).Methods(http.MethodGet)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
