package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// A simple struct to capture the incoming event data
type ShiftCompletedEvent struct {
	ClockOutEventID int64     `json:"clockOutEventId"`
	EmployeeID      string    `json:"employeeId"`
	NetWorkedMillis int64     `json:"netWorkedMillis"`
	ClockOutTime    time.Time `json:"clockOutTime"`
}

func shiftHandler(w http.ResponseWriter, r *http.Request) {
	var event ShiftCompletedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	hours := float64(event.NetWorkedMillis) / float64(time.Hour.Milliseconds())
	log.Printf("Received shift for EmployeeID: %s, Net hours: %.2f", event.EmployeeID, hours)
	w.WriteHeader(http.StatusOK)
}

func main() {
	http.HandleFunc("/", shiftHandler)
	log.Println("Payroll API mock server starting on port 8081...")
	log.Fatal(http.ListenAndServe(":8081", nil))
}
