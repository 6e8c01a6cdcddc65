package timeclock

import "time"

// Status is the reconstructed clock state for one employee at the end of an
// event history. SessionStart and BreakStart are nil unless the corresponding
// interval is currently open.
type Status struct {
	ClockedIn    bool       `json:"isClockedIn"`
	OnBreak      bool       `json:"isOnBreak"`
	SessionStart *time.Time `json:"sessionStart"`
	BreakStart   *time.Time `json:"breakStart"`
}

// Reduce folds an employee's ordered event history into the current clock
// state. An empty history reduces to the zero Status (clocked out), never an
// error. Anomalies are the same ones BuildSessions reports.
func Reduce(events []Event) (Status, []Anomaly) {
	sessions, anomalies := BuildSessions(events)

	var st Status
	if len(sessions) == 0 {
		return st, anomalies
	}

	last := sessions[len(sessions)-1]
	if last.End != nil {
		return st, anomalies
	}

	st.ClockedIn = true
	start := last.Start
	st.SessionStart = &start

	if n := len(last.Breaks); n > 0 && last.Breaks[n-1].End == nil {
		st.OnBreak = true
		bs := last.Breaks[n-1].Start
		st.BreakStart = &bs
	}
	return st, anomalies
}
