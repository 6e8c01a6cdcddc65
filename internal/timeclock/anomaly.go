package timeclock

import "time"

// AnomalyKind classifies a violation of the expected event-sequence grammar.
type AnomalyKind string

const (
	AnomalyDoubleClockIn    AnomalyKind = "DOUBLE_CLOCK_IN"
	AnomalyOrphanClockOut   AnomalyKind = "ORPHAN_CLOCK_OUT"
	AnomalyOrphanBreakStart AnomalyKind = "ORPHAN_BREAK_START"
	AnomalyOrphanBreakEnd   AnomalyKind = "ORPHAN_BREAK_END"
	AnomalyDoubleBreakStart AnomalyKind = "DOUBLE_BREAK_START"
)

// Anomaly records an event that could not be applied to the session state
// machine. The event stream is append-only, so anomalies are surfaced for
// human review instead of being repaired in place.
type Anomaly struct {
	EventID    int64       `json:"eventId"`
	EmployeeID string      `json:"employeeId"`
	At         time.Time   `json:"eventTime"`
	Kind       AnomalyKind `json:"anomalyKind"`
}
