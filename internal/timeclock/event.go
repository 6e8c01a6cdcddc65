package timeclock

import "time"

// EventType is the closed set of timekeeping actions an employee can perform.
type EventType string

const (
	EventClockIn    EventType = "clock_in"
	EventClockOut   EventType = "clock_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

// Event is an immutable timekeeping fact: one employee performed one action at
// one instant. At is assigned server-side when the action is recorded;
// CreatedAt is the row-insertion time and is used for audit only.
type Event struct {
	ID         int64     `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Type       EventType `json:"eventType"`
	At         time.Time `json:"eventTime"`
	CreatedAt  time.Time `json:"createdAt"`
}
