package messaging

import "time"

// ShiftCompletedEvent is the JSON payload sent via SQS for the payroll queue
type ShiftCompletedEvent struct {
	ClockOutEventID int64     `json:"clockOutEventId"`
	EmployeeID      string    `json:"employeeId"`
	NetWorkedMillis int64     `json:"netWorkedMillis"`
	ClockOutTime    time.Time `json:"clockOutTime"`
}

// EmailEvent is the JSON payload sent via SQS for the email queue
type EmailEvent struct {
	ClockOutEventID int64     `json:"clockOutEventId"`
	EmployeeID      string    `json:"employeeId"`
	NetWorkedMillis int64     `json:"netWorkedMillis"`
	OccurredAt      time.Time `json:"occurredAt"`
}
