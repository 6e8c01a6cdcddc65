package model

// PayrollStatus defines the state of the payroll export for a completed shift.
type PayrollStatus string

const (
	StatusPayrollPending    PayrollStatus = "PENDING"
	StatusPayrollProcessing PayrollStatus = "PROCESSING"
	StatusPayrollCompleted  PayrollStatus = "COMPLETED"
	StatusPayrollFailed     PayrollStatus = "FAILED"
)

// EmailStatus defines the state of the shift-summary email for a completed shift.
type EmailStatus string

const (
	StatusEmailPending    EmailStatus = "PENDING"
	StatusEmailProcessing EmailStatus = "PROCESSING"
	StatusEmailCompleted  EmailStatus = "COMPLETED"
	StatusEmailFailed     EmailStatus = "FAILED"
)

// ShiftExport is the job-tracking row created when an employee clocks out.
// The background workers use it to keep payroll export and summary email
// delivery idempotent across retries. It is keyed by the clock-out event id.
type ShiftExport struct {
	ClockOutEventID   int64         `json:"clockOutEventId"`
	EmployeeID        string        `json:"employeeId"`
	NetWorkedMillis   int64         `json:"netWorkedMillis"`
	PayrollStatus     PayrollStatus `json:"payrollStatus"`
	PayrollRetryCount int           `json:"payrollRetryCount"`
	EmailStatus       EmailStatus   `json:"emailStatus"`
	EmailRetryCount   int           `json:"emailRetryCount"`
}
