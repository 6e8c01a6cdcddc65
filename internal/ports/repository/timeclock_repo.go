package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timeclock.service/internal/core/model"
	"timeclock.service/internal/timeclock"
)

// Repository contract. Clock events are append-only; derived state is
// recomputed from the stream at read time, never stored.
type Repository interface {
	AppendEvent(ctx context.Context, employeeID string, eventType timeclock.EventType, at time.Time) (int64, error)
	ListEvents(ctx context.Context, employeeID string, start, end time.Time) ([]timeclock.Event, error)
	ListAllEvents(ctx context.Context, start, end time.Time) ([]timeclock.Event, error)
	CreateShiftExport(ctx context.Context, clockOutEventID int64, employeeID string, netWorkedMillis int64) error
	GetShiftExport(ctx context.Context, clockOutEventID int64) (*model.ShiftExport, error)
	UpdatePayrollStatus(ctx context.Context, clockOutEventID int64, status model.PayrollStatus, retryCount int) error
	UpdateEmailStatus(ctx context.Context, clockOutEventID int64, status model.EmailStatus, retryCount int) error
}

// TimeClockRepository is the concrete implementation for a PostgreSQL database.
type TimeClockRepository struct {
	DB *sql.DB
}

// NewTimeClockRepository create new instance
func NewTimeClockRepository(db *sql.DB) Repository {
	return &TimeClockRepository{DB: db}
}

// AppendEvent inserts one immutable clock event. No validation happens here:
// the sequence grammar is checked lazily at read/report time.
func (r *TimeClockRepository) AppendEvent(ctx context.Context, employeeID string, eventType timeclock.EventType, at time.Time) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", employeeID))
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.event_type", string(eventType)))

	var id int64
	query := `INSERT INTO time_clock_events (employee_id, event_type, event_time, created_at)
              VALUES ($1, $2, $3, now()) RETURNING id`

	err := r.DB.QueryRowContext(ctx, query, employeeID, string(eventType), at).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ListEvents returns one employee's events ascending by event time. Zero
// start/end bounds mean unbounded on that side.
func (r *TimeClockRepository) ListEvents(ctx context.Context, employeeID string, start, end time.Time) ([]timeclock.Event, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", employeeID))

	query := `SELECT id, employee_id, event_type, event_time, created_at
              FROM time_clock_events
              WHERE employee_id = $1`
	args := []any{employeeID}

	if !start.IsZero() {
		args = append(args, start)
		query += fmt.Sprintf(" AND event_time >= $%d", len(args))
	}
	if !end.IsZero() {
		args = append(args, end)
		query += fmt.Sprintf(" AND event_time < $%d", len(args))
	}
	query += " ORDER BY event_time ASC, id ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListAllEvents returns every employee's events in the window, ascending by
// event time. Callers group by employee before folding.
func (r *TimeClockRepository) ListAllEvents(ctx context.Context, start, end time.Time) ([]timeclock.Event, error) {
	query := `SELECT id, employee_id, event_type, event_time, created_at
              FROM time_clock_events
              WHERE 1=1`
	var args []any

	if !start.IsZero() {
		args = append(args, start)
		query += fmt.Sprintf(" AND event_time >= $%d", len(args))
	}
	if !end.IsZero() {
		args = append(args, end)
		query += fmt.Sprintf(" AND event_time < $%d", len(args))
	}
	query += " ORDER BY event_time ASC, id ASC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]timeclock.Event, error) {
	var events []timeclock.Event
	for rows.Next() {
		var ev timeclock.Event
		var eventType string
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &eventType, &ev.At, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = timeclock.EventType(eventType)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CreateShiftExport records the job row the workers track their progress on.
func (r *TimeClockRepository) CreateShiftExport(ctx context.Context, clockOutEventID int64, employeeID string, netWorkedMillis int64) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", employeeID))

	query := `INSERT INTO shift_exports (clock_out_event_id, employee_id, net_worked_ms, payroll_status, payroll_retry_count, email_status, email_retry_count)
              VALUES ($1, $2, $3, $4, 0, $5, 0)`

	_, err := r.DB.ExecContext(ctx, query, clockOutEventID, employeeID, netWorkedMillis,
		model.StatusPayrollPending, model.StatusEmailPending)
	return err
}

// GetShiftExport fetches a complete shift_exports record by its clock-out event id.
func (r *TimeClockRepository) GetShiftExport(ctx context.Context, clockOutEventID int64) (*model.ShiftExport, error) {
	query := `SELECT clock_out_event_id, employee_id, net_worked_ms, payroll_status, payroll_retry_count, email_status, email_retry_count
              FROM shift_exports WHERE clock_out_event_id = $1`

	se := &model.ShiftExport{}
	err := r.DB.QueryRowContext(ctx, query, clockOutEventID).Scan(
		&se.ClockOutEventID, &se.EmployeeID, &se.NetWorkedMillis,
		&se.PayrollStatus, &se.PayrollRetryCount, &se.EmailStatus, &se.EmailRetryCount,
	)
	if err != nil {
		return nil, err
	}
	return se, nil
}

// UpdatePayrollStatus updates the status and retry count for a payroll export job.
func (r *TimeClockRepository) UpdatePayrollStatus(ctx context.Context, clockOutEventID int64, status model.PayrollStatus, retryCount int) error {
	query := `UPDATE shift_exports
              SET payroll_status = $1,
                  payroll_retry_count = $2
              WHERE clock_out_event_id = $3`

	_, err := r.DB.ExecContext(ctx, query, status, retryCount, clockOutEventID)
	return err
}

// UpdateEmailStatus updates the status and retry count for a summary-email job.
func (r *TimeClockRepository) UpdateEmailStatus(ctx context.Context, clockOutEventID int64, status model.EmailStatus, retryCount int) error {
	query := `UPDATE shift_exports SET email_status = $1, email_retry_count = $2 WHERE clock_out_event_id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, clockOutEventID)
	return err
}
