package core

import (
	"context"
	"errors"
	"time"

	"timeclock.service/internal/core/model"
	"timeclock.service/internal/ports/messaging"
	"timeclock.service/internal/ports/repository"
	"timeclock.service/internal/timeclock"
)

type TimeClockService struct {
	repo     repository.Repository
	producer messaging.QueueProducer
}

// NewTimeClockService creates a new instance of our main application service,
// wiring up the database repository and the message queue producer.
func NewTimeClockService(repo repository.Repository, p messaging.QueueProducer) *TimeClockService {
	return &TimeClockService{
		repo:     repo,
		producer: p,
	}
}

// RecordEvent appends one clock event for an employee, stamped server-side.
// The insert is unconditional: sequence validation happens lazily when a
// status or report is read, never before recording. A clock-out additionally
// triggers the asynchronous payroll/email fan-out.
func (s *TimeClockService) RecordEvent(ctx context.Context, employeeID string, eventType timeclock.EventType) (int64, error) {
	currentTime := time.Now().UTC()

	id, err := s.repo.AppendEvent(ctx, employeeID, eventType, currentTime)
	if err != nil {
		return 0, errors.New("failed to record clock event")
	}

	if eventType == timeclock.EventClockOut {
		if err := s.handleShiftCompleted(ctx, employeeID, id, currentTime); err != nil {
			return id, err
		}
	}
	return id, nil
}

// CurrentStatus reconstructs one employee's clock state from the event
// history. An employee with no events is simply clocked out, not an error.
func (s *TimeClockService) CurrentStatus(ctx context.Context, employeeID string) (timeclock.Status, []timeclock.Anomaly, error) {
	events, err := s.repo.ListEvents(ctx, employeeID, time.Time{}, time.Time{})
	if err != nil {
		return timeclock.Status{}, nil, errors.New("failed to load event history")
	}

	status, anomalies := timeclock.Reduce(events)
	return status, anomalies, nil
}

// PeriodReport computes one employee's worked/break totals for [start, end).
// History before the period is included in the fetch so a session that began
// before the window is still seen and clipped rather than dropped.
func (s *TimeClockService) PeriodReport(ctx context.Context, employeeID string, start, end time.Time) (timeclock.Report, error) {
	if end.Before(start) {
		return timeclock.Report{}, timeclock.ErrInvalidRange
	}

	events, err := s.repo.ListEvents(ctx, employeeID, time.Time{}, end)
	if err != nil {
		return timeclock.Report{}, errors.New("failed to load event history")
	}

	return timeclock.BuildReport(events, start, end, time.Now().UTC())
}

// PeriodReportAll computes per-employee reports for every employee with
// events up to the end of the period.
func (s *TimeClockService) PeriodReportAll(ctx context.Context, start, end time.Time) (map[string]timeclock.Report, error) {
	if end.Before(start) {
		return nil, timeclock.ErrInvalidRange
	}

	events, err := s.repo.ListAllEvents(ctx, time.Time{}, end)
	if err != nil {
		return nil, errors.New("failed to load event history")
	}

	now := time.Now().UTC()
	reports := make(map[string]timeclock.Report)
	for employeeID, history := range groupByEmployee(events) {
		rep, err := timeclock.BuildReport(history, start, end, now)
		if err != nil {
			return nil, err
		}
		reports[employeeID] = rep
	}
	return reports, nil
}

// DailyReport buckets one employee's period report by calendar day (UTC).
func (s *TimeClockService) DailyReport(ctx context.Context, employeeID string, start, end time.Time) ([]timeclock.DailyTotal, error) {
	if end.Before(start) {
		return nil, timeclock.ErrInvalidRange
	}

	events, err := s.repo.ListEvents(ctx, employeeID, time.Time{}, end)
	if err != nil {
		return nil, errors.New("failed to load event history")
	}

	return timeclock.DailyTotals(events, start, end, time.Now().UTC())
}

// ListAnomalies surfaces sequence-grammar violations inside [start, end) for
// operator review. The fold runs over the full history up to end so that
// state carried into the window is accounted for.
func (s *TimeClockService) ListAnomalies(ctx context.Context, employeeID string, start, end time.Time) ([]timeclock.Anomaly, error) {
	if end.Before(start) {
		return nil, timeclock.ErrInvalidRange
	}

	events, err := s.repo.ListEvents(ctx, employeeID, time.Time{}, end)
	if err != nil {
		return nil, errors.New("failed to load event history")
	}

	_, anomalies := timeclock.BuildSessions(events)

	filtered := make([]timeclock.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if a.At.Before(start) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered, nil
}

// UpdatePayrollStatus is a simple pass-through to the repository layer,
// mainly used by background workers to update the status of a job.
func (s *TimeClockService) UpdatePayrollStatus(ctx context.Context, clockOutEventID int64, status model.PayrollStatus, retryCount int) error {
	return s.repo.UpdatePayrollStatus(ctx, clockOutEventID, status, retryCount)
}

// UpdateEmailStatus mirrors UpdatePayrollStatus for the email pipeline.
func (s *TimeClockService) UpdateEmailStatus(ctx context.Context, clockOutEventID int64, status model.EmailStatus, retryCount int) error {
	return s.repo.UpdateEmailStatus(ctx, clockOutEventID, status, retryCount)
}

// handleShiftCompleted runs the clock-out fan-out: compute the closed
// session's net time, create the export job row, and publish to both queues.
// An orphan clock-out closes nothing, so there is no shift to export and the
// fan-out is skipped; the anomaly surfaces through the reporting path.
func (s *TimeClockService) handleShiftCompleted(ctx context.Context, employeeID string, clockOutEventID int64, clockOut time.Time) error {
	events, err := s.repo.ListEvents(ctx, employeeID, time.Time{}, time.Time{})
	if err != nil {
		return errors.New("failed to load event history")
	}

	sessions, _ := timeclock.BuildSessions(events)
	if len(sessions) == 0 {
		return nil
	}
	last := sessions[len(sessions)-1]
	if last.End == nil || !last.End.Equal(clockOut) {
		return nil
	}

	netWorkedMillis := last.NetWorked(clockOut).Milliseconds()

	if err := s.repo.CreateShiftExport(ctx, clockOutEventID, employeeID, netWorkedMillis); err != nil {
		return errors.New("failed to create shift export record")
	}

	emailEvent := messaging.EmailEvent{
		ClockOutEventID: clockOutEventID,
		EmployeeID:      employeeID,
		NetWorkedMillis: netWorkedMillis,
		OccurredAt:      time.Now(),
	}
	s.producer.PublishEmail(ctx, emailEvent)

	shiftEvent := messaging.ShiftCompletedEvent{
		ClockOutEventID: clockOutEventID,
		EmployeeID:      employeeID,
		NetWorkedMillis: netWorkedMillis,
		ClockOutTime:    clockOut,
	}

	if err := s.producer.PublishPayroll(ctx, shiftEvent); err != nil {
		return errors.New("failed to publish shift-completed event to queue")
	}

	return nil
}

func groupByEmployee(events []timeclock.Event) map[string][]timeclock.Event {
	// Input is already ordered by event time, so per-employee order survives
	// the split.
	grouped := make(map[string][]timeclock.Event)
	for _, ev := range events {
		grouped[ev.EmployeeID] = append(grouped[ev.EmployeeID], ev)
	}
	return grouped
}
