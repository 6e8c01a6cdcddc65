package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timeclock.service/internal/core"
	"timeclock.service/internal/core/model"
	"timeclock.service/internal/ports/repository/memory"
	"timeclock.service/internal/timeclock"
)

// fakeProducer captures published events so tests can inspect the fan-out.
type fakeProducer struct {
	mu      sync.Mutex
	payroll []interface{}
	email   []interface{}
}

func (f *fakeProducer) PublishPayroll(_ context.Context, body interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payroll = append(f.payroll, body)
	return nil
}

func (f *fakeProducer) PublishEmail(_ context.Context, body interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = append(f.email, body)
	return nil
}

// newTestService builds a TimeClockService backed by the in-memory repository,
// returning the repository and producer so tests can seed history and inspect
// published events.
func newTestService() (*core.TimeClockService, *memory.Repository, *fakeProducer) {
	repo := memory.NewRepository()
	producer := &fakeProducer{}
	svc := core.NewTimeClockService(repo, producer)
	return svc, repo, producer
}

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func TestRecordEvent_ClockOutCreatesExportAndPublishes(t *testing.T) {
	svc, repo, producer := newTestService()
	ctx := context.Background()

	if _, err := svc.RecordEvent(ctx, "emp-1", timeclock.EventClockIn); err != nil {
		t.Fatalf("RecordEvent clock-in: %v", err)
	}
	outID, err := svc.RecordEvent(ctx, "emp-1", timeclock.EventClockOut)
	if err != nil {
		t.Fatalf("RecordEvent clock-out: %v", err)
	}

	export, err := repo.GetShiftExport(ctx, outID)
	if err != nil {
		t.Fatalf("expected shift export for event %d: %v", outID, err)
	}
	if export.EmployeeID != "emp-1" {
		t.Errorf("expected employee emp-1, got %q", export.EmployeeID)
	}
	if export.NetWorkedMillis < 0 {
		t.Errorf("expected non-negative net worked, got %d", export.NetWorkedMillis)
	}
	if export.PayrollStatus != model.StatusPayrollPending {
		t.Errorf("expected PENDING payroll status, got %s", export.PayrollStatus)
	}

	if len(producer.payroll) != 1 {
		t.Fatalf("expected 1 payroll event, got %d", len(producer.payroll))
	}
	if len(producer.email) != 1 {
		t.Fatalf("expected 1 email event, got %d", len(producer.email))
	}
}

func TestRecordEvent_ClockInDoesNotPublish(t *testing.T) {
	svc, _, producer := newTestService()

	if _, err := svc.RecordEvent(context.Background(), "emp-1", timeclock.EventClockIn); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if len(producer.payroll) != 0 || len(producer.email) != 0 {
		t.Errorf("expected no events published on clock-in, got %d payroll, %d email",
			len(producer.payroll), len(producer.email))
	}
}

func TestRecordEvent_OrphanClockOutSkipsFanOut(t *testing.T) {
	svc, repo, producer := newTestService()
	ctx := context.Background()

	// No prior clock-in: the event is still recorded, but closes no session.
	outID, err := svc.RecordEvent(ctx, "emp-1", timeclock.EventClockOut)
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if outID == 0 {
		t.Fatal("expected event id to be assigned")
	}

	if _, err := repo.GetShiftExport(ctx, outID); err == nil {
		t.Error("expected no shift export for orphan clock-out")
	}
	if len(producer.payroll) != 0 || len(producer.email) != 0 {
		t.Error("expected no events published for orphan clock-out")
	}

	now := time.Now().UTC()
	anomalies, err := svc.ListAnomalies(ctx, "emp-1", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListAnomalies: %v", err)
	}
	if len(anomalies) != 1 || anomalies[0].Kind != timeclock.AnomalyOrphanClockOut {
		t.Errorf("expected ORPHAN_CLOCK_OUT anomaly, got %v", anomalies)
	}
}

func TestCurrentStatus_EmptyHistory(t *testing.T) {
	svc, _, _ := newTestService()

	status, anomalies, err := svc.CurrentStatus(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status.ClockedIn || status.OnBreak || status.SessionStart != nil {
		t.Errorf("expected zero status for unknown employee, got %+v", status)
	}
	if len(anomalies) != 0 {
		t.Errorf("expected no anomalies, got %v", anomalies)
	}
}

func TestCurrentStatus_AfterClockIn(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.RecordEvent(ctx, "emp-1", timeclock.EventClockIn); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	status, _, err := svc.CurrentStatus(ctx, "emp-1")
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if !status.ClockedIn {
		t.Error("expected clocked in")
	}
	if status.SessionStart == nil {
		t.Error("expected session start to be set")
	}
}

func TestPeriodReport_SeededHistory(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.SeedEvent("emp-1", timeclock.EventClockIn, at(9, 0))
	repo.SeedEvent("emp-1", timeclock.EventBreakStart, at(12, 0))
	repo.SeedEvent("emp-1", timeclock.EventBreakEnd, at(12, 30))
	repo.SeedEvent("emp-1", timeclock.EventClockOut, at(17, 0))

	rep, err := svc.PeriodReport(context.Background(), "emp-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("PeriodReport: %v", err)
	}
	if got, want := rep.TotalWorkedMillis, (7*time.Hour + 30*time.Minute).Milliseconds(); got != want {
		t.Errorf("expected %d ms worked, got %d", want, got)
	}
	if got, want := rep.TotalBreakMillis, (30 * time.Minute).Milliseconds(); got != want {
		t.Errorf("expected %d ms break, got %d", want, got)
	}
}

func TestPeriodReport_InvalidRange(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.PeriodReport(context.Background(), "emp-1", at(10, 0), at(9, 0))
	if !errors.Is(err, timeclock.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestPeriodReportAll_GroupsByEmployee(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.SeedEvent("emp-1", timeclock.EventClockIn, at(9, 0))
	repo.SeedEvent("emp-2", timeclock.EventClockIn, at(10, 0))
	repo.SeedEvent("emp-1", timeclock.EventClockOut, at(12, 0))
	repo.SeedEvent("emp-2", timeclock.EventClockOut, at(14, 0))

	reports, err := svc.PeriodReportAll(context.Background(), day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("PeriodReportAll: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected reports for 2 employees, got %d", len(reports))
	}
	if got, want := reports["emp-1"].TotalWorkedMillis, (3 * time.Hour).Milliseconds(); got != want {
		t.Errorf("emp-1: expected %d ms, got %d", want, got)
	}
	if got, want := reports["emp-2"].TotalWorkedMillis, (4 * time.Hour).Milliseconds(); got != want {
		t.Errorf("emp-2: expected %d ms, got %d", want, got)
	}
}

func TestDailyReport_SeededHistory(t *testing.T) {
	svc, repo, _ := newTestService()

	repo.SeedEvent("emp-1", timeclock.EventClockIn, at(9, 0))
	repo.SeedEvent("emp-1", timeclock.EventClockOut, at(12, 0))

	totals, err := svc.DailyReport(context.Background(), "emp-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DailyReport: %v", err)
	}
	if len(totals) != 1 {
		t.Fatalf("expected 1 day bucket, got %d", len(totals))
	}
	if got, want := totals[0].TotalWorkedMillis, (3 * time.Hour).Milliseconds(); got != want {
		t.Errorf("expected %d ms, got %d", want, got)
	}
}

func TestListAnomalies_FiltersToWindow(t *testing.T) {
	svc, repo, _ := newTestService()

	// An orphan break-end the day before, and a double clock-in inside the window.
	repo.SeedEvent("emp-1", timeclock.EventBreakEnd, day.Add(-12*time.Hour))
	repo.SeedEvent("emp-1", timeclock.EventClockIn, at(9, 0))
	repo.SeedEvent("emp-1", timeclock.EventClockIn, at(9, 5))

	anomalies, err := svc.ListAnomalies(context.Background(), "emp-1", day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListAnomalies: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly inside window, got %d", len(anomalies))
	}
	if anomalies[0].Kind != timeclock.AnomalyDoubleClockIn {
		t.Errorf("expected DOUBLE_CLOCK_IN, got %s", anomalies[0].Kind)
	}
}

func TestUpdateStatuses_PassThrough(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.RecordEvent(ctx, "emp-1", timeclock.EventClockIn); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	outID, err := svc.RecordEvent(ctx, "emp-1", timeclock.EventClockOut)
	if err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	if err := svc.UpdatePayrollStatus(ctx, outID, model.StatusPayrollCompleted, 0); err != nil {
		t.Fatalf("UpdatePayrollStatus: %v", err)
	}
	if err := svc.UpdateEmailStatus(ctx, outID, model.StatusEmailFailed, 3); err != nil {
		t.Fatalf("UpdateEmailStatus: %v", err)
	}

	export, err := repo.GetShiftExport(ctx, outID)
	if err != nil {
		t.Fatalf("GetShiftExport: %v", err)
	}
	if export.PayrollStatus != model.StatusPayrollCompleted {
		t.Errorf("expected COMPLETED payroll status, got %s", export.PayrollStatus)
	}
	if export.EmailStatus != model.StatusEmailFailed || export.EmailRetryCount != 3 {
		t.Errorf("unexpected email state: %s retry=%d", export.EmailStatus, export.EmailRetryCount)
	}
}
