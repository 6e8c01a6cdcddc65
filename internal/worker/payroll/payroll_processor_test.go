package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"timeclock.service/internal/core/model"
	"timeclock.service/internal/ports/messaging"
	"timeclock.service/internal/ports/repository/memory"
	"timeclock.service/internal/worker/payroll"
)

type fakePayrollAPI struct {
	err   error
	calls int
}

func (f *fakePayrollAPI) RecordShift(context.Context, messaging.ShiftCompletedEvent) error {
	f.calls++
	return f.err
}

func shiftMessage() types.Message {
	body := `{"clockOutEventId":42,"employeeId":"emp-1","netWorkedMillis":28800000,"clockOutTime":"2025-03-10T17:00:00Z"}`
	return types.Message{Body: aws.String(body)}
}

func newExport(t *testing.T, repo *memory.Repository) {
	t.Helper()
	if err := repo.CreateShiftExport(context.Background(), 42, "emp-1", (8 * time.Hour).Milliseconds()); err != nil {
		t.Fatalf("CreateShiftExport: %v", err)
	}
}

func TestProcess_SuccessMarksCompleted(t *testing.T) {
	repo := memory.NewRepository()
	newExport(t, repo)
	api := &fakePayrollAPI{}
	proc := payroll.NewProcessor(repo, api)

	shouldRetry, _, err := proc.Process(context.Background(), shiftMessage())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if shouldRetry {
		t.Error("expected no retry on success")
	}
	if api.calls != 1 {
		t.Errorf("expected 1 API call, got %d", api.calls)
	}

	export, err := repo.GetShiftExport(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetShiftExport: %v", err)
	}
	if export.PayrollStatus != model.StatusPayrollCompleted {
		t.Errorf("expected COMPLETED, got %s", export.PayrollStatus)
	}
}

func TestProcess_AlreadyCompletedSkipsAPICall(t *testing.T) {
	repo := memory.NewRepository()
	newExport(t, repo)
	if err := repo.UpdatePayrollStatus(context.Background(), 42, model.StatusPayrollCompleted, 0); err != nil {
		t.Fatalf("UpdatePayrollStatus: %v", err)
	}
	api := &fakePayrollAPI{}
	proc := payroll.NewProcessor(repo, api)

	shouldRetry, _, err := proc.Process(context.Background(), shiftMessage())
	if err != nil || shouldRetry {
		t.Fatalf("expected clean no-op, got retry=%v err=%v", shouldRetry, err)
	}
	if api.calls != 0 {
		t.Errorf("expected no API call for completed job, got %d", api.calls)
	}
}

func TestProcess_FailureSchedulesRetryWithBackoff(t *testing.T) {
	repo := memory.NewRepository()
	newExport(t, repo)
	api := &fakePayrollAPI{err: errors.New("payroll system down")}
	proc := payroll.NewProcessor(repo, api)

	shouldRetry, delay, err := proc.Process(context.Background(), shiftMessage())
	if err == nil {
		t.Fatal("expected error from failing API")
	}
	if !shouldRetry {
		t.Error("expected retry on API failure")
	}
	if delay != 20 { // 2^1 * 10
		t.Errorf("expected 20s backoff for first retry, got %d", delay)
	}

	export, _ := repo.GetShiftExport(context.Background(), 42)
	if export.PayrollRetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", export.PayrollRetryCount)
	}
}

func TestProcess_MalformedMessageNotRetried(t *testing.T) {
	proc := payroll.NewProcessor(memory.NewRepository(), &fakePayrollAPI{})

	shouldRetry, _, err := proc.Process(context.Background(), types.Message{Body: aws.String("not json")})
	if err == nil {
		t.Fatal("expected unmarshal error")
	}
	if shouldRetry {
		t.Error("malformed message must not be retried")
	}
}

func TestProcess_MissingExportIsRetried(t *testing.T) {
	proc := payroll.NewProcessor(memory.NewRepository(), &fakePayrollAPI{})

	shouldRetry, _, err := proc.Process(context.Background(), shiftMessage())
	if err == nil {
		t.Fatal("expected error for missing export row")
	}
	if !shouldRetry {
		t.Error("expected retry while export row is not yet visible")
	}
}
