package email_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"timeclock.service/internal/core/model"
	"timeclock.service/internal/ports/repository/memory"
	"timeclock.service/internal/worker/email"
)

type fakeEmailService struct {
	err  error
	sent []string
}

func (f *fakeEmailService) SendShiftSummary(_ context.Context, to string, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func emailMessage() types.Message {
	body := `{"clockOutEventId":42,"employeeId":"emp-1","netWorkedMillis":27000000,"occurredAt":"2025-03-10T17:00:00Z"}`
	return types.Message{Body: aws.String(body)}
}

func newExport(t *testing.T, repo *memory.Repository) {
	t.Helper()
	if err := repo.CreateShiftExport(context.Background(), 42, "emp-1", (7*time.Hour + 30*time.Minute).Milliseconds()); err != nil {
		t.Fatalf("CreateShiftExport: %v", err)
	}
}

func TestProcess_SendsSummaryAndMarksCompleted(t *testing.T) {
	repo := memory.NewRepository()
	newExport(t, repo)
	svc := &fakeEmailService{}
	proc := email.NewProcessor(svc, repo)

	shouldRetry, _, err := proc.Process(context.Background(), emailMessage())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if shouldRetry {
		t.Error("expected no retry on success")
	}
	if len(svc.sent) != 1 || svc.sent[0] != "emp-1@pos-service.com" {
		t.Errorf("unexpected recipients %v", svc.sent)
	}

	export, _ := repo.GetShiftExport(context.Background(), 42)
	if export.EmailStatus != model.StatusEmailCompleted {
		t.Errorf("expected COMPLETED, got %s", export.EmailStatus)
	}
}

func TestProcess_AlreadySentSkips(t *testing.T) {
	repo := memory.NewRepository()
	newExport(t, repo)
	if err := repo.UpdateEmailStatus(context.Background(), 42, model.StatusEmailCompleted, 0); err != nil {
		t.Fatalf("UpdateEmailStatus: %v", err)
	}
	svc := &fakeEmailService{}
	proc := email.NewProcessor(svc, repo)

	shouldRetry, _, err := proc.Process(context.Background(), emailMessage())
	if err != nil || shouldRetry {
		t.Fatalf("expected clean no-op, got retry=%v err=%v", shouldRetry, err)
	}
	if len(svc.sent) != 0 {
		t.Errorf("expected no email for completed job, got %v", svc.sent)
	}
}

func TestProcess_SendFailureSchedulesRetry(t *testing.T) {
	repo := memory.NewRepository()
	newExport(t, repo)
	svc := &fakeEmailService{err: errors.New("ses throttled")}
	proc := email.NewProcessor(svc, repo)

	shouldRetry, delay, err := proc.Process(context.Background(), emailMessage())
	if err == nil {
		t.Fatal("expected send error")
	}
	if !shouldRetry {
		t.Error("expected retry on send failure")
	}
	if delay != 20 {
		t.Errorf("expected 20s backoff for first retry, got %d", delay)
	}

	export, _ := repo.GetShiftExport(context.Background(), 42)
	if export.EmailRetryCount != 1 {
		t.Errorf("expected retry count 1, got %d", export.EmailRetryCount)
	}
}

func TestProcess_MalformedMessageNotRetried(t *testing.T) {
	proc := email.NewProcessor(&fakeEmailService{}, memory.NewRepository())

	shouldRetry, _, err := proc.Process(context.Background(), types.Message{Body: aws.String("{broken")})
	if err == nil {
		t.Fatal("expected unmarshal error")
	}
	if shouldRetry {
		t.Error("malformed message must not be retried")
	}
}
