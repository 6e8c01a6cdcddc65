package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"timeclock.service/internal/core/model"
	"timeclock.service/internal/ports/messaging"
	"timeclock.service/internal/ports/repository"
	"timeclock.service/internal/worker/payrollapi"
)

// Processor handles jobs from the payroll queue, which involves calling the
// legacy payroll API. It uses a circuit breaker to avoid hammering the legacy
// system if it's having issues.
type Processor struct {
	Repo       repository.Repository
	payrollapi payrollapi.Client
	cb         *gobreaker.CircuitBreaker
}

// NewProcessor creates a new processor for the payroll queue. It sets up a
// circuit breaker to protect the legacy API from being overwhelmed.
func NewProcessor(r repository.Repository, client payrollapi.Client) *Processor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &Processor{
		Repo:       r,
		payrollapi: client,
		cb:         gobreaker.NewCircuitBreaker(settings),
	}
}

// Process is the core logic for handling a message from the payroll queue.
// It calls the legacy API through a circuit breaker and handles retries with
// exponential backoff via the message visibility timeout.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ShiftCompletedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal shift-completed event")
		return false, 0, err // Do not retry on malformed message
	}

	log.Ctx(ctx).Info().
		Str("employee_id", event.EmployeeID).
		Int64("net_worked_ms", event.NetWorkedMillis).
		Msg("Processing completed shift")

	record, err := p.Repo.GetShiftExport(ctx, event.ClockOutEventID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get shift export from db: %w", err)
	}

	if record.PayrollStatus == model.StatusPayrollCompleted {
		return false, 0, nil
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.payrollapi.RecordShift(ctx, event)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit Breaker is OPEN; skipping payroll API call")
		}
		newCount := record.PayrollRetryCount + 1
		p.Repo.UpdatePayrollStatus(ctx, event.ClockOutEventID, model.StatusPayrollPending, newCount)

		delay := calculateBackoff(newCount)
		return true, delay, err
	}

	err = p.Repo.UpdatePayrollStatus(ctx, event.ClockOutEventID, model.StatusPayrollCompleted, 0)
	return false, 0, err
}

// calculateBackoff determines how long to wait before retrying a failed job.
// It increases the delay exponentially with each retry.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600 // max at 1 hour
	}
	return backoff
}
