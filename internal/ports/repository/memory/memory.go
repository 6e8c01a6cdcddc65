// Package memory holds an in-memory Repository used by tests and local
// development. It mirrors the PostgreSQL implementation's observable
// behavior behind the same interface and must never back a production
// deployment.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"timeclock.service/internal/core/model"
	"timeclock.service/internal/timeclock"
)

type Repository struct {
	mu      sync.Mutex
	nextID  int64
	events  []timeclock.Event
	exports map[int64]*model.ShiftExport
}

func NewRepository() *Repository {
	return &Repository{exports: make(map[int64]*model.ShiftExport)}
}

func (r *Repository) AppendEvent(_ context.Context, employeeID string, eventType timeclock.EventType, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.events = append(r.events, timeclock.Event{
		ID:         r.nextID,
		EmployeeID: employeeID,
		Type:       eventType,
		At:         at,
		CreatedAt:  time.Now().UTC(),
	})
	return r.nextID, nil
}

func (r *Repository) ListEvents(_ context.Context, employeeID string, start, end time.Time) ([]timeclock.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []timeclock.Event
	for _, ev := range r.events {
		if ev.EmployeeID != employeeID || !inWindow(ev.At, start, end) {
			continue
		}
		out = append(out, ev)
	}
	sortEvents(out)
	return out, nil
}

func (r *Repository) ListAllEvents(_ context.Context, start, end time.Time) ([]timeclock.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []timeclock.Event
	for _, ev := range r.events {
		if !inWindow(ev.At, start, end) {
			continue
		}
		out = append(out, ev)
	}
	sortEvents(out)
	return out, nil
}

func (r *Repository) CreateShiftExport(_ context.Context, clockOutEventID int64, employeeID string, netWorkedMillis int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exports[clockOutEventID]; ok {
		return fmt.Errorf("shift export %d already exists", clockOutEventID)
	}
	r.exports[clockOutEventID] = &model.ShiftExport{
		ClockOutEventID: clockOutEventID,
		EmployeeID:      employeeID,
		NetWorkedMillis: netWorkedMillis,
		PayrollStatus:   model.StatusPayrollPending,
		EmailStatus:     model.StatusEmailPending,
	}
	return nil
}

func (r *Repository) GetShiftExport(_ context.Context, clockOutEventID int64) (*model.ShiftExport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	se, ok := r.exports[clockOutEventID]
	if !ok {
		return nil, fmt.Errorf("shift export %d not found", clockOutEventID)
	}
	cp := *se
	return &cp, nil
}

func (r *Repository) UpdatePayrollStatus(_ context.Context, clockOutEventID int64, status model.PayrollStatus, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	se, ok := r.exports[clockOutEventID]
	if !ok {
		return fmt.Errorf("shift export %d not found", clockOutEventID)
	}
	se.PayrollStatus = status
	se.PayrollRetryCount = retryCount
	return nil
}

func (r *Repository) UpdateEmailStatus(_ context.Context, clockOutEventID int64, status model.EmailStatus, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	se, ok := r.exports[clockOutEventID]
	if !ok {
		return fmt.Errorf("shift export %d not found", clockOutEventID)
	}
	se.EmailStatus = status
	se.EmailRetryCount = retryCount
	return nil
}

// Events returns a copy of all recorded events. Test-only helper.
func (r *Repository) Events() []timeclock.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]timeclock.Event, len(r.events))
	copy(out, r.events)
	return out
}

// SeedEvent inserts an event with an explicit timestamp. Test-only helper;
// the production path always stamps events server-side at recording time.
func (r *Repository) SeedEvent(employeeID string, eventType timeclock.EventType, at time.Time) int64 {
	id, _ := r.AppendEvent(context.Background(), employeeID, eventType, at)
	return id
}

func inWindow(at, start, end time.Time) bool {
	if !start.IsZero() && at.Before(start) {
		return false
	}
	if !end.IsZero() && !at.Before(end) {
		return false
	}
	return true
}

func sortEvents(events []timeclock.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].At.Equal(events[j].At) {
			return events[i].ID < events[j].ID
		}
		return events[i].At.Before(events[j].At)
	})
}
