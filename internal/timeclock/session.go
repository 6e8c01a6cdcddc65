package timeclock

import "time"

// BreakInterval is one break nested inside a session. End is nil while the
// break is still running.
type BreakInterval struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end"`
}

// Session is one clock-in to clock-out work interval with zero or more nested
// breaks. End is nil while the session is still open.
type Session struct {
	Start  time.Time       `json:"start"`
	End    *time.Time      `json:"end"`
	Breaks []BreakInterval `json:"breaks"`
}

// NetWorked returns the session duration minus contained break time. An open
// session (or an open break) is closed at now for accounting purposes. The
// result is floored at zero so malformed data never yields a negative total.
func (s Session) NetWorked(now time.Time) time.Duration {
	end := now
	if s.End != nil {
		end = *s.End
	}
	if end.Before(s.Start) {
		return 0
	}
	net := end.Sub(s.Start) - s.BreakTime(now)
	if net < 0 {
		return 0
	}
	return net
}

// BreakTime returns the total break duration within the session, closing any
// still-open break at the session end (or at now for an open session).
func (s Session) BreakTime(now time.Time) time.Duration {
	end := now
	if s.End != nil {
		end = *s.End
	}
	var total time.Duration
	for _, b := range s.Breaks {
		be := end
		if b.End != nil {
			be = *b.End
		}
		if be.After(b.Start) {
			total += be.Sub(b.Start)
		}
	}
	return total
}

// BuildSessions folds one employee's event history, ascending by event time,
// into sessions with nested breaks. Events that violate the sequence grammar
// never abort the fold: the first clock-in of a session stays authoritative,
// unpaired events are skipped, and each skipped event is returned as an
// anomaly for audit. A break still open at clock-out is closed at the
// clock-out instant.
func BuildSessions(events []Event) ([]Session, []Anomaly) {
	var (
		sessions  []Session
		anomalies []Anomaly
		onBreak   bool
	)
	var cur *Session

	flag := func(ev Event, kind AnomalyKind) {
		anomalies = append(anomalies, Anomaly{
			EventID:    ev.ID,
			EmployeeID: ev.EmployeeID,
			At:         ev.At,
			Kind:       kind,
		})
	}

	for _, ev := range events {
		switch ev.Type {
		case EventClockIn:
			if cur != nil {
				flag(ev, AnomalyDoubleClockIn)
				continue
			}
			sessions = append(sessions, Session{Start: ev.At})
			cur = &sessions[len(sessions)-1]
			onBreak = false

		case EventBreakStart:
			if cur == nil {
				flag(ev, AnomalyOrphanBreakStart)
				continue
			}
			if onBreak {
				flag(ev, AnomalyDoubleBreakStart)
				continue
			}
			cur.Breaks = append(cur.Breaks, BreakInterval{Start: ev.At})
			onBreak = true

		case EventBreakEnd:
			if cur == nil || !onBreak {
				flag(ev, AnomalyOrphanBreakEnd)
				continue
			}
			t := ev.At
			cur.Breaks[len(cur.Breaks)-1].End = &t
			onBreak = false

		case EventClockOut:
			if cur == nil {
				flag(ev, AnomalyOrphanClockOut)
				continue
			}
			t := ev.At
			if onBreak {
				cur.Breaks[len(cur.Breaks)-1].End = &t
				onBreak = false
			}
			cur.End = &t
			cur = nil
		}
	}

	return sessions, anomalies
}
