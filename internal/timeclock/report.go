package timeclock

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidRange is returned when a report is requested with end before
// start. This is the one input the engine rejects outright.
var ErrInvalidRange = errors.New("report range end precedes start")

// ReportedBreak is a break interval as it counts toward a report: always
// closed, clipped to the session window it belongs to.
type ReportedBreak struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SessionReport is one session's contribution to a period report. Start and
// End are clipped to the report period; Open marks a session that had no
// clock-out and was closed at "now" for accounting.
type SessionReport struct {
	Start           time.Time       `json:"sessionStart"`
	End             time.Time       `json:"sessionEnd"`
	Open            bool            `json:"open"`
	Breaks          []ReportedBreak `json:"breakIntervals"`
	NetWorkedMillis int64           `json:"netWorkedMillis"`
	BreakMillis     int64           `json:"breakMillis"`
}

// Report is the payroll-review view of a period: every session overlapping
// the period, aggregate totals, and the anomalies found along the way.
type Report struct {
	Sessions          []SessionReport `json:"sessions"`
	TotalWorkedMillis int64           `json:"totalWorkedMillis"`
	TotalBreakMillis  int64           `json:"totalBreakMillis"`
	Anomalies         []Anomaly       `json:"anomalies"`
}

// DailyTotal aggregates the sessions attributed to one calendar day (UTC).
type DailyTotal struct {
	Day               time.Time `json:"day"`
	Sessions          int       `json:"sessions"`
	TotalWorkedMillis int64     `json:"totalWorkedMillis"`
	TotalBreakMillis  int64     `json:"totalBreakMillis"`
}

// BuildReport computes worked time net of breaks for every session
// overlapping [start, end). A session still open is closed at now, then
// clipped to the period; breaks are clipped to the session window that
// survives clipping, which keeps every reported break inside its session.
// Net worked time is floored at zero. The computation is a pure function of
// its arguments: identical input and now yield identical output.
func BuildReport(events []Event, start, end, now time.Time) (Report, error) {
	if end.Before(start) {
		return Report{}, ErrInvalidRange
	}

	sessions, anomalies := BuildSessions(events)
	rep := Report{Anomalies: anomalies}

	for _, s := range sessions {
		sr, ok := clipSession(s, start, end, now)
		if !ok {
			continue
		}
		rep.Sessions = append(rep.Sessions, sr)
		rep.TotalWorkedMillis += sr.NetWorkedMillis
		rep.TotalBreakMillis += sr.BreakMillis
	}
	return rep, nil
}

// DailyTotals buckets the sessions of BuildReport by calendar day (UTC).
// A session crossing midnight is attributed in full to the day its clipped
// start falls on; it is not split across days.
func DailyTotals(events []Event, start, end, now time.Time) ([]DailyTotal, error) {
	rep, err := BuildReport(events, start, end, now)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]*DailyTotal)
	for _, sr := range rep.Sessions {
		day := sr.Start.UTC().Truncate(24 * time.Hour)
		dt, ok := byDay[day]
		if !ok {
			dt = &DailyTotal{Day: day}
			byDay[day] = dt
		}
		dt.Sessions++
		dt.TotalWorkedMillis += sr.NetWorkedMillis
		dt.TotalBreakMillis += sr.BreakMillis
	}

	out := make([]DailyTotal, 0, len(byDay))
	for _, dt := range byDay {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// clipSession turns a session into its report form, clipped to [start, end)
// with open intervals closed at now. Returns false when nothing of the
// session survives the clipping.
func clipSession(s Session, start, end, now time.Time) (SessionReport, bool) {
	sessionEnd := now
	open := s.End == nil
	if !open {
		sessionEnd = *s.End
	}

	clipStart := maxTime(s.Start, start)
	clipEnd := minTime(sessionEnd, end)
	if !clipEnd.After(clipStart) {
		return SessionReport{}, false
	}

	sr := SessionReport{
		Start: clipStart,
		End:   clipEnd,
		Open:  open,
	}

	var breakTotal time.Duration
	for _, b := range s.Breaks {
		breakEnd := sessionEnd
		if b.End != nil {
			breakEnd = *b.End
		}
		bs := maxTime(b.Start, clipStart)
		be := minTime(breakEnd, clipEnd)
		if !be.After(bs) {
			continue
		}
		sr.Breaks = append(sr.Breaks, ReportedBreak{Start: bs, End: be})
		breakTotal += be.Sub(bs)
	}

	net := clipEnd.Sub(clipStart) - breakTotal
	if net < 0 {
		net = 0
	}
	sr.NetWorkedMillis = net.Milliseconds()
	sr.BreakMillis = breakTotal.Milliseconds()
	return sr, true
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
