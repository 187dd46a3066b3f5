// Package stats derives dashboard numbers from the session registry and the
// attendance ledger. Everything here is recomputed on demand; there is no
// cache to invalidate.
package stats

import (
	"context"
	"math"
	"time"

	"rollcall/internal/attendance"
)

const activeWindow = 30 * 24 * time.Hour

// LedgerReader is the read-only slice of the ledger the aggregator uses.
type LedgerReader interface {
	ListSince(ctx context.Context, cutoff time.Time) ([]attendance.Record, error)
	ListForStudent(ctx context.Context, studentID string) ([]attendance.Record, error)
}

// SessionCounter counts sessions ever created.
type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalSessions    int `json:"total_sessions"`
	TodaysAttendance int `json:"todays_attendance"`
	ActiveStudents   int `json:"active_students"`
}

// Aggregator computes read-side counts.
type Aggregator struct {
	sessions SessionCounter
	ledger   LedgerReader
	now      func() time.Time
}

// NewAggregator creates an aggregator.
func NewAggregator(sessions SessionCounter, ledger LedgerReader) *Aggregator {
	return &Aggregator{sessions: sessions, ledger: ledger, now: time.Now}
}

// WithClock replaces the aggregator clock, for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Overview computes the dashboard summary: total sessions, marks since local
// midnight, and distinct students over the last 30 days.
func (a *Aggregator) Overview(ctx context.Context) (Overview, error) {
	total, err := a.sessions.Count(ctx)
	if err != nil {
		return Overview{}, err
	}

	now := a.now()
	today, err := a.ledger.ListSince(ctx, startOfDay(now))
	if err != nil {
		return Overview{}, err
	}

	recent, err := a.ledger.ListSince(ctx, now.Add(-activeWindow))
	if err != nil {
		return Overview{}, err
	}
	seen := make(map[string]struct{}, len(recent))
	for _, rec := range recent {
		seen[rec.StudentID] = struct{}{}
	}

	return Overview{
		TotalSessions:    total,
		TodaysAttendance: len(today),
		ActiveStudents:   len(seen),
	}, nil
}

// StudentPercentage is a student's attendance as a rounded percentage of all
// sessions ever created. Zero sessions means zero percent.
func (a *Aggregator) StudentPercentage(ctx context.Context, studentID string) (int, error) {
	total, err := a.sessions.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	recs, err := a.ledger.ListForStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return int(math.Round(100 * float64(len(recs)) / float64(total))), nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
