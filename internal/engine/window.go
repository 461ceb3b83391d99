package engine

import (
	"time"

	"github.com/noah-isme/hr-discipline-api/internal/models"
)

// Crossing is the outcome of evaluating one rolling window against a
// trigger threshold. FirstCrossed is the day the running total first
// reached the threshold; it is the deterministic dedup key for the window.
type Crossing struct {
	Crossed      bool
	Total        int
	FirstCrossed time.Time
}

// WindowStart returns the first day included in a trailing window of
// periodDays ending at (and including) end.
func WindowStart(end time.Time, periodDays int) time.Time {
	return truncateDay(end).AddDate(0, 0, -(periodDays - 1))
}

// EvaluateWindow sums formal-tardy deltas whose event date falls inside the
// trailing periodDays window ending at end, and locates the day the sum
// first reached threshold. Rows must be sorted by event date ascending; the
// applied-event log is day-granular, so month boundaries need no
// pro-rating.
func EvaluateWindow(deltas []models.FormalDeltaRow, end time.Time, periodDays, threshold int) Crossing {
	start := WindowStart(end, periodDays)
	endDay := truncateDay(end)

	crossing := Crossing{}
	for _, row := range deltas {
		day := truncateDay(row.EventDate)
		if day.Before(start) || day.After(endDay) {
			continue
		}
		crossing.Total += row.FormalDelta
		if !crossing.Crossed && crossing.Total >= threshold {
			crossing.Crossed = true
			crossing.FirstCrossed = day
		}
	}
	return crossing
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
