package models

import "time"

// AttendanceEvent is one check-in observation delivered by the external
// capture subsystem. SourceID is the stable idempotency key; CheckIn is nil
// when the employee never checked in (absence path, handled elsewhere).
type AttendanceEvent struct {
	EmployeeID    string     `db:"employee_id" json:"employee_id"`
	Date          time.Time  `db:"event_date" json:"date"`
	CheckIn       *time.Time `db:"check_in" json:"check_in,omitempty"`
	ExpectedStart time.Time  `db:"expected_start" json:"expected_start"`
	SourceID      string     `db:"source_id" json:"source_id"`
}

// ClassifiedOutcome is the classifier's verdict for a single event.
type ClassifiedOutcome struct {
	Kind        TardinessKind `json:"kind"`
	RuleID      string        `json:"rule_id"`
	LateMinutes int           `json:"late_minutes"`
}

// AppliedEvent is one row of the day-granular applied-event log. It backs
// both idempotency (unique source_id) and the rolling-window escalation
// arithmetic.
type AppliedEvent struct {
	ID          string        `db:"id" json:"id"`
	EmployeeID  string        `db:"employee_id" json:"employee_id"`
	SourceID    string        `db:"source_id" json:"source_id"`
	EventDate   time.Time     `db:"event_date" json:"event_date"`
	RuleID      *string       `db:"rule_id" json:"rule_id,omitempty"`
	Kind        TardinessKind `db:"kind" json:"kind"`
	LateMinutes int           `db:"late_minutes" json:"late_minutes"`
	FormalDelta int           `db:"formal_delta" json:"formal_delta"`
	AppliedAt   time.Time     `db:"applied_at" json:"applied_at"`
}

// FormalDeltaRow is a windowed slice of the applied-event log used by the
// escalation evaluator.
type FormalDeltaRow struct {
	EventDate   time.Time `db:"event_date"`
	FormalDelta int       `db:"formal_delta"`
}

// EventApplication summarises what one event did to the engine state.
type EventApplication struct {
	SourceID      string             `json:"source_id"`
	Duplicate     bool               `json:"duplicate"`
	FlaggedReview bool               `json:"flagged_for_review,omitempty"`
	Outcome       *ClassifiedOutcome `json:"outcome,omitempty"`
	Unclassified  bool               `json:"unclassified,omitempty"`
	FormalDelta   int                `json:"formal_delta"`
	Escalations   []string           `json:"escalation_record_ids,omitempty"`
}
