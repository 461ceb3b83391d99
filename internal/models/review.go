package models

import "time"

// ReviewStatus tracks a manual-review queue entry.
type ReviewStatus string

const (
	ReviewOpen     ReviewStatus = "OPEN"
	ReviewResolved ReviewStatus = "RESOLVED"
)

// ReviewEntry is an attendance event excluded from automatic classification
// (negative lateness beyond the skew tolerance) awaiting a human decision.
type ReviewEntry struct {
	ID            string       `db:"id" json:"id"`
	EmployeeID    string       `db:"employee_id" json:"employee_id"`
	SourceID      string       `db:"source_id" json:"source_id"`
	EventDate     time.Time    `db:"event_date" json:"event_date"`
	CheckIn       *time.Time   `db:"check_in" json:"check_in,omitempty"`
	ExpectedStart time.Time    `db:"expected_start" json:"expected_start"`
	Reason        string       `db:"reason" json:"reason"`
	Status        ReviewStatus `db:"status" json:"status"`
	ResolvedBy    *string      `db:"resolved_by" json:"resolved_by,omitempty"`
	Resolution    *string      `db:"resolution" json:"resolution,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	ResolvedAt    *time.Time   `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ReviewFilter scopes review queue listings.
type ReviewFilter struct {
	EmployeeID string
	Status     *ReviewStatus
	Page       int
	PageSize   int
}
