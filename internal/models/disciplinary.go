package models

import "time"

// RecordStatus is the lifecycle state of a disciplinary record.
type RecordStatus string

const (
	StatusPending   RecordStatus = "PENDING"
	StatusActive    RecordStatus = "ACTIVE"
	StatusCompleted RecordStatus = "COMPLETED"
	StatusCancelled RecordStatus = "CANCELLED"
)

// Valid returns true when the status is a supported value.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// DisciplinaryRecord is one sanction produced by a rolling-window trigger.
// WindowKey is the day the threshold was first crossed; (employee, rule,
// window key) is unique so a sustained breach never double-punishes.
type DisciplinaryRecord struct {
	ID           string                 `db:"id" json:"id"`
	EmployeeID   string                 `db:"employee_id" json:"employee_id"`
	RuleID       string                 `db:"rule_id" json:"rule_id"`
	TriggerType  TriggerType            `db:"trigger_type" json:"trigger_type"`
	TriggerCount int                    `db:"trigger_count" json:"trigger_count"`
	ActionType   DisciplinaryActionType `db:"action_type" json:"action_type"`
	Description  string                 `db:"description" json:"description"`
	WindowKey    time.Time              `db:"window_key" json:"window_key"`
	AppliedDate  time.Time              `db:"applied_date" json:"applied_date"`
	Status       RecordStatus           `db:"status" json:"status"`
	ApproverID   *string                `db:"approver_id" json:"approver_id,omitempty"`
	ApprovedAt   *time.Time             `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `db:"updated_at" json:"updated_at"`
}

// DisciplinaryRecordFilter scopes record listing queries.
type DisciplinaryRecordFilter struct {
	EmployeeID string
	RuleID     string
	Status     *RecordStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// EscalationTrigger is the evaluator's instruction to the action recorder.
type EscalationTrigger struct {
	EmployeeID    string
	Rule          DisciplinaryActionRule
	SnapshotCount int
	WindowKey     time.Time
	EventDate     time.Time
}

// NotificationRequest is the fire-and-forget message handed to the external
// notification subsystem whenever a record is created.
type NotificationRequest struct {
	EmployeeID string                 `json:"employee_id"`
	RuleID     string                 `json:"rule_id"`
	RecordID   string                 `json:"record_id"`
	ActionType DisciplinaryActionType `json:"action_type"`
}
