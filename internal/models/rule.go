package models

import "time"

// TardinessKind distinguishes accumulative late arrivals from immediate
// direct tardiness.
type TardinessKind string

const (
	KindLateArrival     TardinessKind = "LATE_ARRIVAL"
	KindDirectTardiness TardinessKind = "DIRECT_TARDINESS"
)

// Valid returns true when the kind is a supported value.
func (k TardinessKind) Valid() bool {
	switch k {
	case KindLateArrival, KindDirectTardiness:
		return true
	default:
		return false
	}
}

// TardinessRule classifies a lateness-in-minutes value. The minute range is
// half-open [StartMinutes, EndMinutes); a nil EndMinutes means unbounded.
type TardinessRule struct {
	ID                         string        `db:"id" json:"id"`
	Name                       string        `db:"name" json:"name"`
	Kind                       TardinessKind `db:"kind" json:"kind"`
	StartMinutes               int           `db:"start_minutes" json:"start_minutes"`
	EndMinutes                 *int          `db:"end_minutes" json:"end_minutes,omitempty"`
	AccumulationThreshold      int           `db:"accumulation_threshold" json:"accumulation_threshold"`
	FormalTardiesPerConversion int           `db:"formal_tardies_per_conversion" json:"formal_tardies_per_conversion"`
	Active                     bool          `db:"active" json:"active"`
	CreatedAt                  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time     `db:"updated_at" json:"updated_at"`
}

// Contains reports whether lateMinutes falls inside the rule's range.
func (r TardinessRule) Contains(lateMinutes int) bool {
	if lateMinutes < r.StartMinutes {
		return false
	}
	if r.EndMinutes != nil && lateMinutes >= *r.EndMinutes {
		return false
	}
	return true
}

// TriggerType names the infraction family a disciplinary rule watches.
type TriggerType string

const (
	TriggerTardiness   TriggerType = "TARDINESS"
	TriggerAbsenteeism TriggerType = "ABSENTEEISM"
)

// Valid returns true when the trigger type is a supported value.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerTardiness, TriggerAbsenteeism:
		return true
	default:
		return false
	}
}

// DisciplinaryActionType enumerates the sanctions a rule can impose.
type DisciplinaryActionType string

const (
	ActionWarning           DisciplinaryActionType = "WARNING"
	ActionWrittenWarning    DisciplinaryActionType = "WRITTEN_WARNING"
	ActionAdministrativeAct DisciplinaryActionType = "ADMINISTRATIVE_ACT"
	ActionSuspension        DisciplinaryActionType = "SUSPENSION"
	ActionTermination       DisciplinaryActionType = "TERMINATION"
)

// Valid returns true when the action type is a supported value.
func (a DisciplinaryActionType) Valid() bool {
	switch a {
	case ActionWarning, ActionWrittenWarning, ActionAdministrativeAct, ActionSuspension, ActionTermination:
		return true
	default:
		return false
	}
}

// DisciplinaryActionRule fires when an employee accrues TriggerCount formal
// infractions within a trailing window of PeriodDays.
type DisciplinaryActionRule struct {
	ID               string                 `db:"id" json:"id"`
	Name             string                 `db:"name" json:"name"`
	TriggerType      TriggerType            `db:"trigger_type" json:"trigger_type"`
	TriggerCount     int                    `db:"trigger_count" json:"trigger_count"`
	PeriodDays       int                    `db:"period_days" json:"period_days"`
	ActionType       DisciplinaryActionType `db:"action_type" json:"action_type"`
	SuspensionDays   *int                   `db:"suspension_days" json:"suspension_days,omitempty"`
	RequiresApproval bool                   `db:"requires_approval" json:"requires_approval"`
	AutoApply        bool                   `db:"auto_apply" json:"auto_apply"`
	Active           bool                   `db:"active" json:"active"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time              `db:"updated_at" json:"updated_at"`
}
