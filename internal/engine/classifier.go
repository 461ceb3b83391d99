package engine

import (
	"fmt"
	"time"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

// ClassifyResult is the classifier's output for one attendance event.
// Outcome is nil when the event produced no classification; Unclassified is
// set when a positive lateness fell in a configured gap, so the caller can
// log it instead of dropping it silently.
type ClassifyResult struct {
	LateMinutes  int
	Outcome      *models.ClassifiedOutcome
	Unclassified bool
}

// Classify computes whole-minute lateness for the event and matches it
// against the snapshot's tardiness rules. A check-in earlier than the
// expected start by more than skewTolerance is rejected as an invalid
// timestamp; within the tolerance it is treated as on time.
func Classify(event models.AttendanceEvent, snap *rules.Snapshot, skewTolerance time.Duration) (ClassifyResult, error) {
	if event.CheckIn == nil {
		// Absence path: handled by the absenteeism classifier, not here.
		return ClassifyResult{}, nil
	}

	diff := event.CheckIn.Sub(event.ExpectedStart)
	if diff < -skewTolerance {
		return ClassifyResult{}, appErrors.Clone(appErrors.ErrInvalidTimestamp,
			fmt.Sprintf("check-in %s precedes expected start %s beyond tolerance",
				event.CheckIn.Format(time.RFC3339), event.ExpectedStart.Format(time.RFC3339)))
	}

	lateMinutes := int(diff / time.Minute)
	if lateMinutes <= 0 {
		return ClassifyResult{LateMinutes: 0}, nil
	}

	rule := snap.Match(lateMinutes)
	if rule == nil {
		return ClassifyResult{LateMinutes: lateMinutes, Unclassified: true}, nil
	}

	return ClassifyResult{
		LateMinutes: lateMinutes,
		Outcome: &models.ClassifiedOutcome{
			Kind:        rule.Kind,
			RuleID:      rule.ID,
			LateMinutes: lateMinutes,
		},
	}, nil
}
