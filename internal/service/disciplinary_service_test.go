package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

type disciplinaryRepoStub struct {
	records map[string]*models.DisciplinaryRecord
	dedup   map[string]string
}

func newDisciplinaryRepoStub() *disciplinaryRepoStub {
	return &disciplinaryRepoStub{
		records: make(map[string]*models.DisciplinaryRecord),
		dedup:   make(map[string]string),
	}
}

func (s *disciplinaryRepoStub) dedupKey(record *models.DisciplinaryRecord) string {
	return fmt.Sprintf("%s/%s/%s", record.EmployeeID, record.RuleID, record.WindowKey.Format("2006-01-02"))
}

func (s *disciplinaryRepoStub) CreateIfAbsent(_ context.Context, record *models.DisciplinaryRecord) (bool, error) {
	key := s.dedupKey(record)
	if _, ok := s.dedup[key]; ok {
		return false, nil
	}
	record.ID = fmt.Sprintf("record-%d", len(s.records)+1)
	s.dedup[key] = record.ID
	stored := *record
	s.records[record.ID] = &stored
	return true, nil
}

func (s *disciplinaryRepoStub) Get(_ context.Context, id string) (*models.DisciplinaryRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return record, nil
}

func (s *disciplinaryRepoStub) List(_ context.Context, _ models.DisciplinaryRecordFilter) ([]models.DisciplinaryRecord, int, error) {
	var result []models.DisciplinaryRecord
	for _, record := range s.records {
		result = append(result, *record)
	}
	return result, len(result), nil
}

func (s *disciplinaryRepoStub) Transition(_ context.Context, id string, from []models.RecordStatus, to models.RecordStatus, approverID *string) (*models.DisciplinaryRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, appErrors.ErrInvalidTransition
	}
	allowed := false
	for _, status := range from {
		if record.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.ErrInvalidTransition
	}
	record.Status = to
	if approverID != nil {
		record.ApproverID = approverID
		now := time.Now().UTC()
		record.ApprovedAt = &now
	}
	return record, nil
}

func escalationTrigger(rule models.DisciplinaryActionRule) models.EscalationTrigger {
	return models.EscalationTrigger{
		EmployeeID:    "emp-1",
		Rule:          rule,
		SnapshotCount: 3,
		WindowKey:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		EventDate:     time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestRecordTriggerStatusMatrix(t *testing.T) {
	cases := []struct {
		name             string
		requiresApproval bool
		autoApply        bool
		want             models.RecordStatus
	}{
		{"manual rule stays pending", false, false, models.StatusPending},
		{"auto apply activates", false, true, models.StatusActive},
		{"approval gate wins over auto apply", true, true, models.StatusPending},
		{"approval only stays pending", true, false, models.StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newDisciplinaryRepoStub()
			svc := NewDisciplinaryService(repo, nil, NewMetricsService(), nil, nil)

			rule := writtenWarningRule()
			rule.RequiresApproval = tc.requiresApproval
			rule.AutoApply = tc.autoApply

			id, err := svc.RecordTrigger(context.Background(), escalationTrigger(rule))
			require.NoError(t, err)
			require.NotEmpty(t, id)

			record, err := svc.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, record.Status)
			assert.Equal(t, 3, record.TriggerCount)
			assert.Equal(t, models.ActionWrittenWarning, record.ActionType)
		})
	}
}

func TestRecordTriggerDeduplicates(t *testing.T) {
	repo := newDisciplinaryRepoStub()
	svc := NewDisciplinaryService(repo, nil, NewMetricsService(), nil, nil)
	trigger := escalationTrigger(writtenWarningRule())

	id, err := svc.RecordTrigger(context.Background(), trigger)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Same employee, rule and window key: suppressed.
	id, err = svc.RecordTrigger(context.Background(), trigger)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Len(t, repo.records, 1)

	// A different window key is a new infraction cycle.
	trigger.WindowKey = trigger.WindowKey.AddDate(0, 2, 0)
	id, err = svc.RecordTrigger(context.Background(), trigger)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, repo.records, 2)
}

func TestApproveTransitions(t *testing.T) {
	repo := newDisciplinaryRepoStub()
	svc := NewDisciplinaryService(repo, nil, NewMetricsService(), nil, nil)

	rule := writtenWarningRule()
	rule.RequiresApproval = true
	id, err := svc.RecordTrigger(context.Background(), escalationTrigger(rule))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), id, nil)
	require.Error(t, err)

	record, err := svc.Approve(context.Background(), id, &models.JWTClaims{UserID: "hr-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, record.Status)
	require.NotNil(t, record.ApproverID)
	assert.Equal(t, "hr-1", *record.ApproverID)

	// Approving twice is an invalid transition.
	_, err = svc.Approve(context.Background(), id, &models.JWTClaims{UserID: "hr-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition.Code))
}

func TestCancelAndComplete(t *testing.T) {
	repo := newDisciplinaryRepoStub()
	svc := NewDisciplinaryService(repo, nil, NewMetricsService(), nil, nil)
	ctx := context.Background()

	rule := writtenWarningRule()
	rule.AutoApply = true
	id, err := svc.RecordTrigger(ctx, escalationTrigger(rule))
	require.NoError(t, err)

	record, err := svc.Complete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, record.Status)

	// A completed record can no longer be cancelled.
	_, err = svc.Cancel(ctx, id, &models.JWTClaims{UserID: "hr-1"})
	require.Error(t, err)

	trigger := escalationTrigger(rule)
	trigger.WindowKey = trigger.WindowKey.AddDate(0, 1, 0)
	id2, err := svc.RecordTrigger(ctx, trigger)
	require.NoError(t, err)

	record, err = svc.Cancel(ctx, id2, &models.JWTClaims{UserID: "hr-1"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, record.Status)
}
