package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

type ruleRepoStub struct {
	tardiness map[string]models.TardinessRule
	actions   map[string]models.DisciplinaryActionRule
}

func newRuleRepoStub() *ruleRepoStub {
	return &ruleRepoStub{
		tardiness: make(map[string]models.TardinessRule),
		actions:   make(map[string]models.DisciplinaryActionRule),
	}
}

func (s *ruleRepoStub) ListTardiness(_ context.Context) ([]models.TardinessRule, error) {
	result := make([]models.TardinessRule, 0, len(s.tardiness))
	for _, rule := range s.tardiness {
		result = append(result, rule)
	}
	return result, nil
}

func (s *ruleRepoStub) GetTardiness(_ context.Context, id string) (*models.TardinessRule, error) {
	rule, ok := s.tardiness[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &rule, nil
}

func (s *ruleRepoStub) CreateTardiness(_ context.Context, rule *models.TardinessRule) error {
	if rule.ID == "" {
		rule.ID = fmt.Sprintf("tardiness-%d", len(s.tardiness)+1)
	}
	s.tardiness[rule.ID] = *rule
	return nil
}

func (s *ruleRepoStub) UpdateTardiness(_ context.Context, rule *models.TardinessRule) error {
	if _, ok := s.tardiness[rule.ID]; !ok {
		return appErrors.ErrNotFound
	}
	s.tardiness[rule.ID] = *rule
	return nil
}

func (s *ruleRepoStub) ListActions(_ context.Context) ([]models.DisciplinaryActionRule, error) {
	result := make([]models.DisciplinaryActionRule, 0, len(s.actions))
	for _, rule := range s.actions {
		result = append(result, rule)
	}
	return result, nil
}

func (s *ruleRepoStub) GetAction(_ context.Context, id string) (*models.DisciplinaryActionRule, error) {
	rule, ok := s.actions[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &rule, nil
}

func (s *ruleRepoStub) CreateAction(_ context.Context, rule *models.DisciplinaryActionRule) error {
	if rule.ID == "" {
		rule.ID = fmt.Sprintf("action-%d", len(s.actions)+1)
	}
	s.actions[rule.ID] = *rule
	return nil
}

func (s *ruleRepoStub) UpdateAction(_ context.Context, rule *models.DisciplinaryActionRule) error {
	if _, ok := s.actions[rule.ID]; !ok {
		return appErrors.ErrNotFound
	}
	s.actions[rule.ID] = *rule
	return nil
}

func minorRuleRequest() TardinessRuleRequest {
	end := 16
	return TardinessRuleRequest{
		Name:                       "Minor lateness",
		Kind:                       "LATE_ARRIVAL",
		StartMinutes:               1,
		EndMinutes:                 &end,
		AccumulationThreshold:      3,
		FormalTardiesPerConversion: 1,
		Active:                     true,
	}
}

func TestRuleServiceCreateTardinessReloadsSnapshot(t *testing.T) {
	repo := newRuleRepoStub()
	catalog := rules.NewCatalog()
	svc := NewRuleService(repo, catalog, nil, nil)
	ctx := context.Background()

	rule, err := svc.CreateTardiness(ctx, minorRuleRequest())
	require.NoError(t, err)
	require.NotEmpty(t, rule.ID)

	snap, err := catalog.Current()
	require.NoError(t, err)
	require.NotNil(t, snap.Match(5))
	assert.Equal(t, rule.ID, snap.Match(5).ID)
}

func TestRuleServiceRejectsOverlap(t *testing.T) {
	repo := newRuleRepoStub()
	svc := NewRuleService(repo, rules.NewCatalog(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateTardiness(ctx, minorRuleRequest())
	require.NoError(t, err)

	overlapping := minorRuleRequest()
	overlapping.Name = "Overlapping band"
	overlapping.StartMinutes = 10
	overlapping.EndMinutes = nil
	_, err = svc.CreateTardiness(ctx, overlapping)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration.Code))
	assert.Len(t, repo.tardiness, 1, "a rejected rule must not be persisted")
}

func TestRuleServiceRejectsInvalidPayload(t *testing.T) {
	svc := NewRuleService(newRuleRepoStub(), rules.NewCatalog(), nil, nil)

	req := minorRuleRequest()
	req.Kind = "WHENEVER"
	_, err := svc.CreateTardiness(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation.Code))
}

func TestRuleServiceUpdateValidatesProspectiveSet(t *testing.T) {
	repo := newRuleRepoStub()
	svc := NewRuleService(repo, rules.NewCatalog(), nil, nil)
	ctx := context.Background()

	first, err := svc.CreateTardiness(ctx, minorRuleRequest())
	require.NoError(t, err)

	direct := TardinessRuleRequest{
		Name:                       "Serious lateness",
		Kind:                       "DIRECT_TARDINESS",
		StartMinutes:               16,
		AccumulationThreshold:      1,
		FormalTardiesPerConversion: 2,
		Active:                     true,
	}
	_, err = svc.CreateTardiness(ctx, direct)
	require.NoError(t, err)

	// Widening the first band into the second must fail; the stored rule
	// keeps its old range.
	widened := minorRuleRequest()
	widened.EndMinutes = nil
	_, err = svc.UpdateTardiness(ctx, first.ID, widened)
	require.Error(t, err)

	kept, err := repo.GetTardiness(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, kept.EndMinutes)
	assert.Equal(t, 16, *kept.EndMinutes)
}

func TestRuleServiceSetActiveClearsConflict(t *testing.T) {
	repo := newRuleRepoStub()
	catalog := rules.NewCatalog()
	svc := NewRuleService(repo, catalog, nil, nil)
	ctx := context.Background()

	rule, err := svc.CreateTardiness(ctx, minorRuleRequest())
	require.NoError(t, err)

	updated, err := svc.SetTardinessActive(ctx, rule.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	snap, err := catalog.Current()
	require.NoError(t, err)
	assert.Nil(t, snap.Match(5))
}

func TestRuleServiceCreateActionRequiresSuspensionDays(t *testing.T) {
	svc := NewRuleService(newRuleRepoStub(), rules.NewCatalog(), nil, nil)

	req := ActionRuleRequest{
		Name:         "Suspension tier",
		TriggerType:  "TARDINESS",
		TriggerCount: 5,
		PeriodDays:   90,
		ActionType:   "SUSPENSION",
		Active:       true,
	}
	_, err := svc.CreateAction(context.Background(), req)
	require.Error(t, err)

	days := 3
	req.SuspensionDays = &days
	rule, err := svc.CreateAction(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ActionSuspension, rule.ActionType)
}
