package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func minorRule() models.TardinessRule {
	return models.TardinessRule{
		ID:                         "late-1",
		Name:                       "Minor lateness",
		Kind:                       models.KindLateArrival,
		StartMinutes:               1,
		EndMinutes:                 intPtr(16),
		AccumulationThreshold:      3,
		FormalTardiesPerConversion: 1,
		Active:                     true,
	}
}

func directRule() models.TardinessRule {
	return models.TardinessRule{
		ID:                         "direct-1",
		Name:                       "Serious lateness",
		Kind:                       models.KindDirectTardiness,
		StartMinutes:               16,
		AccumulationThreshold:      1,
		FormalTardiesPerConversion: 2,
		Active:                     true,
	}
}

func warningRule() models.DisciplinaryActionRule {
	return models.DisciplinaryActionRule{
		ID:           "action-1",
		Name:         "Written warning",
		TriggerType:  models.TriggerTardiness,
		TriggerCount: 3,
		PeriodDays:   30,
		ActionType:   models.ActionWrittenWarning,
		Active:       true,
	}
}

func TestValidateRejectsBrokenRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.TardinessRule)
	}{
		{"unknown kind", func(r *models.TardinessRule) { r.Kind = "SOMETHING" }},
		{"negative start", func(r *models.TardinessRule) { r.StartMinutes = -1 }},
		{"empty range", func(r *models.TardinessRule) { r.EndMinutes = intPtr(1) }},
		{"zero threshold", func(r *models.TardinessRule) { r.AccumulationThreshold = 0 }},
		{"zero conversion yield", func(r *models.TardinessRule) { r.FormalTardiesPerConversion = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := minorRule()
			tc.mutate(&rule)
			err := Validate([]models.TardinessRule{rule}, nil)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration.Code))
		})
	}
}

func TestValidateDirectTardinessThresholdMustBeOne(t *testing.T) {
	rule := directRule()
	rule.AccumulationThreshold = 2
	err := Validate([]models.TardinessRule{rule}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration.Code))
}

func TestValidateRejectsOverlappingActiveRules(t *testing.T) {
	first := minorRule()
	second := minorRule()
	second.ID = "late-2"
	second.Name = "Overlapping"
	second.StartMinutes = 10
	second.EndMinutes = intPtr(20)

	err := Validate([]models.TardinessRule{first, second}, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration.Code))

	// Deactivating one of them clears the conflict but the rule definition
	// is still validated for shape.
	second.Active = false
	require.NoError(t, Validate([]models.TardinessRule{first, second}, nil))
}

func TestValidateUnboundedRangeOverlapsEverythingAbove(t *testing.T) {
	unbounded := minorRule()
	unbounded.EndMinutes = nil
	higher := minorRule()
	higher.ID = "late-2"
	higher.Name = "Higher band"
	higher.StartMinutes = 30
	higher.EndMinutes = nil

	err := Validate([]models.TardinessRule{unbounded, higher}, nil)
	require.Error(t, err)
}

func TestValidateSuspensionNeedsDays(t *testing.T) {
	action := warningRule()
	action.ActionType = models.ActionSuspension
	err := Validate(nil, []models.DisciplinaryActionRule{action})
	require.Error(t, err)

	action.SuspensionDays = intPtr(3)
	require.NoError(t, Validate(nil, []models.DisciplinaryActionRule{action}))
}

func TestSnapshotMatch(t *testing.T) {
	snap, err := NewSnapshot(1, []models.TardinessRule{minorRule(), directRule()}, nil)
	require.NoError(t, err)

	assert.Nil(t, snap.Match(0))
	require.NotNil(t, snap.Match(1))
	assert.Equal(t, "late-1", snap.Match(15).ID)
	assert.Equal(t, "direct-1", snap.Match(16).ID)
	assert.Equal(t, "direct-1", snap.Match(500).ID)
}

func TestSnapshotMatchCrossKindOverlapSmallestStartWins(t *testing.T) {
	late := minorRule()
	late.StartMinutes = 10
	late.EndMinutes = intPtr(20)
	direct := directRule()
	direct.StartMinutes = 5
	direct.EndMinutes = nil

	// Non-overlap is enforced per kind, so this set is valid even though
	// both ranges contain [10, 20).
	snap, err := NewSnapshot(1, []models.TardinessRule{late, direct}, nil)
	require.NoError(t, err)

	assert.Equal(t, "direct-1", snap.Match(7).ID)
	assert.Equal(t, "direct-1", snap.Match(15).ID)
	assert.Equal(t, "direct-1", snap.Match(19).ID)
	assert.Equal(t, "direct-1", snap.Match(30).ID)
	assert.Nil(t, snap.Match(4))
}

func TestSnapshotRuleLookup(t *testing.T) {
	inactive := directRule()
	inactive.ID = "direct-2"
	inactive.StartMinutes = 60
	inactive.Active = false

	snap, err := NewSnapshot(1, []models.TardinessRule{minorRule(), directRule(), inactive}, nil)
	require.NoError(t, err)

	require.NotNil(t, snap.Rule("late-1"))
	assert.Equal(t, models.KindLateArrival, snap.Rule("late-1").Kind)
	require.NotNil(t, snap.Rule("direct-1"))
	assert.Nil(t, snap.Rule("direct-2"))
	assert.Nil(t, snap.Rule("missing"))
}

func TestSnapshotMatchIgnoresInactive(t *testing.T) {
	inactive := minorRule()
	inactive.Active = false
	snap, err := NewSnapshot(1, []models.TardinessRule{inactive}, nil)
	require.NoError(t, err)
	assert.Nil(t, snap.Match(5))
}

func TestSnapshotActionRules(t *testing.T) {
	escalated := warningRule()
	escalated.ID = "action-2"
	escalated.Name = "Suspension"
	escalated.TriggerCount = 5
	escalated.PeriodDays = 90
	escalated.ActionType = models.ActionSuspension
	escalated.SuspensionDays = intPtr(3)

	snap, err := NewSnapshot(1, nil, []models.DisciplinaryActionRule{warningRule(), escalated})
	require.NoError(t, err)

	assert.Len(t, snap.ActionRules(models.TriggerTardiness), 2)
	assert.Empty(t, snap.ActionRules(models.TriggerAbsenteeism))
	assert.Equal(t, 90, snap.MaxPeriodDays(models.TriggerTardiness))
	assert.Equal(t, 0, snap.MaxPeriodDays(models.TriggerAbsenteeism))
}

func TestCatalogReplaceAndCurrent(t *testing.T) {
	catalog := NewCatalog()

	_, err := catalog.Current()
	require.Error(t, err)

	snap, err := catalog.Replace([]models.TardinessRule{minorRule()}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)

	current, err := catalog.Current()
	require.NoError(t, err)
	assert.Same(t, snap, current)

	// A failing replacement keeps the previous snapshot serving.
	broken := minorRule()
	broken.AccumulationThreshold = 0
	_, err = catalog.Replace([]models.TardinessRule{broken}, nil)
	require.Error(t, err)

	current, err = catalog.Current()
	require.NoError(t, err)
	assert.Same(t, snap, current)
}
