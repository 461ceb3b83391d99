package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

func intPtr(v int) *int { return &v }

func testSnapshot(t *testing.T) *rules.Snapshot {
	t.Helper()
	snap, err := rules.NewSnapshot(1, []models.TardinessRule{
		{
			ID:                         "late-1",
			Name:                       "Minor lateness",
			Kind:                       models.KindLateArrival,
			StartMinutes:               1,
			EndMinutes:                 intPtr(16),
			AccumulationThreshold:      3,
			FormalTardiesPerConversion: 1,
			Active:                     true,
		},
		{
			ID:                         "direct-1",
			Name:                       "Serious lateness",
			Kind:                       models.KindDirectTardiness,
			StartMinutes:               16,
			EndMinutes:                 nil,
			AccumulationThreshold:      1,
			FormalTardiesPerConversion: 2,
			Active:                     true,
		},
	}, nil)
	require.NoError(t, err)
	return snap
}

func classifyEvent(checkInOffset time.Duration) models.AttendanceEvent {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	checkIn := start.Add(checkInOffset)
	return models.AttendanceEvent{
		EmployeeID:    "emp-1",
		Date:          start,
		CheckIn:       &checkIn,
		ExpectedStart: start,
		SourceID:      "src-1",
	}
}

func TestClassifyBoundaries(t *testing.T) {
	snap := testSnapshot(t)
	tolerance := 2 * time.Minute

	cases := []struct {
		name     string
		offset   time.Duration
		wantRule string
		wantLate int
	}{
		{"on time", 0, "", 0},
		{"sub-minute lateness floors to zero", 59 * time.Second, "", 0},
		{"one minute late", time.Minute, "late-1", 1},
		{"fifteen minutes is still minor", 15 * time.Minute, "late-1", 15},
		{"sixteen minutes is direct", 16 * time.Minute, "direct-1", 16},
		{"range end is exclusive", 15*time.Minute + 59*time.Second, "late-1", 15},
		{"deep lateness matches unbounded range", 4 * time.Hour, "direct-1", 240},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Classify(classifyEvent(tc.offset), snap, tolerance)
			require.NoError(t, err)
			assert.Equal(t, tc.wantLate, result.LateMinutes)
			if tc.wantRule == "" {
				assert.Nil(t, result.Outcome)
				return
			}
			require.NotNil(t, result.Outcome)
			assert.Equal(t, tc.wantRule, result.Outcome.RuleID)
		})
	}
}

func TestClassifyEarlyCheckIn(t *testing.T) {
	snap := testSnapshot(t)
	tolerance := 2 * time.Minute

	// Within tolerance: treated as on time.
	result, err := Classify(classifyEvent(-90*time.Second), snap, tolerance)
	require.NoError(t, err)
	assert.Nil(t, result.Outcome)

	// Beyond tolerance: rejected for manual review.
	_, err = Classify(classifyEvent(-3*time.Minute), snap, tolerance)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTimestamp.Code))
}

func TestClassifyAbsence(t *testing.T) {
	snap := testSnapshot(t)
	event := classifyEvent(0)
	event.CheckIn = nil

	result, err := Classify(event, snap, 2*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, result.Outcome)
	assert.False(t, result.Unclassified)
}

func TestClassifyUnclassifiedGap(t *testing.T) {
	snap, err := rules.NewSnapshot(1, []models.TardinessRule{
		{
			ID:                         "late-1",
			Name:                       "Minor lateness",
			Kind:                       models.KindLateArrival,
			StartMinutes:               1,
			EndMinutes:                 intPtr(10),
			AccumulationThreshold:      3,
			FormalTardiesPerConversion: 1,
			Active:                     true,
		},
	}, nil)
	require.NoError(t, err)

	result, err := Classify(classifyEvent(30*time.Minute), snap, 2*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, result.Outcome)
	assert.True(t, result.Unclassified)
	assert.Equal(t, 30, result.LateMinutes)
}
