package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

func newAccumulationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testEvent() models.AttendanceEvent {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	checkIn := start.Add(5 * time.Minute)
	return models.AttendanceEvent{
		EmployeeID:    "emp-1",
		Date:          start,
		CheckIn:       &checkIn,
		ExpectedStart: start,
		SourceID:      "src-1",
	}
}

func testOutcome() models.ClassifiedOutcome {
	return models.ClassifiedOutcome{Kind: models.KindLateArrival, RuleID: "late-1", LateMinutes: 5}
}

func accumulationRows(late, direct, formal int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"employee_id", "month", "year", "late_arrivals_count", "direct_tardiness_count", "formal_tardies_count", "administrative_acts_count", "created_at", "updated_at"}).
		AddRow("emp-1", 3, 2026, late, direct, formal, 0, now, now)
}

func TestApplyEventMutatesUnderLock(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO applied_events")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("applied-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("emp-1", 3, 2026).
		WillReturnRows(accumulationRows(2, 0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tardiness_accumulations")).
		WithArgs(3, 0, 1, 0, sqlmock.AnyArg(), "emp-1", 3, 2026).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applied_events SET formal_delta")).
		WithArgs(1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, duplicate, err := repo.ApplyEvent(context.Background(), testEvent(), testOutcome(), func(row *models.TardinessAccumulation) int {
		row.LateArrivalsCount++
		row.FormalTardiesCount++
		return 1
	})
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, 1, applied.FormalDelta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyEventCreatesRowLazily(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO applied_events")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("applied-1"))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("emp-1", 3, 2026).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tardiness_accumulations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("emp-1", 3, 2026).
		WillReturnRows(accumulationRows(0, 0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tardiness_accumulations")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applied_events SET formal_delta")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, duplicate, err := repo.ApplyEvent(context.Background(), testEvent(), testOutcome(), func(row *models.TardinessAccumulation) int {
		row.LateArrivalsCount++
		return 0
	})
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, 0, applied.FormalDelta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyEventDuplicateSourceID(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	mock.ExpectBegin()
	// ON CONFLICT DO NOTHING returns no rows for a replayed source_id.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO applied_events")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	mutated := false
	applied, duplicate, err := repo.ApplyEvent(context.Background(), testEvent(), testOutcome(), func(row *models.TardinessAccumulation) int {
		mutated = true
		return 0
	})
	require.NoError(t, err)
	assert.True(t, duplicate)
	assert.Nil(t, applied)
	assert.False(t, mutated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyEventMapsSerializationFailure(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO applied_events")).
		WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()

	_, _, err := repo.ApplyEvent(context.Background(), testEvent(), testOutcome(), func(row *models.TardinessAccumulation) int { return 0 })
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConcurrencyRetry.Code))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormalDeltas(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	from := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"event_date", "formal_delta"}).
		AddRow(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), 1).
		AddRow(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_date, formal_delta FROM applied_events")).
		WithArgs("emp-1", from, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(rows)

	deltas, err := repo.FormalDeltas(context.Background(), "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, 1, deltas[0].FormalDelta)
	assert.Equal(t, 2, deltas[1].FormalDelta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFormalDeltasUpperBoundCoversWholeDay(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	from := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 8, 15, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"event_date", "formal_delta"}).
		AddRow(time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC), 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_date, formal_delta FROM applied_events")).
		WithArgs("emp-1", from, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(rows)

	deltas, err := repo.FormalDeltas(context.Background(), "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, 1, deltas[0].FormalDelta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesLedgerAndEventLog(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tardiness_accumulations")).
		WithArgs("emp-1", 2026, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM applied_events")).
		WithArgs("emp-1", 2026, 3).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "emp-1", 2026, 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newAccumulationRepoMock(t)
	defer cleanup()
	repo := NewAccumulationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tardiness_accumulations")).
		WithArgs("emp-1", 2026, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "emp-1", 2026, 3)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound.Code))
	require.NoError(t, mock.ExpectationsWereMet())
}
