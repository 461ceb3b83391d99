package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

func newDisciplinaryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testRecord() *models.DisciplinaryRecord {
	return &models.DisciplinaryRecord{
		EmployeeID:   "emp-1",
		RuleID:       "action-1",
		TriggerType:  models.TriggerTardiness,
		TriggerCount: 3,
		ActionType:   models.ActionWrittenWarning,
		Description:  "Written warning: 3 tardiness infractions within 30 days",
		WindowKey:    time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		AppliedDate:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Status:       models.StatusPending,
	}
}

func recordRows(record *models.DisciplinaryRecord, status models.RecordStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "employee_id", "rule_id", "trigger_type", "trigger_count", "action_type", "description", "window_key", "applied_date", "status", "approver_id", "approved_at", "created_at", "updated_at"}).
		AddRow("record-1", record.EmployeeID, record.RuleID, record.TriggerType, record.TriggerCount, record.ActionType, record.Description, record.WindowKey, record.AppliedDate, status, nil, nil, now, now)
}

func TestCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newDisciplinaryRepoMock(t)
	defer cleanup()
	repo := NewDisciplinaryRepository(db)

	record := testRecord()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO disciplinary_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("record-1"))

	created, err := repo.CreateIfAbsent(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfAbsentSuppressedByDedupKey(t *testing.T) {
	db, mock, cleanup := newDisciplinaryRepoMock(t)
	defer cleanup()
	repo := NewDisciplinaryRepository(db)

	// ON CONFLICT DO NOTHING yields no rows when the window is already
	// punished.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO disciplinary_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	created, err := repo.CreateIfAbsent(context.Background(), testRecord())
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionApproveStampsApprover(t *testing.T) {
	db, mock, cleanup := newDisciplinaryRepoMock(t)
	defer cleanup()
	repo := NewDisciplinaryRepository(db)

	record := testRecord()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE disciplinary_records SET")).
		WithArgs(models.StatusActive, sqlmock.AnyArg(), "hr-1", sqlmock.AnyArg(), "record-1", models.StatusPending).
		WillReturnRows(recordRows(record, models.StatusActive))

	approver := "hr-1"
	updated, err := repo.Transition(context.Background(), "record-1", []models.RecordStatus{models.StatusPending}, models.StatusActive, &approver)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, updated.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionGuardsCurrentStatus(t *testing.T) {
	db, mock, cleanup := newDisciplinaryRepoMock(t)
	defer cleanup()
	repo := NewDisciplinaryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE disciplinary_records SET")).
		WithArgs(models.StatusCompleted, sqlmock.AnyArg(), "record-1", models.StatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Transition(context.Background(), "record-1", []models.RecordStatus{models.StatusActive}, models.StatusCompleted, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition.Code))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFilters(t *testing.T) {
	db, mock, cleanup := newDisciplinaryRepoMock(t)
	defer cleanup()
	repo := NewDisciplinaryRepository(db)

	record := testRecord()
	status := models.StatusPending
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, employee_id, rule_id")).
		WithArgs("emp-1", status).
		WillReturnRows(recordRows(record, status))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM disciplinary_records")).
		WithArgs("emp-1", status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.DisciplinaryRecordFilter{
		EmployeeID: "emp-1",
		Status:     &status,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "emp-1", records[0].EmployeeID)
	require.NoError(t, mock.ExpectationsWereMet())
}
