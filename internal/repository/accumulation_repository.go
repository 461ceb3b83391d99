package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

// LedgerMutation mutates a locked ledger row in place and returns the
// formal-tardy delta the mutation produced. It runs inside the row lock so
// the conversion arithmetic always sees the freshest counters.
type LedgerMutation func(row *models.TardinessAccumulation) int

// AccumulationRepository owns the ledger rows and the applied-event log.
// The applied-event log is the idempotency record (unique source_id) and
// the day-granular input for rolling-window escalation.
type AccumulationRepository struct {
	db *sqlx.DB
}

// NewAccumulationRepository constructs the repository.
func NewAccumulationRepository(db *sqlx.DB) *AccumulationRepository {
	return &AccumulationRepository{db: db}
}

const accumulationColumns = `employee_id, month, year, late_arrivals_count, direct_tardiness_count, formal_tardies_count, administrative_acts_count, created_at, updated_at`

// ApplyEvent applies one classified outcome to the (employee, month, year)
// ledger row under a row lock. Re-delivery of an already-applied source_id
// commits nothing and reports duplicate=true. The returned AppliedEvent
// carries the formal delta for the escalation evaluator.
func (r *AccumulationRepository) ApplyEvent(ctx context.Context, event models.AttendanceEvent, outcome models.ClassifiedOutcome, mutate LedgerMutation) (*models.AppliedEvent, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin apply event: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	applied := models.AppliedEvent{
		ID:          uuid.NewString(),
		EmployeeID:  event.EmployeeID,
		SourceID:    event.SourceID,
		EventDate:   event.Date,
		RuleID:      &outcome.RuleID,
		Kind:        outcome.Kind,
		LateMinutes: outcome.LateMinutes,
		AppliedAt:   time.Now().UTC(),
	}

	// Idempotency gate: the unique index on source_id absorbs at-least-once
	// delivery without counting anything twice.
	var insertedID string
	err = tx.QueryRowxContext(ctx, `INSERT INTO applied_events (id, employee_id, source_id, event_date, rule_id, kind, late_minutes, formal_delta, applied_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
ON CONFLICT (source_id) DO NOTHING
RETURNING id`,
		applied.ID, applied.EmployeeID, applied.SourceID, applied.EventDate, applied.RuleID, applied.Kind, applied.LateMinutes, applied.AppliedAt).Scan(&insertedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, wrapConcurrency(err, "record applied event")
	}

	row, err := r.lockRow(ctx, tx, event.EmployeeID, int(event.Date.Month()), event.Date.Year())
	if err != nil {
		return nil, false, err
	}

	applied.FormalDelta = mutate(row)
	row.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `UPDATE tardiness_accumulations
SET late_arrivals_count = $1, direct_tardiness_count = $2, formal_tardies_count = $3, administrative_acts_count = $4, updated_at = $5
WHERE employee_id = $6 AND month = $7 AND year = $8`,
		row.LateArrivalsCount, row.DirectTardinessCount, row.FormalTardiesCount, row.AdministrativeActsCount, row.UpdatedAt,
		row.EmployeeID, row.Month, row.Year); err != nil {
		return nil, false, wrapConcurrency(err, "update ledger row")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE applied_events SET formal_delta = $1 WHERE id = $2`, applied.FormalDelta, applied.ID); err != nil {
		return nil, false, wrapConcurrency(err, "record formal delta")
	}

	if err := tx.Commit(); err != nil {
		return nil, false, wrapConcurrency(err, "commit apply event")
	}
	committed = true
	return &applied, false, nil
}

// lockRow fetches the ledger row FOR UPDATE, creating it lazily on the
// first classified event of the month.
func (r *AccumulationRepository) lockRow(ctx context.Context, tx *sqlx.Tx, employeeID string, month, year int) (*models.TardinessAccumulation, error) {
	selectQuery := fmt.Sprintf("SELECT %s FROM tardiness_accumulations WHERE employee_id = $1 AND month = $2 AND year = $3 FOR UPDATE", accumulationColumns)

	var row models.TardinessAccumulation
	err := tx.GetContext(ctx, &row, selectQuery, employeeID, month, year)
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapConcurrency(err, "lock ledger row")
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `INSERT INTO tardiness_accumulations (employee_id, month, year, late_arrivals_count, direct_tardiness_count, formal_tardies_count, administrative_acts_count, created_at, updated_at)
VALUES ($1, $2, $3, 0, 0, 0, 0, $4, $4)
ON CONFLICT (employee_id, month, year) DO NOTHING`, employeeID, month, year, now); err != nil {
		return nil, wrapConcurrency(err, "create ledger row")
	}
	if err := tx.GetContext(ctx, &row, selectQuery, employeeID, month, year); err != nil {
		return nil, wrapConcurrency(err, "lock ledger row after create")
	}
	return &row, nil
}

// List returns ledger rows matching the provided filter.
func (r *AccumulationRepository) List(ctx context.Context, filter models.AccumulationFilter) ([]models.TardinessAccumulation, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Month > 0 {
		where = append(where, fmt.Sprintf("month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Year > 0 {
		where = append(where, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	whereClause := strings.Join(where, " AND ")

	sortColumn := "year DESC, month DESC"
	if filter.SortBy == "formal_tardies" {
		sortColumn = "formal_tardies_count"
		if strings.ToUpper(filter.SortOrder) == "ASC" {
			sortColumn += " ASC"
		} else {
			sortColumn += " DESC"
		}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM tardiness_accumulations WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		accumulationColumns, whereClause, sortColumn, size, offset)
	var rows []models.TardinessAccumulation
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list accumulations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tardiness_accumulations WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count accumulations: %w", err)
	}
	return rows, total, nil
}

// Get returns a single ledger row.
func (r *AccumulationRepository) Get(ctx context.Context, employeeID string, year, month int) (*models.TardinessAccumulation, error) {
	query := fmt.Sprintf("SELECT %s FROM tardiness_accumulations WHERE employee_id = $1 AND year = $2 AND month = $3", accumulationColumns)
	var row models.TardinessAccumulation
	if err := r.db.GetContext(ctx, &row, query, employeeID, year, month); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ledger row not found")
		}
		return nil, fmt.Errorf("get accumulation: %w", err)
	}
	return &row, nil
}

// Delete removes a ledger row and its applied-event history for the month.
// Only the audited administrative path calls this.
func (r *AccumulationRepository) Delete(ctx context.Context, employeeID string, year, month int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger delete: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM tardiness_accumulations WHERE employee_id = $1 AND year = $2 AND month = $3`, employeeID, year, month)
	if err != nil {
		return fmt.Errorf("delete ledger row: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "ledger row not found")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM applied_events
WHERE employee_id = $1 AND EXTRACT(YEAR FROM event_date) = $2 AND EXTRACT(MONTH FROM event_date) = $3`, employeeID, year, month); err != nil {
		return fmt.Errorf("delete applied events: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger delete: %w", err)
	}
	committed = true
	return nil
}

// FormalDeltas returns positive formal-tardy deltas for an employee across
// the days spanned by [from, to], ordered by event date ascending. This
// feeds the rolling window evaluator; the window is day-granular, so the
// upper bound covers the whole of to's day regardless of its time of day.
func (r *AccumulationRepository) FormalDeltas(ctx context.Context, employeeID string, from, to time.Time) ([]models.FormalDeltaRow, error) {
	upper := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	query := `SELECT event_date, formal_delta FROM applied_events
WHERE employee_id = $1 AND formal_delta > 0 AND event_date >= $2 AND event_date < $3
ORDER BY event_date ASC, applied_at ASC`
	var rows []models.FormalDeltaRow
	if err := r.db.SelectContext(ctx, &rows, query, employeeID, from, upper); err != nil {
		return nil, fmt.Errorf("list formal deltas: %w", err)
	}
	return rows, nil
}

// wrapConcurrency maps PostgreSQL serialization and deadlock failures onto
// the retryable conflict error; everything else passes through wrapped.
func wrapConcurrency(err error, context string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return appErrors.Wrap(err, appErrors.ErrConcurrencyRetry.Code, appErrors.ErrConcurrencyRetry.Status, context)
		}
	}
	return fmt.Errorf("%s: %w", context, err)
}
