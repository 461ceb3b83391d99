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

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

// DisciplinaryRepository persists disciplinary records. The unique index on
// (employee_id, rule_id, window_key) is the escalation dedup key.
type DisciplinaryRepository struct {
	db *sqlx.DB
}

// NewDisciplinaryRepository constructs the repository.
func NewDisciplinaryRepository(db *sqlx.DB) *DisciplinaryRepository {
	return &DisciplinaryRepository{db: db}
}

const recordColumns = `id, employee_id, rule_id, trigger_type, trigger_count, action_type, description, window_key, applied_date, status, approver_id, approved_at, created_at, updated_at`

// CreateIfAbsent inserts the record unless one already exists for its dedup
// key. Returns false when the insert was suppressed, so the caller knows
// not to notify again.
func (r *DisciplinaryRepository) CreateIfAbsent(ctx context.Context, record *models.DisciplinaryRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	var insertedID string
	err := r.db.QueryRowxContext(ctx, `INSERT INTO disciplinary_records
(id, employee_id, rule_id, trigger_type, trigger_count, action_type, description, window_key, applied_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (employee_id, rule_id, window_key) DO NOTHING
RETURNING id`,
		record.ID, record.EmployeeID, record.RuleID, record.TriggerType, record.TriggerCount, record.ActionType,
		record.Description, record.WindowKey, record.AppliedDate, record.Status, record.CreatedAt, record.UpdatedAt).Scan(&insertedID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create disciplinary record: %w", err)
	}
	return true, nil
}

// Get returns one record by id.
func (r *DisciplinaryRepository) Get(ctx context.Context, id string) (*models.DisciplinaryRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM disciplinary_records WHERE id = $1", recordColumns)
	var record models.DisciplinaryRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "disciplinary record not found")
		}
		return nil, fmt.Errorf("get disciplinary record: %w", err)
	}
	return &record, nil
}

// List returns records matching the provided filter.
func (r *DisciplinaryRepository) List(ctx context.Context, filter models.DisciplinaryRecordFilter) ([]models.DisciplinaryRecord, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.RuleID != "" {
		where = append(where, fmt.Sprintf("rule_id = $%d", len(args)+1))
		args = append(args, filter.RuleID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("applied_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("applied_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s FROM disciplinary_records WHERE %s ORDER BY applied_date %s, created_at %s LIMIT %d OFFSET %d",
		recordColumns, whereClause, order, order, size, offset)
	var records []models.DisciplinaryRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list disciplinary records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM disciplinary_records WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count disciplinary records: %w", err)
	}
	return records, total, nil
}

// Transition moves a record from one status to another. The WHERE clause
// guards the expected current status, so a concurrent transition loses
// cleanly instead of overwriting.
func (r *DisciplinaryRepository) Transition(ctx context.Context, id string, from []models.RecordStatus, to models.RecordStatus, approverID *string) (*models.DisciplinaryRecord, error) {
	now := time.Now().UTC()
	set := []string{"status = $1", "updated_at = $2"}
	args := []interface{}{to, now}
	if to == models.StatusActive && approverID != nil {
		set = append(set, fmt.Sprintf("approver_id = $%d", len(args)+1))
		args = append(args, *approverID)
		set = append(set, fmt.Sprintf("approved_at = $%d", len(args)+1))
		args = append(args, now)
	}

	args = append(args, id)
	idPos := len(args)
	placeholders := make([]string, len(from))
	for i, status := range from {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, status)
	}

	query := fmt.Sprintf("UPDATE disciplinary_records SET %s WHERE id = $%d AND status IN (%s) RETURNING %s",
		strings.Join(set, ", "), idPos, strings.Join(placeholders, ", "), recordColumns)

	var record models.DisciplinaryRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "record missing or not in an eligible status")
		}
		return nil, fmt.Errorf("transition disciplinary record: %w", err)
	}
	return &record, nil
}
