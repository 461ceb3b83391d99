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

// ReviewRepository persists the manual-review queue for events excluded
// from automatic classification.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, employee_id, source_id, event_date, check_in, expected_start, reason, status, resolved_by, resolution, created_at, resolved_at`

// Create queues an event for manual review. Duplicate source ids are
// absorbed, mirroring the ledger's idempotency.
func (r *ReviewRepository) Create(ctx context.Context, entry *models.ReviewEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Status = models.ReviewOpen
	entry.CreatedAt = time.Now().UTC()
	query := `INSERT INTO attendance_review_queue (id, employee_id, source_id, event_date, check_in, expected_start, reason, status, created_at)
VALUES (:id, :employee_id, :source_id, :event_date, :check_in, :expected_start, :reason, :status, :created_at)
ON CONFLICT (source_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("queue event for review: %w", err)
	}
	return nil
}

// List returns review entries per provided filter.
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewEntry, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM attendance_review_queue WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		reviewColumns, whereClause, size, offset)
	var entries []models.ReviewEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list review queue: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_review_queue WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count review queue: %w", err)
	}
	return entries, total, nil
}

// Resolve closes an open review entry with the reviewer's decision.
func (r *ReviewRepository) Resolve(ctx context.Context, id, resolvedBy, resolution string) (*models.ReviewEntry, error) {
	query := fmt.Sprintf(`UPDATE attendance_review_queue
SET status = $1, resolved_by = $2, resolution = $3, resolved_at = $4
WHERE id = $5 AND status = $6
RETURNING %s`, reviewColumns)
	var entry models.ReviewEntry
	err := r.db.GetContext(ctx, &entry, query, models.ReviewResolved, resolvedBy, resolution, time.Now().UTC(), id, models.ReviewOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "review entry missing or already resolved")
		}
		return nil, fmt.Errorf("resolve review entry: %w", err)
	}
	return &entry, nil
}
