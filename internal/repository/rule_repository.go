package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

// RuleRepository manages persistence for tardiness and disciplinary action
// rules. The engine treats these tables as read-mostly; writes come from the
// admin surface and always pass catalog validation first.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository constructs the repository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const tardinessRuleColumns = `id, name, kind, start_minutes, end_minutes, accumulation_threshold, formal_tardies_per_conversion, active, created_at, updated_at`

// ListTardiness returns all tardiness rules, inactive ones included.
func (r *RuleRepository) ListTardiness(ctx context.Context) ([]models.TardinessRule, error) {
	query := fmt.Sprintf("SELECT %s FROM tardiness_rules ORDER BY kind, start_minutes", tardinessRuleColumns)
	var rules []models.TardinessRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list tardiness rules: %w", err)
	}
	return rules, nil
}

// GetTardiness returns one tardiness rule by id.
func (r *RuleRepository) GetTardiness(ctx context.Context, id string) (*models.TardinessRule, error) {
	query := fmt.Sprintf("SELECT %s FROM tardiness_rules WHERE id = $1", tardinessRuleColumns)
	var rule models.TardinessRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tardiness rule not found")
		}
		return nil, fmt.Errorf("get tardiness rule: %w", err)
	}
	return &rule, nil
}

// CreateTardiness inserts a new tardiness rule.
func (r *RuleRepository) CreateTardiness(ctx context.Context, rule *models.TardinessRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	query := `INSERT INTO tardiness_rules (id, name, kind, start_minutes, end_minutes, accumulation_threshold, formal_tardies_per_conversion, active, created_at, updated_at)
VALUES (:id, :name, :kind, :start_minutes, :end_minutes, :accumulation_threshold, :formal_tardies_per_conversion, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create tardiness rule: %w", err)
	}
	return nil
}

// UpdateTardiness modifies an existing tardiness rule.
func (r *RuleRepository) UpdateTardiness(ctx context.Context, rule *models.TardinessRule) error {
	rule.UpdatedAt = time.Now().UTC()
	query := `UPDATE tardiness_rules SET name = :name, kind = :kind, start_minutes = :start_minutes, end_minutes = :end_minutes,
accumulation_threshold = :accumulation_threshold, formal_tardies_per_conversion = :formal_tardies_per_conversion,
active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update tardiness rule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "tardiness rule not found")
	}
	return nil
}

const actionRuleColumns = `id, name, trigger_type, trigger_count, period_days, action_type, suspension_days, requires_approval, auto_apply, active, created_at, updated_at`

// ListActions returns all disciplinary action rules.
func (r *RuleRepository) ListActions(ctx context.Context) ([]models.DisciplinaryActionRule, error) {
	query := fmt.Sprintf("SELECT %s FROM disciplinary_action_rules ORDER BY trigger_type, trigger_count", actionRuleColumns)
	var rules []models.DisciplinaryActionRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list disciplinary action rules: %w", err)
	}
	return rules, nil
}

// GetAction returns one disciplinary action rule by id.
func (r *RuleRepository) GetAction(ctx context.Context, id string) (*models.DisciplinaryActionRule, error) {
	query := fmt.Sprintf("SELECT %s FROM disciplinary_action_rules WHERE id = $1", actionRuleColumns)
	var rule models.DisciplinaryActionRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "disciplinary action rule not found")
		}
		return nil, fmt.Errorf("get disciplinary action rule: %w", err)
	}
	return &rule, nil
}

// CreateAction inserts a new disciplinary action rule.
func (r *RuleRepository) CreateAction(ctx context.Context, rule *models.DisciplinaryActionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	query := `INSERT INTO disciplinary_action_rules (id, name, trigger_type, trigger_count, period_days, action_type, suspension_days, requires_approval, auto_apply, active, created_at, updated_at)
VALUES (:id, :name, :trigger_type, :trigger_count, :period_days, :action_type, :suspension_days, :requires_approval, :auto_apply, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create disciplinary action rule: %w", err)
	}
	return nil
}

// UpdateAction modifies an existing disciplinary action rule.
func (r *RuleRepository) UpdateAction(ctx context.Context, rule *models.DisciplinaryActionRule) error {
	rule.UpdatedAt = time.Now().UTC()
	query := `UPDATE disciplinary_action_rules SET name = :name, trigger_type = :trigger_type, trigger_count = :trigger_count,
period_days = :period_days, action_type = :action_type, suspension_days = :suspension_days,
requires_approval = :requires_approval, auto_apply = :auto_apply, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update disciplinary action rule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "disciplinary action rule not found")
	}
	return nil
}
