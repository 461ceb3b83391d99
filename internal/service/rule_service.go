package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

type ruleRepository interface {
	ListTardiness(ctx context.Context) ([]models.TardinessRule, error)
	GetTardiness(ctx context.Context, id string) (*models.TardinessRule, error)
	CreateTardiness(ctx context.Context, rule *models.TardinessRule) error
	UpdateTardiness(ctx context.Context, rule *models.TardinessRule) error
	ListActions(ctx context.Context) ([]models.DisciplinaryActionRule, error)
	GetAction(ctx context.Context, id string) (*models.DisciplinaryActionRule, error)
	CreateAction(ctx context.Context, rule *models.DisciplinaryActionRule) error
	UpdateAction(ctx context.Context, rule *models.DisciplinaryActionRule) error
}

// RuleService owns the admin surface of the rule catalog. Every mutation
// validates the full prospective rule set before anything is persisted, and
// the serving snapshot is replaced only after a successful write, so a bad
// edit can never corrupt classification mid-stream.
type RuleService struct {
	repo      ruleRepository
	catalog   *rules.Catalog
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRuleService constructs the service.
func NewRuleService(repo ruleRepository, catalog *rules.Catalog, validate *validator.Validate, logger *zap.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RuleService{repo: repo, catalog: catalog, validator: validate, logger: logger}
	svc.validator.RegisterValidation("tardiness_kind", func(fl validator.FieldLevel) bool {
		return models.TardinessKind(strings.ToUpper(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("trigger_type", func(fl validator.FieldLevel) bool {
		return models.TriggerType(strings.ToUpper(fl.Field().String())).Valid()
	})
	svc.validator.RegisterValidation("action_type", func(fl validator.FieldLevel) bool {
		return models.DisciplinaryActionType(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// Reload rebuilds the serving snapshot from storage. Called at startup and
// on demand after out-of-band edits.
func (s *RuleService) Reload(ctx context.Context) (*rules.Snapshot, error) {
	tardiness, err := s.repo.ListTardiness(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tardiness rules")
	}
	actions, err := s.repo.ListActions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disciplinary action rules")
	}
	snap, err := s.catalog.Replace(tardiness, actions)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rule catalog reloaded",
		zap.Int64("version", snap.Version),
		zap.Int("tardiness_rules", len(tardiness)),
		zap.Int("action_rules", len(actions)),
	)
	return snap, nil
}

// TardinessRuleRequest is the admin payload for creating or updating a
// tardiness rule.
type TardinessRuleRequest struct {
	Name                       string `json:"name" validate:"required"`
	Kind                       string `json:"kind" validate:"required,tardiness_kind"`
	StartMinutes               int    `json:"start_minutes" validate:"min=0"`
	EndMinutes                 *int   `json:"end_minutes"`
	AccumulationThreshold      int    `json:"accumulation_threshold" validate:"required,min=1"`
	FormalTardiesPerConversion int    `json:"formal_tardies_per_conversion" validate:"required,min=1"`
	Active                     bool   `json:"active"`
}

// ActionRuleRequest is the admin payload for creating or updating a
// disciplinary action rule.
type ActionRuleRequest struct {
	Name             string `json:"name" validate:"required"`
	TriggerType      string `json:"trigger_type" validate:"required,trigger_type"`
	TriggerCount     int    `json:"trigger_count" validate:"required,min=1"`
	PeriodDays       int    `json:"period_days" validate:"required,min=1"`
	ActionType       string `json:"action_type" validate:"required,action_type"`
	SuspensionDays   *int   `json:"suspension_days"`
	RequiresApproval bool   `json:"requires_approval"`
	AutoApply        bool   `json:"auto_apply"`
	Active           bool   `json:"active"`
}

// ListTardiness returns every tardiness rule, inactive ones included.
func (s *RuleService) ListTardiness(ctx context.Context) ([]models.TardinessRule, error) {
	list, err := s.repo.ListTardiness(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tardiness rules")
	}
	return list, nil
}

// CreateTardiness validates and persists a new tardiness rule, then
// reloads the snapshot.
func (s *RuleService) CreateTardiness(ctx context.Context, req TardinessRuleRequest) (*models.TardinessRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule := models.TardinessRule{
		Name:                       req.Name,
		Kind:                       models.TardinessKind(strings.ToUpper(req.Kind)),
		StartMinutes:               req.StartMinutes,
		EndMinutes:                 req.EndMinutes,
		AccumulationThreshold:      req.AccumulationThreshold,
		FormalTardiesPerConversion: req.FormalTardiesPerConversion,
		Active:                     req.Active,
	}

	existing, err := s.repo.ListTardiness(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tardiness rules")
	}
	actions, err := s.repo.ListActions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disciplinary action rules")
	}
	if err := rules.Validate(append(existing, rule), actions); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTardiness(ctx, &rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tardiness rule")
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateTardiness validates and persists changes to a tardiness rule.
func (s *RuleService) UpdateTardiness(ctx context.Context, id string, req TardinessRuleRequest) (*models.TardinessRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	current, err := s.repo.GetTardiness(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.Name = req.Name
	updated.Kind = models.TardinessKind(strings.ToUpper(req.Kind))
	updated.StartMinutes = req.StartMinutes
	updated.EndMinutes = req.EndMinutes
	updated.AccumulationThreshold = req.AccumulationThreshold
	updated.FormalTardiesPerConversion = req.FormalTardiesPerConversion
	updated.Active = req.Active

	if err := s.validateTardinessSet(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTardiness(ctx, &updated); err != nil {
		return nil, err
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetTardinessActive toggles a rule without editing its definition.
func (s *RuleService) SetTardinessActive(ctx context.Context, id string, active bool) (*models.TardinessRule, error) {
	current, err := s.repo.GetTardiness(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.Active = active
	if err := s.validateTardinessSet(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTardiness(ctx, &updated); err != nil {
		return nil, err
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

// validateTardinessSet rebuilds the prospective rule set with one rule
// replaced and runs full catalog validation against it.
func (s *RuleService) validateTardinessSet(ctx context.Context, replacement models.TardinessRule) error {
	existing, err := s.repo.ListTardiness(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tardiness rules")
	}
	actions, err := s.repo.ListActions(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disciplinary action rules")
	}
	prospective := make([]models.TardinessRule, 0, len(existing))
	for _, rule := range existing {
		if rule.ID == replacement.ID {
			continue
		}
		prospective = append(prospective, rule)
	}
	prospective = append(prospective, replacement)
	return rules.Validate(prospective, actions)
}

// ListActions returns every disciplinary action rule.
func (s *RuleService) ListActions(ctx context.Context) ([]models.DisciplinaryActionRule, error) {
	list, err := s.repo.ListActions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list disciplinary action rules")
	}
	return list, nil
}

// CreateAction validates and persists a new disciplinary action rule.
func (s *RuleService) CreateAction(ctx context.Context, req ActionRuleRequest) (*models.DisciplinaryActionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule := models.DisciplinaryActionRule{
		Name:             req.Name,
		TriggerType:      models.TriggerType(strings.ToUpper(req.TriggerType)),
		TriggerCount:     req.TriggerCount,
		PeriodDays:       req.PeriodDays,
		ActionType:       models.DisciplinaryActionType(strings.ToUpper(req.ActionType)),
		SuspensionDays:   req.SuspensionDays,
		RequiresApproval: req.RequiresApproval,
		AutoApply:        req.AutoApply,
		Active:           req.Active,
	}

	tardiness, err := s.repo.ListTardiness(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tardiness rules")
	}
	actions, err := s.repo.ListActions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disciplinary action rules")
	}
	if err := rules.Validate(tardiness, append(actions, rule)); err != nil {
		return nil, err
	}

	if err := s.repo.CreateAction(ctx, &rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create disciplinary action rule")
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateAction validates and persists changes to a disciplinary action rule.
func (s *RuleService) UpdateAction(ctx context.Context, id string, req ActionRuleRequest) (*models.DisciplinaryActionRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	current, err := s.repo.GetAction(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.Name = req.Name
	updated.TriggerType = models.TriggerType(strings.ToUpper(req.TriggerType))
	updated.TriggerCount = req.TriggerCount
	updated.PeriodDays = req.PeriodDays
	updated.ActionType = models.DisciplinaryActionType(strings.ToUpper(req.ActionType))
	updated.SuspensionDays = req.SuspensionDays
	updated.RequiresApproval = req.RequiresApproval
	updated.AutoApply = req.AutoApply
	updated.Active = req.Active

	if err := s.validateActionSet(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAction(ctx, &updated); err != nil {
		return nil, err
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetActionActive toggles a disciplinary action rule.
func (s *RuleService) SetActionActive(ctx context.Context, id string, active bool) (*models.DisciplinaryActionRule, error) {
	current, err := s.repo.GetAction(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.Active = active
	if err := s.validateActionSet(ctx, updated); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAction(ctx, &updated); err != nil {
		return nil, err
	}
	if _, err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *RuleService) validateActionSet(ctx context.Context, replacement models.DisciplinaryActionRule) error {
	tardiness, err := s.repo.ListTardiness(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tardiness rules")
	}
	actions, err := s.repo.ListActions(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disciplinary action rules")
	}
	prospective := make([]models.DisciplinaryActionRule, 0, len(actions))
	for _, rule := range actions {
		if rule.ID == replacement.ID {
			continue
		}
		prospective = append(prospective, rule)
	}
	prospective = append(prospective, replacement)
	return rules.Validate(tardiness, prospective)
}
