package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

type disciplinaryRepository interface {
	CreateIfAbsent(ctx context.Context, record *models.DisciplinaryRecord) (bool, error)
	Get(ctx context.Context, id string) (*models.DisciplinaryRecord, error)
	List(ctx context.Context, filter models.DisciplinaryRecordFilter) ([]models.DisciplinaryRecord, int, error)
	Transition(ctx context.Context, id string, from []models.RecordStatus, to models.RecordStatus, approverID *string) (*models.DisciplinaryRecord, error)
}

// DisciplinaryService records escalation triggers and owns the explicit
// status transitions of disciplinary records.
type DisciplinaryService struct {
	repo          disciplinaryRepository
	notifications *NotificationService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewDisciplinaryService constructs the service.
func NewDisciplinaryService(repo disciplinaryRepository, notifications *NotificationService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DisciplinaryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &DisciplinaryService{repo: repo, notifications: notifications, metrics: metrics, validator: validate, logger: logger}
	svc.validator.RegisterValidation("record_status", func(fl validator.FieldLevel) bool {
		return models.RecordStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// RecordTrigger creates the disciplinary record for a threshold crossing.
// Approval gating always wins over auto-apply: a rule requiring approval
// yields PENDING even when auto_apply is set, because auto-apply only skips
// the creation gate, never the activation gate. Returns the record id when
// a record was created, empty when the dedup key suppressed it.
func (s *DisciplinaryService) RecordTrigger(ctx context.Context, trigger models.EscalationTrigger) (string, error) {
	status := models.StatusPending
	if trigger.Rule.AutoApply && !trigger.Rule.RequiresApproval {
		status = models.StatusActive
	}

	record := &models.DisciplinaryRecord{
		EmployeeID:   trigger.EmployeeID,
		RuleID:       trigger.Rule.ID,
		TriggerType:  trigger.Rule.TriggerType,
		TriggerCount: trigger.SnapshotCount,
		ActionType:   trigger.Rule.ActionType,
		Description: fmt.Sprintf("%s: %d %s infractions within %d days",
			trigger.Rule.Name, trigger.SnapshotCount, strings.ToLower(string(trigger.Rule.TriggerType)), trigger.Rule.PeriodDays),
		WindowKey:   trigger.WindowKey,
		AppliedDate: trigger.EventDate,
		Status:      status,
	}

	created, err := s.repo.CreateIfAbsent(ctx, record)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create disciplinary record")
	}
	if !created {
		s.metrics.ObserveEscalation("suppressed")
		return "", nil
	}

	s.metrics.ObserveEscalation("fired")
	s.logger.Info("disciplinary record created",
		zap.String("record_id", record.ID),
		zap.String("employee_id", record.EmployeeID),
		zap.String("rule_id", record.RuleID),
		zap.String("action_type", string(record.ActionType)),
		zap.String("status", string(record.Status)),
		zap.Time("window_key", record.WindowKey),
	)

	if s.notifications != nil {
		s.notifications.Request(models.NotificationRequest{
			EmployeeID: record.EmployeeID,
			RuleID:     record.RuleID,
			RecordID:   record.ID,
			ActionType: record.ActionType,
		})
	}
	return record.ID, nil
}

// RecordListRequest describes filters for listing records.
type RecordListRequest struct {
	EmployeeID string     `json:"employee_id"`
	RuleID     string     `json:"rule_id"`
	Status     *string    `json:"status" validate:"omitempty,record_status"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	SortOrder  string     `json:"sort_order"`
}

// List returns disciplinary records with pagination.
func (s *DisciplinaryService) List(ctx context.Context, req RecordListRequest) ([]models.DisciplinaryRecord, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter")
	}
	var status *models.RecordStatus
	if req.Status != nil {
		st := models.RecordStatus(strings.ToUpper(*req.Status))
		status = &st
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size <= 0 {
		size = 50
	}
	filter := models.DisciplinaryRecordFilter{
		EmployeeID: req.EmployeeID,
		RuleID:     req.RuleID,
		Status:     status,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       page,
		PageSize:   size,
		SortOrder:  req.SortOrder,
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list disciplinary records")
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return records, pagination, nil
}

// Get returns one record.
func (s *DisciplinaryService) Get(ctx context.Context, id string) (*models.DisciplinaryRecord, error) {
	return s.repo.Get(ctx, id)
}

// Approve moves a PENDING record to ACTIVE, stamping the approver.
func (s *DisciplinaryService) Approve(ctx context.Context, id string, approver *models.JWTClaims) (*models.DisciplinaryRecord, error) {
	if approver == nil {
		return nil, appErrors.ErrUnauthorized
	}
	record, err := s.repo.Transition(ctx, id, []models.RecordStatus{models.StatusPending}, models.StatusActive, &approver.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("disciplinary record approved", zap.String("record_id", id), zap.String("approver_id", approver.UserID))
	return record, nil
}

// Cancel moves a PENDING or ACTIVE record to CANCELLED.
func (s *DisciplinaryService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.DisciplinaryRecord, error) {
	record, err := s.repo.Transition(ctx, id, []models.RecordStatus{models.StatusPending, models.StatusActive}, models.StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	s.logger.Info("disciplinary record cancelled", zap.String("record_id", id), zap.String("actor_id", actorID))
	return record, nil
}

// Complete moves an ACTIVE record to COMPLETED.
func (s *DisciplinaryService) Complete(ctx context.Context, id string) (*models.DisciplinaryRecord, error) {
	return s.repo.Transition(ctx, id, []models.RecordStatus{models.StatusActive}, models.StatusCompleted, nil)
}
