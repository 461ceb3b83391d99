package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-discipline-api/internal/engine"
	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/repository"
	"github.com/noah-isme/hr-discipline-api/internal/rules"
	"github.com/noah-isme/hr-discipline-api/pkg/config"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
	"github.com/noah-isme/hr-discipline-api/pkg/jobs"
)

type ledgerRepository interface {
	ApplyEvent(ctx context.Context, event models.AttendanceEvent, outcome models.ClassifiedOutcome, mutate repository.LedgerMutation) (*models.AppliedEvent, bool, error)
	FormalDeltas(ctx context.Context, employeeID string, from, to time.Time) ([]models.FormalDeltaRow, error)
}

type reviewRepository interface {
	Create(ctx context.Context, entry *models.ReviewEntry) error
	List(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewEntry, int, error)
	Resolve(ctx context.Context, id, resolvedBy, resolution string) (*models.ReviewEntry, error)
}

type escalationRecorder interface {
	RecordTrigger(ctx context.Context, trigger models.EscalationTrigger) (string, error)
}

type summaryInvalidator interface {
	InvalidateSummary(ctx context.Context, employeeID string)
}

// AttendanceEventRequest is the ingestion payload for a single event.
type AttendanceEventRequest struct {
	EmployeeID    string     `json:"employee_id" validate:"required"`
	Date          time.Time  `json:"date" validate:"required"`
	CheckIn       *time.Time `json:"check_in"`
	ExpectedStart time.Time  `json:"expected_start" validate:"required"`
	SourceID      string     `json:"source_id" validate:"required"`
}

// BulkEventRequest carries a batch for asynchronous ingestion.
type BulkEventRequest struct {
	Events []AttendanceEventRequest `json:"events" validate:"required,min=1,max=500,dive"`
}

// PipelineService runs the classification and escalation pipeline: one
// attendance event in, ledger counters and any threshold-crossing
// disciplinary records out. Synchronous ingestion processes inline; bulk
// ingestion goes through the background queue.
type PipelineService struct {
	catalog     *rules.Catalog
	ledger      ledgerRepository
	reviews     reviewRepository
	escalations escalationRecorder
	summaries   summaryInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger

	skewTolerance time.Duration
	retryAttempts int
	retryDelay    time.Duration

	queue *jobs.Queue
}

// NewPipelineService constructs the pipeline and its bulk-ingestion queue.
func NewPipelineService(
	catalog *rules.Catalog,
	ledger ledgerRepository,
	reviews reviewRepository,
	escalations escalationRecorder,
	summaries summaryInvalidator,
	metrics *MetricsService,
	engineCfg config.EngineConfig,
	pipelineCfg config.PipelineConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *PipelineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PipelineService{
		catalog:       catalog,
		ledger:        ledger,
		reviews:       reviews,
		escalations:   escalations,
		summaries:     summaries,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		skewTolerance: time.Duration(engineCfg.ClockSkewToleranceMinutes) * time.Minute,
		retryAttempts: engineCfg.LedgerRetryAttempts,
		retryDelay:    engineCfg.LedgerRetryDelay,
	}
	svc.queue = jobs.NewQueue("attendance_events", svc.handleQueued, jobs.QueueConfig{
		Workers:    pipelineCfg.Workers,
		BufferSize: pipelineCfg.BufferSize,
		MaxRetries: pipelineCfg.MaxRetries,
		RetryDelay: pipelineCfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the bulk-ingestion workers.
func (s *PipelineService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the bulk-ingestion workers.
func (s *PipelineService) Stop() {
	s.queue.Stop()
}

// ProcessEvent validates and runs one event through the full pipeline.
func (s *PipelineService) ProcessEvent(ctx context.Context, req AttendanceEventRequest) (*models.EventApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance event")
	}
	event := models.AttendanceEvent{
		EmployeeID:    req.EmployeeID,
		Date:          req.Date,
		CheckIn:       req.CheckIn,
		ExpectedStart: req.ExpectedStart,
		SourceID:      req.SourceID,
	}
	return s.apply(ctx, event)
}

// EnqueueBulk validates a batch and hands it to the background workers.
// Returns the number of accepted events.
func (s *PipelineService) EnqueueBulk(req BulkEventRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	accepted := 0
	for _, item := range req.Events {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    "attendance_event",
			Payload: item,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("bulk enqueue rejected", zap.String("source_id", item.SourceID), zap.Error(err))
			break
		}
		accepted++
	}
	s.metrics.SetQueueDepth("attendance_events", s.queue.Depth())
	if accepted == 0 {
		return 0, appErrors.New(appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "ingestion queue is full")
	}
	return accepted, nil
}

func (s *PipelineService) handleQueued(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(AttendanceEventRequest)
	if !ok {
		s.logger.Error("unexpected job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	_, err := s.ProcessEvent(ctx, req)
	if appErrors.Is(err, appErrors.ErrConcurrencyRetry.Code) {
		return err
	}
	if err != nil {
		// Validation and configuration failures are terminal for this job;
		// retrying would yield the same answer.
		s.logger.Error("queued event rejected",
			zap.String("source_id", req.SourceID),
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err))
	}
	s.metrics.SetQueueDepth("attendance_events", s.queue.Depth())
	return nil
}

// apply is the pipeline core. The ledger transaction is the only mutation
// that can fail the request; escalation evaluation runs after commit and
// degrades to logging, because the dedup key makes a missed trigger
// re-derivable from the next event in the window.
func (s *PipelineService) apply(ctx context.Context, event models.AttendanceEvent) (*models.EventApplication, error) {
	snap, err := s.catalog.Current()
	if err != nil {
		return nil, err
	}

	app := &models.EventApplication{SourceID: event.SourceID}

	result, err := engine.Classify(event, snap, s.skewTolerance)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrInvalidTimestamp.Code) {
			return s.flagForReview(ctx, event, err)
		}
		return nil, err
	}

	if result.Unclassified {
		app.Unclassified = true
		s.metrics.ObserveUnclassified()
		s.metrics.ObserveEvent("unclassified")
		s.logger.Warn("lateness outside configured ranges",
			zap.String("employee_id", event.EmployeeID),
			zap.String("source_id", event.SourceID),
			zap.Int("late_minutes", result.LateMinutes))
		return app, nil
	}
	if result.Outcome == nil {
		s.metrics.ObserveEvent("no_op")
		return app, nil
	}

	rule := snap.Rule(result.Outcome.RuleID)
	if rule == nil {
		return nil, appErrors.Clone(appErrors.ErrConfiguration,
			fmt.Sprintf("classified rule %q missing from snapshot", result.Outcome.RuleID))
	}

	mutate := func(row *models.TardinessAccumulation) int {
		switch rule.Kind {
		case models.KindLateArrival:
			row.LateArrivalsCount++
			delta := engine.ConversionDelta(row.LateArrivalsCount, rule.AccumulationThreshold, rule.FormalTardiesPerConversion)
			row.FormalTardiesCount += delta
			return delta
		default:
			row.DirectTardinessCount++
			delta := rule.FormalTardiesPerConversion
			row.FormalTardiesCount += delta
			return delta
		}
	}

	applied, duplicate, err := s.applyWithRetry(ctx, event, *result.Outcome, mutate)
	if err != nil {
		return nil, err
	}
	if duplicate {
		app.Duplicate = true
		s.metrics.ObserveEvent("duplicate")
		return app, nil
	}

	app.Outcome = result.Outcome
	app.FormalDelta = applied.FormalDelta
	s.metrics.ObserveEvent("applied")
	s.metrics.ObserveClassification(string(rule.Kind))
	if applied.FormalDelta > 0 {
		s.metrics.ObserveConversion(applied.FormalDelta)
	}
	if s.summaries != nil {
		s.summaries.InvalidateSummary(ctx, event.EmployeeID)
	}

	if applied.FormalDelta > 0 {
		app.Escalations = s.evaluateEscalations(ctx, snap, event)
	}
	return app, nil
}

func (s *PipelineService) applyWithRetry(ctx context.Context, event models.AttendanceEvent, outcome models.ClassifiedOutcome, mutate repository.LedgerMutation) (*models.AppliedEvent, bool, error) {
	attempts := s.retryAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		applied, duplicate, err := s.ledger.ApplyEvent(ctx, event, outcome, mutate)
		if err == nil {
			return applied, duplicate, nil
		}
		lastErr = err
		if !appErrors.Is(err, appErrors.ErrConcurrencyRetry.Code) {
			return nil, false, err
		}
		s.metrics.ObserveLedgerRetry()
		s.logger.Warn("ledger conflict, retrying",
			zap.String("source_id", event.SourceID),
			zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return nil, false, lastErr
}

// evaluateEscalations checks every active rule in the tardiness trigger
// family against the windowed applied-event log. The log is fetched once at
// the widest window and each rule re-sums its own slice.
func (s *PipelineService) evaluateEscalations(ctx context.Context, snap *rules.Snapshot, event models.AttendanceEvent) []string {
	maxDays := snap.MaxPeriodDays(models.TriggerTardiness)
	if maxDays == 0 {
		return nil
	}

	from := engine.WindowStart(event.Date, maxDays)
	deltas, err := s.ledger.FormalDeltas(ctx, event.EmployeeID, from, event.Date)
	if err != nil {
		s.logger.Error("failed to load applied-event window",
			zap.String("employee_id", event.EmployeeID),
			zap.Error(err))
		return nil
	}

	var created []string
	for _, rule := range snap.ActionRules(models.TriggerTardiness) {
		crossing := engine.EvaluateWindow(deltas, event.Date, rule.PeriodDays, rule.TriggerCount)
		if !crossing.Crossed {
			continue
		}
		recordID, err := s.escalations.RecordTrigger(ctx, models.EscalationTrigger{
			EmployeeID:    event.EmployeeID,
			Rule:          rule,
			SnapshotCount: crossing.Total,
			WindowKey:     crossing.FirstCrossed,
			EventDate:     event.Date,
		})
		if err != nil {
			s.logger.Error("failed to record escalation",
				zap.String("employee_id", event.EmployeeID),
				zap.String("rule_id", rule.ID),
				zap.Error(err))
			continue
		}
		if recordID != "" {
			created = append(created, recordID)
		}
	}
	return created
}

func (s *PipelineService) flagForReview(ctx context.Context, event models.AttendanceEvent, cause error) (*models.EventApplication, error) {
	entry := &models.ReviewEntry{
		ID:            uuid.NewString(),
		EmployeeID:    event.EmployeeID,
		SourceID:      event.SourceID,
		EventDate:     event.Date,
		CheckIn:       event.CheckIn,
		ExpectedStart: event.ExpectedStart,
		Reason:        cause.Error(),
		Status:        models.ReviewOpen,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue event for review")
	}
	s.metrics.ObserveEvent("review")
	s.logger.Warn("event flagged for manual review",
		zap.String("employee_id", event.EmployeeID),
		zap.String("source_id", event.SourceID),
		zap.String("reason", entry.Reason))
	return &models.EventApplication{SourceID: event.SourceID, FlaggedReview: true}, nil
}

// ReviewListRequest scopes review queue listings.
type ReviewListRequest struct {
	EmployeeID string
	Status     string
	Page       int
	PageSize   int
}

// ListReviews returns manual-review queue entries.
func (s *PipelineService) ListReviews(ctx context.Context, req ReviewListRequest) ([]models.ReviewEntry, *models.Pagination, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}
	filter := models.ReviewFilter{
		EmployeeID: req.EmployeeID,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	if req.Status != "" {
		status := models.ReviewStatus(strings.ToUpper(req.Status))
		if status != models.ReviewOpen && status != models.ReviewResolved {
			return nil, nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review status")
		}
		filter.Status = &status
	}
	entries, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list review entries")
	}
	return entries, &models.Pagination{Page: req.Page, PageSize: req.PageSize, TotalCount: total}, nil
}

// ResolveReview closes a review entry with the reviewer's decision. The
// resolution is a free-text disposition; re-ingestion of a corrected event
// goes through the normal pipeline with a fresh source id.
func (s *PipelineService) ResolveReview(ctx context.Context, id, resolution string, actor *models.JWTClaims) (*models.ReviewEntry, error) {
	if resolution == "" {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "resolution is required")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entry, err := s.reviews.Resolve(ctx, id, actor.UserID, resolution)
	if err != nil {
		return nil, err
	}
	s.logger.Info("review entry resolved",
		zap.String("review_id", id),
		zap.String("resolved_by", actor.UserID),
	)
	return entry, nil
}
