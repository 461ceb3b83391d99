package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/internal/repository"
	appErrors "github.com/noah-isme/hr-discipline-api/pkg/errors"
)

type accumulationRepository interface {
	List(ctx context.Context, filter models.AccumulationFilter) ([]models.TardinessAccumulation, int, error)
	Get(ctx context.Context, employeeID string, year, month int) (*models.TardinessAccumulation, error)
	Delete(ctx context.Context, employeeID string, year, month int) error
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AccumulationService serves ledger reads and the audited admin deletion
// path. It never mutates counters itself; only the event pipeline writes
// the ledger.
type AccumulationService struct {
	repo         accumulationRepository
	cache        summaryCache
	cacheEnabled bool
	summaryTTL   time.Duration
	logger       *zap.Logger
}

// NewAccumulationService constructs the service. cache may be nil when
// Redis is disabled.
func NewAccumulationService(repo accumulationRepository, cache summaryCache, cacheEnabled bool, summaryTTL time.Duration, logger *zap.Logger) *AccumulationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cacheEnabled = false
	}
	return &AccumulationService{
		repo:         repo,
		cache:        cache,
		cacheEnabled: cacheEnabled,
		summaryTTL:   summaryTTL,
		logger:       logger,
	}
}

// List returns ledger rows matching the filter with pagination metadata.
func (s *AccumulationService) List(ctx context.Context, filter models.AccumulationFilter) ([]models.TardinessAccumulation, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accumulations")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one employee-month ledger row.
func (s *AccumulationService) Get(ctx context.Context, employeeID string, year, month int) (*models.TardinessAccumulation, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month must be between 1 and 12")
	}
	return s.repo.Get(ctx, employeeID, year, month)
}

// Delete removes an employee-month row and its applied-event entries. This
// is a corrective admin operation; the reason is mandatory and goes to the
// audit log.
func (s *AccumulationService) Delete(ctx context.Context, employeeID string, year, month int, reason, actorID string) error {
	if reason == "" {
		return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "deletion reason is required")
	}
	if month < 1 || month > 12 {
		return appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month must be between 1 and 12")
	}
	if err := s.repo.Delete(ctx, employeeID, year, month); err != nil {
		return err
	}
	s.logger.Info("accumulation row deleted",
		zap.String("employee_id", employeeID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.String("reason", reason),
		zap.String("actor_id", actorID),
	)
	s.InvalidateSummary(ctx, employeeID)
	return nil
}

// Summary aggregates the employee's ledger rows for the last twelve
// months, served through the Redis cache when enabled.
func (s *AccumulationService) Summary(ctx context.Context, employeeID string) (*models.AccumulationSummary, error) {
	key := repository.SummaryKey(employeeID)
	if s.cacheEnabled {
		var cached models.AccumulationSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	rows, _, err := s.repo.List(ctx, models.AccumulationFilter{
		EmployeeID: employeeID,
		Page:       1,
		PageSize:   12,
		SortBy:     "year",
		SortOrder:  "desc",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build accumulation summary")
	}

	summary := &models.AccumulationSummary{
		EmployeeID:  employeeID,
		Months:      rows,
		GeneratedAt: time.Now().UTC(),
	}
	for _, row := range rows {
		summary.TotalFormalTardies += row.FormalTardiesCount
	}

	if s.cacheEnabled {
		if err := s.cache.Set(ctx, key, summary, s.summaryTTL); err != nil {
			s.logger.Warn("failed to cache accumulation summary", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}
	return summary, nil
}

// InvalidateSummary drops the cached summary after a ledger write.
func (s *AccumulationService) InvalidateSummary(ctx context.Context, employeeID string) {
	if !s.cacheEnabled {
		return
	}
	if err := s.cache.Delete(ctx, repository.SummaryKey(employeeID)); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.String("employee_id", employeeID), zap.Error(err))
	}
}
