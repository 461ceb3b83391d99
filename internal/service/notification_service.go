package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-discipline-api/internal/models"
	"github.com/noah-isme/hr-discipline-api/pkg/config"
	"github.com/noah-isme/hr-discipline-api/pkg/jobs"
)

// Notifier delivers a notification request to the external notification
// subsystem. Delivery is the collaborator's problem; the engine only asks.
type Notifier interface {
	Notify(ctx context.Context, req models.NotificationRequest) error
}

// LoggingNotifier is the default Notifier used until a transport to the
// notification subsystem is wired; it records the request and succeeds.
type LoggingNotifier struct {
	Logger *zap.Logger
}

// Notify logs the outgoing request.
func (n LoggingNotifier) Notify(_ context.Context, req models.NotificationRequest) error {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("notification_request",
		zap.String("employee_id", req.EmployeeID),
		zap.String("rule_id", req.RuleID),
		zap.String("record_id", req.RecordID),
		zap.String("action_type", string(req.ActionType)),
	)
	return nil
}

// NotificationService dispatches fire-and-forget notification requests on a
// background queue. A failed dispatch retries and eventually drops with a
// log line; it never rolls back the record that caused it.
type NotificationService struct {
	queue    *jobs.Queue
	notifier Notifier
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationService constructs the dispatcher.
func NewNotificationService(cfg config.NotificationsConfig, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = LoggingNotifier{Logger: logger}
	}
	svc := &NotificationService{notifier: notifier, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the dispatcher workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatcher.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Request enqueues one notification request. Enqueue failure is logged and
// swallowed: record creation must never fail on notification problems.
func (s *NotificationService) Request(req models.NotificationRequest) {
	job := jobs.Job{
		ID:      fmt.Sprintf("notify-%s", req.RecordID),
		Type:    "notification",
		Payload: req,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.ObserveNotification("failed")
		s.logger.Warn("notification request dropped",
			zap.String("record_id", req.RecordID), zap.Error(err))
		return
	}
	s.metrics.ObserveNotification("requested")
	s.metrics.SetQueueDepth("notifications", s.queue.Depth())
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(models.NotificationRequest)
	if !ok {
		s.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.notifier.Notify(ctx, req); err != nil {
		s.metrics.ObserveNotification("failed")
		return fmt.Errorf("notify record %s: %w", req.RecordID, err)
	}
	s.metrics.ObserveNotification("delivered")
	return nil
}
