package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"push-service/internal/batching"
	"push-service/internal/config"
	"push-service/internal/delivery"
	"push-service/internal/logging"
	"push-service/internal/models"
	"push-service/internal/preferences"
	"push-service/internal/validation"
)

// cleanupTimeout bounds each best-effort storage write.
const cleanupTimeout = 5 * time.Second

// PreferenceStore reads a user's push preferences. A nil record means none stored.
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID string) (*models.PreferenceRecord, error)
}

// Deliverer sends one batch and returns nil when the whole batch failed.
type Deliverer interface {
	Deliver(ctx context.Context, batch models.NotificationBatch) *models.ProviderResponse
}

// Notifier persists the side effects of a delivery. Every call is best-effort.
type Notifier interface {
	RemoveEndpoints(ctx context.Context, userID string, endpoints []string) error
	RecordAttempt(ctx context.Context, userID string, succeeded bool, errorSummary string) error
	RecordAlert(ctx context.Context, alert models.Alert) (models.Alert, error)
}

// AlertSink receives stored alerts for live delivery to connected clients.
type AlertSink interface {
	SendToUser(userID string, v any)
}

// Service runs the push pipeline for API calls and queued tasks.
type Service struct {
	prefs     PreferenceStore
	deliverer Deliverer
	notifier  Notifier
	alertSink AlertSink
	logger    *logging.Logger
	config    config.Config
	location  *time.Location
	now       func() time.Time

	tasks  chan models.Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

type Option func(*Service)

// WithClock replaces the wall clock used for quiet hours.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithAlertSink(sink AlertSink) Option {
	return func(s *Service) { s.alertSink = sink }
}

// New constructs the Service. It fails with a *config.ConfigurationError when
// provider or storage credentials are missing.
func New(cfg config.Config, prefs PreferenceStore, deliverer Deliverer, notifier Notifier, logger *logging.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		prefs:     prefs,
		deliverer: deliverer,
		notifier:  notifier,
		logger:    logger,
		config:    cfg,
		location:  cfg.Location(),
		now:       time.Now,
		tasks:     make(chan models.Task, max(cfg.Notification.QueueSize, 1)),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Logger exposes the Service's logger to the Kafka consumer.
func (s *Service) Logger() *logging.Logger {
	return s.logger
}

// Handle validates a raw JSON body and sends it. Validation failures come
// back as *validation.ValidationError before any storage or network access.
func (s *Service) Handle(ctx context.Context, requestID string, raw []byte) (models.SendResult, error) {
	req, err := validation.Parse(raw)
	if err != nil {
		return models.SendResult{}, err
	}
	return s.Send(ctx, requestID, req), nil
}

// Send runs a validated request through the gate, the planner, the delivery
// engine and cleanup. Provider and storage failures degrade the result; they
// are never returned.
func (s *Service) Send(ctx context.Context, requestID string, req models.NotificationRequest) models.SendResult {
	log := s.logger.WithRequestID(requestID)

	pref, err := s.prefs.GetPreference(ctx, req.UserID)
	if err != nil {
		log.Warnf("Failed to load preferences for user %s, sending anyway: %v", req.UserID, err)
		pref = nil
	}

	decision := preferences.Evaluate(pref, s.now().In(s.location))
	if decision.Blocked() {
		log.Infof("Push for user %s blocked: %s", req.UserID, decision)
		s.recordAttempt(ctx, requestID, req.UserID, false, "blocked: "+decision.String())
		return models.SendResult{
			Success: false,
			Message: blockedMessage(decision),
			Blocked: decision.String(),
		}
	}

	batches := batching.Plan(req, s.config.Push.BatchSize)
	agg := delivery.NewAggregator(s.logger)
	for i, batch := range batches {
		resp := s.deliverer.Deliver(ctx, batch)
		if resp == nil {
			log.Warnf("Batch %d/%d for user %s failed entirely", i+1, len(batches), req.UserID)
		}
		agg.Add(batch, resp)
	}
	outcome := agg.Outcome()
	total := len(req.DeviceEndpoints)
	log.Infof("Push for user %s: %d sent, %d failed, %d invalid tokens",
		req.UserID, outcome.TotalSuccess, outcome.TotalFailure, len(outcome.InvalidEndpoints))

	if len(outcome.InvalidEndpoints) > 0 {
		s.removeEndpoints(ctx, requestID, req.UserID, outcome.InvalidEndpoints)
	}

	summary := ""
	if outcome.TotalFailure > 0 {
		summary = fmt.Sprintf("%d of %d deliveries failed", outcome.TotalFailure, total)
	}
	s.recordAttempt(ctx, requestID, req.UserID, outcome.TotalSuccess > 0, summary)

	if outcome.TotalSuccess > 0 && req.IssueID != nil {
		s.recordAlert(ctx, requestID, models.Alert{
			UserID:     req.UserID,
			IssueID:    *req.IssueID,
			DistanceKm: req.DistanceKm,
			Title:      req.Title,
			Message:    req.Message,
		})
	}

	return models.SendResult{
		Success:              outcome.TotalSuccess > 0,
		Sent:                 outcome.TotalSuccess,
		Failed:               outcome.TotalFailure,
		InvalidTokensRemoved: len(outcome.InvalidEndpoints),
		Message:              fmt.Sprintf("Sent %d of %d notifications", outcome.TotalSuccess, total),
	}
}

func blockedMessage(d preferences.Decision) string {
	switch d {
	case preferences.BlockedDisabled:
		return "User has disabled push notifications"
	case preferences.BlockedQuietHours:
		return "Notification suppressed during quiet hours"
	default:
		return "Notification blocked"
	}
}

// cleanupContext outlives a cancelled request so best-effort writes still land.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

func (s *Service) removeEndpoints(ctx context.Context, requestID, userID string, endpoints []string) {
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := s.notifier.RemoveEndpoints(ctx, userID, endpoints); err != nil {
		s.logger.WithRequestID(requestID).Errorf("Failed to remove invalid tokens: %v", err)
	}
}

func (s *Service) recordAttempt(ctx context.Context, requestID, userID string, succeeded bool, summary string) {
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := s.notifier.RecordAttempt(ctx, userID, succeeded, summary); err != nil {
		s.logger.WithRequestID(requestID).Errorf("Failed to record notification log: %v", err)
	}
}

func (s *Service) recordAlert(ctx context.Context, requestID string, alert models.Alert) {
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	stored, err := s.notifier.RecordAlert(ctx, alert)
	if err != nil {
		s.logger.WithRequestID(requestID).Errorf("Failed to record alert for issue %s: %v", alert.IssueID, err)
		return
	}
	if s.alertSink != nil {
		s.alertSink.SendToUser(stored.UserID, stored)
	}
}
