package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gift-portal/internal/config"
	"github.com/spec-kit/gift-portal/internal/events"
)

// NotificationService fans submission events out to the configured channels.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
	}
}

// EventTypes lists the events that produce notifications.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventSubmissionCreated,
		events.EventSubmissionStatusChanged,
		events.EventSubmissionDeleted,
	}
}

// Handle routes an event to its notification handler. Unknown types are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventSubmissionCreated:
		return n.handleSubmissionCreated(ctx, event)
	case events.EventSubmissionStatusChanged:
		return n.handleSubmissionStatusChanged(ctx, event)
	case events.EventSubmissionDeleted:
		return n.handleSubmissionDeleted(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleSubmissionCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("SubmissionCreated", zap.String("submission_id", event.SubmissionID), zap.Any("payload", event.Payload))
	n.sendEmailNotification(ctx, event)
	n.sendWebhookNotification(ctx, event)
	return nil
}

func (n *NotificationService) handleSubmissionStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("SubmissionStatusChanged", zap.String("submission_id", event.SubmissionID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.SubmissionStatusChangedPayload)
	if ok && payload.NewStatus != payload.OldStatus {
		n.sendEmailNotification(ctx, event)
	}
	n.sendWebhookNotification(ctx, event)
	return nil
}

func (n *NotificationService) handleSubmissionDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("SubmissionDeleted", zap.String("submission_id", event.SubmissionID))
	n.sendWebhookNotification(ctx, event)
	return nil
}

// Delivery is out of scope; the channels log what they would send.
func (n *NotificationService) sendEmailNotification(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("submission_id", event.SubmissionID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotification(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("submission_id", event.SubmissionID),
		zap.String("event_type", string(event.Type)))
}
