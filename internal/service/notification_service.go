package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
)

// NotificationService handles emitting notifications for lifecycle events.
// Events are logged and, when Redis is configured, pushed onto a list queue
// for out-of-process consumers.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	queue      *redis.Client
}

// NewNotificationService creates the service. queue may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, queue *redis.Client) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		queue:      queue,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketSolutionRecorded, n.handleTicketSolutionRecorded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketSolutionRecorded(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketSolutionRecorded", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.enqueue(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// enqueue pushes the serialized event onto the Redis queue. Queue trouble is
// logged and swallowed; notifications never fail the workflow.
func (n *NotificationService) enqueue(ctx context.Context, event events.Event) {
	if n.queue == nil || strings.TrimSpace(n.cfg.QueueKey) == "" {
		return
	}
	raw, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("failed to serialize event", zap.Error(err))
		return
	}
	if err := n.queue.LPush(ctx, n.cfg.QueueKey, raw).Err(); err != nil {
		n.logger.Warn("failed to enqueue notification",
			zap.String("queue", n.cfg.QueueKey), zap.Error(err))
	}
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
