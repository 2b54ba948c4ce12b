package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/config"
	"github.com/atendesk/atendesk/internal/events"
)

// NotificationService forwards domain events to the configured webhook and
// logs them for operators. With no webhook configured it only logs.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	http       *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		http:       &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventConversationCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventConversationStatus, n.handleEvent)
	n.dispatcher.Subscribe(events.EventConversationTransferred, n.handleEvent)
	n.dispatcher.Subscribe(events.EventMessageAdded, n.handleEvent)
	n.dispatcher.Subscribe(events.EventContactUpdated, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("domain event",
		zap.String("event_type", string(event.Type)),
		zap.String("conversation_id", event.ConversationID),
	)
	n.forwardWebhook(ctx, event)
	return nil
}

// forwardWebhook posts the event to the configured URL. Failures are logged
// and dropped; notification delivery never blocks the originating request.
func (n *NotificationService) forwardWebhook(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("notification encode failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("notification request failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		n.logger.Warn("notification delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.logger.Warn("notification rejected",
			zap.String("url", n.cfg.WebhookURL),
			zap.Int("status", resp.StatusCode),
		)
	}
}
