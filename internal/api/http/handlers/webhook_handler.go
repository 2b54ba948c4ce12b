package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/gateway"
	"github.com/atendesk/atendesk/internal/service"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// WebhookHandler receives gateway callbacks. Unrecognized event types are
// acknowledged and dropped so the gateway does not retry them forever.
type WebhookHandler struct {
	ingest *service.IngestService
	apiKey string
	logger *zap.Logger
}

// NewWebhookHandler constructs handler. A non-empty apiKey is required in
// the gateway's apikey header on every callback.
func NewWebhookHandler(ingest *service.IngestService, apiKey string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{ingest: ingest, apiKey: apiKey, logger: logger}
}

// Receive POST /webhooks/whatsapp.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	if h.apiKey != "" && c.Get("apikey") != h.apiKey {
		return apperrors.NewUnauthorized("invalid webhook key")
	}

	var event gateway.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return apperrors.NewValidationError("invalid webhook payload", nil)
	}

	switch normalizeEvent(event.Event) {
	case gateway.EventMessagesUpsert:
		var payload gateway.MessageUpsert
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return apperrors.NewValidationError("invalid messages upsert payload", nil)
		}
		if err := h.ingest.HandleMessageUpsert(c.UserContext(), payload); err != nil {
			return err
		}
	case gateway.EventMessagesUpdate:
		var payload gateway.MessageUpdate
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return apperrors.NewValidationError("invalid messages update payload", nil)
		}
		if err := h.ingest.HandleMessageUpdate(c.UserContext(), payload); err != nil {
			return err
		}
	case gateway.EventContactsUpsert:
		var entries []gateway.ContactUpsert
		if err := json.Unmarshal(event.Data, &entries); err != nil {
			var single gateway.ContactUpsert
			if err := json.Unmarshal(event.Data, &single); err != nil {
				return apperrors.NewValidationError("invalid contacts upsert payload", nil)
			}
			entries = []gateway.ContactUpsert{single}
		}
		if err := h.ingest.HandleContactsUpsert(c.UserContext(), entries); err != nil {
			return err
		}
	default:
		h.logger.Debug("webhook event ignored", zap.String("event", event.Event))
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// normalizeEvent maps "messages.upsert" style names onto the constant form.
func normalizeEvent(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}
