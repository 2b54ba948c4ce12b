package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/events"
	"github.com/atendesk/atendesk/internal/gateway"
	"github.com/atendesk/atendesk/internal/repository"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// IngestService turns gateway webhook events into contacts, conversations
// and thread entries. An inbound message from an unknown contact opens a new
// waiting conversation; a contact with an open conversation appends to it.
type IngestService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	contacts      repository.ContactRepository
	cache         *redis.Client
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	ConversationRepo repository.ConversationRepository
	MessageRepo      repository.MessageRepository
	ContactRepo      repository.ContactRepository
	Cache            *redis.Client
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	return &IngestService{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		contacts:      deps.ContactRepo,
		cache:         deps.Cache,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// HandleMessageUpsert processes one MESSAGES_UPSERT payload. Group chats are
// ignored; duplicate gateway ids are dropped so webhook redelivery is safe.
func (s *IngestService) HandleMessageUpsert(ctx context.Context, payload gateway.MessageUpsert) error {
	jid := payload.Key.RemoteJID
	if gateway.IsGroupJID(jid) {
		return nil
	}
	if payload.Key.ID == "" {
		return apperrors.NewValidationError("message key id is required", nil)
	}

	if _, err := s.messages.GetByWhatsAppID(ctx, payload.Key.ID); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}

	contact, err := s.resolveContact(ctx, jid, payload.PushName)
	if err != nil {
		return err
	}

	conv, err := s.conversations.FindOpenByContact(ctx, contact.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		conv, err = s.openConversation(ctx, contact)
	}
	if err != nil {
		return apperrors.MapError(err)
	}

	msgType, content, mediaURL, mimeType, filename := payload.Message.Extract()
	status := domain.DeliveryReceived
	if payload.Key.FromMe {
		status = domain.DeliverySent
	}
	msg := &domain.Message{
		ConversationID: conv.ID,
		WhatsAppID:     payload.Key.ID,
		RemoteJID:      jid,
		FromMe:         payload.Key.FromMe,
		Type:           msgType,
		Content:        content,
		MediaURL:       mediaURL,
		MediaMimeType:  mimeType,
		MediaFilename:  filename,
		DeliveryStatus: status,
		Timestamp:      time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return apperrors.MapError(err)
	}

	if err := s.conversations.Update(ctx, conv); err != nil {
		s.logger.Warn("conversation touch failed", zap.String("conversation_id", conv.ID), zap.Error(err))
	}

	body := ""
	if content != nil {
		body = preview(*content)
	}
	s.publish(ctx, events.Event{
		Type:           events.EventMessageAdded,
		ConversationID: conv.ID,
		Payload: events.MessageAddedPayload{
			MessageID:   msg.ID,
			FromMe:      msg.FromMe,
			BodyPreview: body,
		},
	})
	return nil
}

// HandleMessageUpdate applies a delivery-status change reported by the
// gateway. Updates for messages we never stored are ignored.
func (s *IngestService) HandleMessageUpdate(ctx context.Context, payload gateway.MessageUpdate) error {
	status := payload.DeliveryStatus()
	if status == "" || payload.Key.ID == "" {
		return nil
	}
	err := s.messages.UpdateDeliveryStatus(ctx, payload.Key.ID, status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// HandleContactsUpsert refreshes push names and profile pictures for known
// contacts. Unknown JIDs are skipped; contacts are created on first message.
func (s *IngestService) HandleContactsUpsert(ctx context.Context, entries []gateway.ContactUpsert) error {
	for _, entry := range entries {
		jid := entry.JID()
		if jid == "" || gateway.IsGroupJID(jid) {
			continue
		}
		contact, err := s.contacts.GetByRemoteJID(ctx, jid)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return apperrors.MapError(err)
		}

		changed := false
		if entry.PushName != "" && (contact.PushName == nil || *contact.PushName != entry.PushName) {
			pushName := entry.PushName
			contact.PushName = &pushName
			changed = true
		}
		if entry.ProfilePictureURL != "" {
			pictureURL := entry.ProfilePictureURL
			contact.ProfilePictureURL = &pictureURL
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.contacts.Update(ctx, contact); err != nil {
			return apperrors.MapError(err)
		}
		s.publish(ctx, events.Event{
			Type: events.EventContactUpdated,
			Payload: events.ContactUpdatedPayload{
				ContactID: contact.ID,
			},
		})
	}
	return nil
}

func (s *IngestService) resolveContact(ctx context.Context, jid, pushName string) (*domain.Contact, error) {
	contact, err := s.contacts.GetByRemoteJID(ctx, jid)
	if errors.Is(err, pgx.ErrNoRows) {
		contact = &domain.Contact{
			RemoteJID:   jid,
			PhoneNumber: gateway.ParseJIDToNumber(jid),
		}
		if pushName != "" {
			contact.PushName = &pushName
		}
		if err := s.contacts.Create(ctx, contact); err != nil {
			return nil, apperrors.MapError(err)
		}
		return contact, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	contact.LastContactAt = time.Now()
	if pushName != "" && (contact.PushName == nil || *contact.PushName != pushName) {
		contact.PushName = &pushName
	}
	if err := s.contacts.Update(ctx, contact); err != nil {
		s.logger.Warn("contact refresh failed", zap.String("contact_id", contact.ID), zap.Error(err))
	}
	return contact, nil
}

func (s *IngestService) openConversation(ctx context.Context, contact *domain.Contact) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		Protocol:  generateProtocol(time.Now()),
		ContactID: contact.ID,
		Status:    domain.StatusWaiting,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Del(ctx, countsCacheKey)
	}

	s.logger.Info("conversation opened",
		zap.String("conversation_id", conv.ID),
		zap.String("protocol", conv.Protocol),
		zap.String("contact_id", contact.ID),
	)
	s.publish(ctx, events.Event{
		Type:           events.EventConversationCreated,
		ConversationID: conv.ID,
		Payload: events.ConversationCreatedPayload{
			Protocol:  conv.Protocol,
			ContactID: contact.ID,
		},
	})
	return conv, nil
}

func (s *IngestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
