package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/events"
	"github.com/atendesk/atendesk/internal/gateway"
	"github.com/atendesk/atendesk/internal/repository"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

const (
	countsCacheKey = "conversations:counts"
	countsCacheTTL = 10 * time.Second
)

// MessageGateway is the outbound side of the WhatsApp gateway used when an
// agent replies.
type MessageGateway interface {
	SendText(ctx context.Context, number, text string, quotedID *string) (*gateway.SendResult, error)
}

// ChatService coordinates the conversation lifecycle: listing, threads,
// agent replies and the waiting -> in_progress -> closed transitions.
type ChatService struct {
	conversations   repository.ConversationRepository
	messages        repository.MessageRepository
	contacts        repository.ContactRepository
	teams           repository.TeamRepository
	classifications repository.ClassificationRepository
	gateway         MessageGateway
	cache           *redis.Client
	dispatcher      events.Dispatcher
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	ConversationRepo   repository.ConversationRepository
	MessageRepo        repository.MessageRepository
	ContactRepo        repository.ContactRepository
	TeamRepo           repository.TeamRepository
	ClassificationRepo repository.ClassificationRepository
	Gateway            MessageGateway
	Cache              *redis.Client
	Dispatcher         events.Dispatcher
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		conversations:   deps.ConversationRepo,
		messages:        deps.MessageRepo,
		contacts:        deps.ContactRepo,
		teams:           deps.TeamRepo,
		classifications: deps.ClassificationRepo,
		gateway:         deps.Gateway,
		cache:           deps.Cache,
		dispatcher:      deps.Dispatcher,
	}
}

// ChatListFilter describes listing parameters for conversations.
type ChatListFilter struct {
	Status         *domain.ConversationStatus
	TeamID         *string
	AssignedUserID *string
	Limit          int
	Offset         int
}

// CloseInput carries the optional wrap-up fields recorded when closing.
type CloseInput struct {
	Classification  *string
	Rating          *int
	ClosingComments *string
}

// ListConversations returns one filtered page plus the total match count.
func (s *ChatService) ListConversations(ctx context.Context, filter ChatListFilter) ([]domain.Conversation, int, error) {
	if filter.Status != nil && !domain.ValidStatus(*filter.Status) {
		return nil, 0, apperrors.NewValidationError("unknown status filter", map[string]any{"status": string(*filter.Status)})
	}
	repoFilter := repository.ConversationFilter{
		Status:         filter.Status,
		TeamID:         filter.TeamID,
		AssignedUserID: filter.AssignedUserID,
		Limit:          filter.Limit,
		Offset:         filter.Offset,
	}
	items, total, err := s.conversations.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return items, total, nil
}

// GetConversation fetches one conversation by id.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return conv, nil
}

// GetThread returns the conversation and its messages oldest first.
func (s *ChatService) GetThread(ctx context.Context, id string, limit int) (*domain.Conversation, []domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ID, limit)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return conv, msgs, nil
}

// SendMessage delivers an agent reply through the gateway and records it in
// the thread. Sending never changes the conversation status; a closed
// conversation rejects the attempt before anything reaches the gateway.
func (s *ChatService) SendMessage(ctx context.Context, actor *domain.User, conversationID, text string, quotedID *string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("message text is required", nil)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if conv.Closed() {
		return nil, apperrors.NewValidationError("conversation is closed", map[string]any{"conversation_id": conv.ID})
	}

	contact, err := s.contacts.GetByID(ctx, conv.ContactID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result, err := s.gateway.SendText(ctx, contact.PhoneNumber, text, quotedID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID:  conv.ID,
		WhatsAppID:      result.MessageID,
		RemoteJID:       contact.RemoteJID,
		FromMe:          true,
		Type:            domain.MessageTypeText,
		Content:         &text,
		QuotedMessageID: quotedID,
		DeliveryStatus:  domain.DeliveryPending,
		Timestamp:       time.Now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	if conv.FirstResponseAt == nil {
		now := time.Now()
		conv.FirstResponseAt = &now
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:           events.EventMessageAdded,
		ConversationID: conv.ID,
		ActorUserID:    actorID(actor),
		Payload: events.MessageAddedPayload{
			MessageID:   msg.ID,
			FromMe:      true,
			BodyPreview: preview(text),
		},
	})
	return msg, nil
}

// Transfer routes a conversation to a team queue or directly to an agent.
// Without a target user the conversation returns to waiting and loses its
// owner; with one it becomes in_progress owned by that user, who must belong
// to the target team.
func (s *ChatService) Transfer(ctx context.Context, actor *domain.User, conversationID, teamID string, userID *string) (*domain.Conversation, error) {
	if strings.TrimSpace(teamID) == "" {
		return nil, apperrors.NewValidationError("transfer requires a team", nil)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if conv.Closed() {
		return nil, apperrors.NewConflict("conversation is closed", map[string]any{"conversation_id": conv.ID})
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !team.IsActive {
		return nil, apperrors.NewValidationError("team is inactive", map[string]any{"team_id": team.ID})
	}
	if userID != nil && !team.HasMember(*userID) {
		return nil, apperrors.NewValidationError("user is not a member of the team",
			map[string]any{"team_id": team.ID, "user_id": *userID})
	}

	oldStatus := conv.Status
	conv.TeamID = &team.ID
	conv.AssignedUserID = userID
	if userID != nil {
		conv.Status = domain.StatusInProgress
	} else {
		conv.Status = domain.StatusWaiting
	}

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateCounts(ctx)

	s.publishEvent(ctx, events.Event{
		Type:           events.EventConversationTransferred,
		ConversationID: conv.ID,
		ActorUserID:    actorID(actor),
		Payload: events.TransferredPayload{
			TeamID:         team.ID,
			AssignedUserID: userID,
		},
	})
	if oldStatus != conv.Status {
		s.publishEvent(ctx, events.Event{
			Type:           events.EventConversationStatus,
			ConversationID: conv.ID,
			ActorUserID:    actorID(actor),
			Payload: events.StatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: conv.Status,
			},
		})
	}
	return conv, nil
}

// Close ends a conversation, recording the wrap-up fields and who closed it.
// The assignee is retained for audit. Closing an already-closed conversation
// is a conflict so a second agent acting on stale state gets told.
func (s *ChatService) Close(ctx context.Context, actor *domain.User, conversationID string, input CloseInput) (*domain.Conversation, error) {
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": *input.Rating})
	}
	if input.Classification != nil {
		if _, err := s.classifications.GetByName(ctx, *input.Classification); err != nil {
			return nil, apperrors.NewValidationError("unknown classification", map[string]any{"classification": *input.Classification})
		}
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if conv.Closed() {
		return nil, apperrors.NewConflict("conversation already closed", map[string]any{"conversation_id": conv.ID})
	}

	now := time.Now()
	oldStatus := conv.Status
	conv.Status = domain.StatusClosed
	conv.Classification = input.Classification
	conv.Rating = input.Rating
	conv.ClosingComments = input.ClosingComments
	conv.ClosedAt = &now
	if actor != nil {
		conv.ClosedByID = &actor.ID
	}

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateCounts(ctx)

	s.publishEvent(ctx, events.Event{
		Type:           events.EventConversationStatus,
		ConversationID: conv.ID,
		ActorUserID:    actorID(actor),
		Payload: events.StatusChangedPayload{
			OldStatus:      oldStatus,
			NewStatus:      domain.StatusClosed,
			Classification: input.Classification,
		},
	})
	return conv, nil
}

// Reopen returns a closed conversation to in_progress. The previous assignee
// keeps ownership; only when the conversation closed unowned does the acting
// agent take it.
func (s *ChatService) Reopen(ctx context.Context, actor *domain.User, conversationID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !conv.Closed() {
		return nil, apperrors.NewConflict("conversation is not closed", map[string]any{"conversation_id": conv.ID})
	}

	conv.Status = domain.StatusInProgress
	if conv.AssignedUserID == nil && actor != nil {
		conv.AssignedUserID = &actor.ID
	}
	conv.ClosedAt = nil
	conv.ClosedByID = nil

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateCounts(ctx)

	s.publishEvent(ctx, events.Event{
		Type:           events.EventConversationStatus,
		ConversationID: conv.ID,
		ActorUserID:    actorID(actor),
		Payload: events.StatusChangedPayload{
			OldStatus: domain.StatusClosed,
			NewStatus: domain.StatusInProgress,
		},
	})
	return conv, nil
}

// Counts returns per-status conversation totals across all teams. Results
// are cached briefly in Redis since every polling client asks for them.
func (s *ChatService) Counts(ctx context.Context) (map[domain.ConversationStatus]int, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, countsCacheKey).Bytes()
		if err == nil {
			var cached map[domain.ConversationStatus]int
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	counts, err := s.conversations.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, status := range []domain.ConversationStatus{domain.StatusWaiting, domain.StatusInProgress, domain.StatusClosed} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(counts); err == nil {
			s.cache.Set(ctx, countsCacheKey, encoded, countsCacheTTL)
		}
	}
	return counts, nil
}

func (s *ChatService) invalidateCounts(ctx context.Context) {
	if s.cache != nil {
		s.cache.Del(ctx, countsCacheKey)
	}
}

func (s *ChatService) publishEvent(ctx context.Context, event events.Event) {
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

// generateProtocol builds the human-facing ticket number quoted to contacts.
func generateProtocol(now time.Time) string {
	return "ATD" + now.Format("20060102150405")
}

func actorID(actor *domain.User) *string {
	if actor == nil {
		return nil
	}
	return &actor.ID
}

// preview truncates on a rune boundary so event payloads stay valid UTF-8.
func preview(text string) string {
	const max = 80
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
