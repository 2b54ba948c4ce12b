package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/atendesk/atendesk/internal/api/dto"
	"github.com/atendesk/atendesk/internal/auth"
	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/service"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// ConversationsHandler exposes the conversation lifecycle endpoints.
type ConversationsHandler struct {
	chats    *service.ChatService
	contacts *service.ContactService
}

// NewConversationsHandler constructs handler.
func NewConversationsHandler(chats *service.ChatService, contacts *service.ContactService) *ConversationsHandler {
	return &ConversationsHandler{chats: chats, contacts: contacts}
}

// List GET /conversations.
func (h *ConversationsHandler) List(c *fiber.Ctx) error {
	filter := service.ChatListFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.ConversationStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("team_id"); raw != "" {
		filter.TeamID = &raw
	}
	if raw := c.Query("assigned_user_id"); raw != "" {
		filter.AssignedUserID = &raw
	}

	items, total, err := h.chats.ListConversations(c.UserContext(), filter)
	if err != nil {
		return err
	}

	summaries := make([]dto.ConversationSummary, 0, len(items))
	names := map[string]string{}
	for i := range items {
		conv := &items[i]
		name, ok := names[conv.ContactID]
		if !ok {
			name = h.contactName(c, conv.ContactID)
			names[conv.ContactID] = name
		}
		summaries = append(summaries, conversationSummary(conv, name))
	}
	return c.JSON(fiber.Map{"data": dto.ConversationListResponse{Items: summaries, Total: total}})
}

// Counts GET /conversations/counts.
func (h *ConversationsHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.chats.Counts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CountsResponse{
		Waiting:    counts[domain.StatusWaiting],
		InProgress: counts[domain.StatusInProgress],
		Closed:     counts[domain.StatusClosed],
	}})
}

// Get GET /conversations/:id.
func (h *ConversationsHandler) Get(c *fiber.Ctx) error {
	conv, err := h.chats.GetConversation(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv, h.contactName(c, conv.ContactID))})
}

// Thread GET /conversations/:id/messages.
func (h *ConversationsHandler) Thread(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "200"))
	conv, msgs, err := h.chats.GetThread(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return err
	}

	detail := dto.ConversationDetailResponse{
		Conversation: conversationSummary(conv, h.contactName(c, conv.ContactID)),
		Messages:     make([]dto.MessageResponse, 0, len(msgs)),
	}
	for i := range msgs {
		detail.Messages = append(detail.Messages, messageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// SendMessage POST /conversations/:id/messages.
func (h *ConversationsHandler) SendMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.chats.SendMessage(c.UserContext(), principal.User, c.Params("id"), req.Text, req.QuotedMessageID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// Transfer POST /conversations/:id/transfer.
func (h *ConversationsHandler) Transfer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	conv, err := h.chats.Transfer(c.UserContext(), principal.User, c.Params("id"), req.TeamID, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv, h.contactName(c, conv.ContactID))})
}

// Close POST /conversations/:id/close.
func (h *ConversationsHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("agent required")
	}
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	conv, err := h.chats.Close(c.UserContext(), principal.User, c.Params("id"), service.CloseInput{
		Classification:  req.Classification,
		Rating:          req.Rating,
		ClosingComments: req.ClosingComments,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv, h.contactName(c, conv.ContactID))})
}

// Reopen POST /conversations/:id/reopen.
func (h *ConversationsHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("agent required")
	}

	conv, err := h.chats.Reopen(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationSummary(conv, h.contactName(c, conv.ContactID))})
}

func (h *ConversationsHandler) contactName(c *fiber.Ctx, contactID string) string {
	contact, err := h.contacts.GetContact(c.UserContext(), contactID)
	if err != nil {
		return domain.DisplayNameFallback
	}
	return contact.DisplayName()
}

func conversationSummary(conv *domain.Conversation, contactName string) dto.ConversationSummary {
	return dto.ConversationSummary{
		ID:              conv.ID,
		Protocol:        conv.Protocol,
		ContactID:       conv.ContactID,
		ContactName:     contactName,
		Status:          conv.Status,
		TeamID:          conv.TeamID,
		AssignedUserID:  conv.AssignedUserID,
		Classification:  conv.Classification,
		Rating:          conv.Rating,
		ClosedAt:        conv.ClosedAt,
		FirstResponseAt: conv.FirstResponseAt,
		CreatedAt:       conv.CreatedAt,
		UpdatedAt:       conv.UpdatedAt,
	}
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:              msg.ID,
		WhatsAppID:      msg.WhatsAppID,
		FromMe:          msg.FromMe,
		Type:            msg.Type,
		Content:         msg.Content,
		MediaURL:        msg.MediaURL,
		MediaMimeType:   msg.MediaMimeType,
		MediaFilename:   msg.MediaFilename,
		QuotedMessageID: msg.QuotedMessageID,
		DeliveryStatus:  msg.DeliveryStatus,
		Timestamp:       msg.Timestamp,
	}
}
