package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/atendesk/atendesk/internal/api/dto"
	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/service"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// RepliesHandler exposes quick replies and closing classifications.
type RepliesHandler struct {
	replies *service.ReplyService
}

// NewRepliesHandler constructs handler.
func NewRepliesHandler(replies *service.ReplyService) *RepliesHandler {
	return &RepliesHandler{replies: replies}
}

// ListQuickReplies GET /quick-replies.
func (h *RepliesHandler) ListQuickReplies(c *fiber.Ctx) error {
	var teamID *string
	if raw := c.Query("team_id"); raw != "" {
		teamID = &raw
	}
	replies, err := h.replies.ListQuickReplies(c.UserContext(), teamID)
	if err != nil {
		return err
	}
	items := make([]dto.QuickReplyResponse, 0, len(replies))
	for i := range replies {
		items = append(items, quickReplyResponse(&replies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateQuickReply POST /quick-replies.
func (h *RepliesHandler) CreateQuickReply(c *fiber.Ctx) error {
	var req dto.QuickReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.replies.CreateQuickReply(c.UserContext(), service.QuickReplyInput{
		Title:    req.Title,
		Content:  req.Content,
		Shortcut: req.Shortcut,
		TeamID:   req.TeamID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": quickReplyResponse(reply)})
}

// UpdateQuickReply PUT /quick-replies/:id.
func (h *RepliesHandler) UpdateQuickReply(c *fiber.Ctx) error {
	var req dto.QuickReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.replies.UpdateQuickReply(c.UserContext(), c.Params("id"), service.QuickReplyInput{
		Title:    req.Title,
		Content:  req.Content,
		Shortcut: req.Shortcut,
		TeamID:   req.TeamID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": quickReplyResponse(reply)})
}

// DeleteQuickReply DELETE /quick-replies/:id.
func (h *RepliesHandler) DeleteQuickReply(c *fiber.Ctx) error {
	if err := h.replies.DeleteQuickReply(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListClassifications GET /classifications.
func (h *RepliesHandler) ListClassifications(c *fiber.Ctx) error {
	classifications, err := h.replies.ListClassifications(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ClassificationResponse, 0, len(classifications))
	for i := range classifications {
		items = append(items, classificationResponse(&classifications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateClassification POST /classifications.
func (h *RepliesHandler) CreateClassification(c *fiber.Ctx) error {
	var req dto.CreateClassificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	classification, err := h.replies.CreateClassification(c.UserContext(), req.Name, req.Color)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": classificationResponse(classification)})
}

// DeactivateClassification DELETE /classifications/:id.
func (h *RepliesHandler) DeactivateClassification(c *fiber.Ctx) error {
	if err := h.replies.DeactivateClassification(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func quickReplyResponse(reply *domain.QuickReply) dto.QuickReplyResponse {
	return dto.QuickReplyResponse{
		ID:       reply.ID,
		Title:    reply.Title,
		Content:  reply.Content,
		Shortcut: reply.Shortcut,
		TeamID:   reply.TeamID,
	}
}

func classificationResponse(classification *domain.Classification) dto.ClassificationResponse {
	return dto.ClassificationResponse{
		ID:        classification.ID,
		Name:      classification.Name,
		Color:     classification.Color,
		CreatedAt: classification.CreatedAt,
	}
}
