package service

import (
	"context"
	"strings"

	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/repository"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// ReplyService manages the canned content agents compose with: quick replies
// and the classifications offered when closing a conversation.
type ReplyService struct {
	replies         repository.QuickReplyRepository
	classifications repository.ClassificationRepository
}

// NewReplyService constructs the service.
func NewReplyService(replies repository.QuickReplyRepository, classifications repository.ClassificationRepository) *ReplyService {
	return &ReplyService{replies: replies, classifications: classifications}
}

// QuickReplyInput carries create/update fields for a quick reply.
type QuickReplyInput struct {
	Title    string
	Content  string
	Shortcut *string
	TeamID   *string
}

// ListQuickReplies returns active quick replies visible to a team: the
// team's own plus global ones. A nil teamID returns only global replies.
func (s *ReplyService) ListQuickReplies(ctx context.Context, teamID *string) ([]domain.QuickReply, error) {
	replies, err := s.replies.ListActive(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return replies, nil
}

// CreateQuickReply registers a canned message.
func (s *ReplyService) CreateQuickReply(ctx context.Context, input QuickReplyInput) (*domain.QuickReply, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return nil, apperrors.NewValidationError("quick reply title and content are required", nil)
	}

	reply := &domain.QuickReply{
		Title:    input.Title,
		Content:  input.Content,
		Shortcut: input.Shortcut,
		TeamID:   input.TeamID,
		IsActive: true,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reply, nil
}

// UpdateQuickReply edits an existing quick reply.
func (s *ReplyService) UpdateQuickReply(ctx context.Context, id string, input QuickReplyInput) (*domain.QuickReply, error) {
	reply, err := s.replies.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return nil, apperrors.NewValidationError("quick reply title and content are required", nil)
	}

	reply.Title = input.Title
	reply.Content = input.Content
	reply.Shortcut = input.Shortcut
	reply.TeamID = input.TeamID
	if err := s.replies.Update(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reply, nil
}

// DeleteQuickReply removes a quick reply.
func (s *ReplyService) DeleteQuickReply(ctx context.Context, id string) error {
	if err := s.replies.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListClassifications returns the active closing classifications.
func (s *ReplyService) ListClassifications(ctx context.Context) ([]domain.Classification, error) {
	classifications, err := s.classifications.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return classifications, nil
}

// CreateClassification registers a closing classification.
func (s *ReplyService) CreateClassification(ctx context.Context, name, color string) (*domain.Classification, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("classification name is required", nil)
	}
	if existing, err := s.classifications.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("classification already exists", map[string]any{"name": name})
	}

	classification := &domain.Classification{
		Name:     name,
		Color:    color,
		IsActive: true,
	}
	if err := s.classifications.Create(ctx, classification); err != nil {
		return nil, apperrors.MapError(err)
	}
	return classification, nil
}

// DeactivateClassification retires a classification. Closed conversations
// keep referencing its name.
func (s *ReplyService) DeactivateClassification(ctx context.Context, id string) error {
	if err := s.classifications.Deactivate(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
