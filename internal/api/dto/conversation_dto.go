package dto

import (
	"time"

	"github.com/atendesk/atendesk/internal/domain"
)

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	ID              string                    `json:"id"`
	Protocol        string                    `json:"protocol"`
	ContactID       string                    `json:"contact_id"`
	ContactName     string                    `json:"contact_name"`
	Status          domain.ConversationStatus `json:"status"`
	TeamID          *string                   `json:"team_id"`
	AssignedUserID  *string                   `json:"assigned_user_id"`
	Classification  *string                   `json:"classification"`
	Rating          *int                      `json:"rating"`
	ClosedAt        *time.Time                `json:"closed_at"`
	FirstResponseAt *time.Time                `json:"first_response_at"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

// ConversationListResponse is a filtered page plus the total match count.
type ConversationListResponse struct {
	Items []ConversationSummary `json:"items"`
	Total int                   `json:"total"`
}

// CountsResponse carries per-status totals across all teams.
type CountsResponse struct {
	Waiting    int `json:"waiting"`
	InProgress int `json:"in_progress"`
	Closed     int `json:"closed"`
}

// MessageResponse is one thread entry.
type MessageResponse struct {
	ID              string                `json:"id"`
	WhatsAppID      string                `json:"whatsapp_id"`
	FromMe          bool                  `json:"from_me"`
	Type            domain.MessageType    `json:"type"`
	Content         *string               `json:"content"`
	MediaURL        *string               `json:"media_url,omitempty"`
	MediaMimeType   *string               `json:"media_mimetype,omitempty"`
	MediaFilename   *string               `json:"media_filename,omitempty"`
	QuotedMessageID *string               `json:"quoted_message_id,omitempty"`
	DeliveryStatus  domain.DeliveryStatus `json:"delivery_status"`
	Timestamp       time.Time             `json:"timestamp"`
}

// ConversationDetailResponse is a conversation with its thread.
type ConversationDetailResponse struct {
	Conversation ConversationSummary `json:"conversation"`
	Messages     []MessageResponse   `json:"messages"`
}

// SendMessageRequest payload.
type SendMessageRequest struct {
	Text            string  `json:"text"`
	QuotedMessageID *string `json:"quoted_message_id"`
}

// TransferRequest payload. A nil user_id sends the conversation to the
// team's waiting queue.
type TransferRequest struct {
	TeamID string  `json:"team_id"`
	UserID *string `json:"user_id"`
}

// CloseRequest payload.
type CloseRequest struct {
	Classification  *string `json:"classification"`
	Rating          *int    `json:"rating"`
	ClosingComments *string `json:"closing_comments"`
}
