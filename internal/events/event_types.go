package events

import (
	"time"

	"github.com/atendesk/atendesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventConversationCreated     EventType = "conversation_created"
	EventConversationStatus      EventType = "conversation_status_changed"
	EventConversationTransferred EventType = "conversation_transferred"
	EventMessageAdded            EventType = "conversation_message_added"
	EventContactUpdated          EventType = "contact_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	ActorUserID    *string     `json:"actor_user_id,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// ConversationCreatedPayload payload.
type ConversationCreatedPayload struct {
	Protocol  string  `json:"protocol"`
	ContactID string  `json:"contact_id"`
	TeamID    *string `json:"team_id,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus      domain.ConversationStatus `json:"old_status"`
	NewStatus      domain.ConversationStatus `json:"new_status"`
	Classification *string                   `json:"classification,omitempty"`
}

// TransferredPayload payload.
type TransferredPayload struct {
	TeamID         string  `json:"team_id"`
	AssignedUserID *string `json:"assigned_user_id,omitempty"`
}

// MessageAddedPayload payload.
type MessageAddedPayload struct {
	MessageID   string `json:"message_id"`
	FromMe      bool   `json:"from_me"`
	BodyPreview string `json:"body_preview"`
}

// ContactUpdatedPayload payload.
type ContactUpdatedPayload struct {
	ContactID  string  `json:"contact_id"`
	CustomName *string `json:"custom_name,omitempty"`
}
