package domain

import "time"

// ConversationStatus enumerates lifecycle states for conversations.
type ConversationStatus string

const (
	StatusWaiting    ConversationStatus = "waiting"
	StatusInProgress ConversationStatus = "in_progress"
	StatusClosed     ConversationStatus = "closed"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s ConversationStatus) bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// Conversation is the aggregate for one customer support session. A waiting
// conversation sits in a team queue and has no assigned user; an in_progress
// conversation is owned by exactly one user; a closed conversation keeps its
// last assignee for audit and accepts no new agent messages until reopened.
type Conversation struct {
	ID              string
	Protocol        string
	ContactID       string
	Status          ConversationStatus
	TeamID          *string
	AssignedUserID  *string
	Classification  *string
	Rating          *int
	ClosingComments *string
	ClosedByID      *string
	ClosedAt        *time.Time
	FirstResponseAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Closed reports whether the conversation is in the closed state.
func (c *Conversation) Closed() bool {
	return c.Status == StatusClosed
}

// Claimed reports whether the conversation is owned by a specific user.
func (c *Conversation) Claimed() bool {
	return c.Status == StatusInProgress && c.AssignedUserID != nil
}
