// Package session implements the agent-side conversation workspace: a local
// mirror of conversation summaries and one active thread, kept fresh by
// polling, with lifecycle operations (transfer, close, reopen, send) executed
// against the authoritative server and never guessed locally.
package session

import (
	"context"
	"time"

	"github.com/atendesk/atendesk/internal/domain"
)

// StatusFilter selects which status bucket the summary list shows.
// FilterAll omits the filter.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterWaiting    StatusFilter = StatusFilter(domain.StatusWaiting)
	FilterInProgress StatusFilter = StatusFilter(domain.StatusInProgress)
	FilterClosed     StatusFilter = StatusFilter(domain.StatusClosed)
)

// ConversationSummary is one row of the agent's conversation list.
type ConversationSummary struct {
	ID              string
	Protocol        string
	ContactID       string
	ContactName     string
	Status          domain.ConversationStatus
	TeamID          *string
	AssignedUserID  *string
	Classification  *string
	Rating          *int
	ClosedAt        *time.Time
	FirstResponseAt *time.Time
	UpdatedAt       time.Time
}

// MessageView is one thread entry as the agent sees it.
type MessageView struct {
	ID              string
	WhatsAppID      string
	FromMe          bool
	Type            domain.MessageType
	Content         *string
	QuotedMessageID *string
	DeliveryStatus  domain.DeliveryStatus
	Timestamp       time.Time
}

// ConversationPage is one filtered page plus the total match count.
type ConversationPage struct {
	Items []ConversationSummary
	Total int
}

// Counts carries per-status badge totals, independent of the list filter.
type Counts struct {
	Waiting    int
	InProgress int
	Closed     int
}

// TeamView is a transfer destination with its member ids.
type TeamView struct {
	ID        string
	Name      string
	MemberIDs []string
}

// UserView is an agent.
type UserView struct {
	ID    string
	Name  string
	Email string
}

// QuickReplyView is a canned message for draft insertion.
type QuickReplyView struct {
	ID      string
	Title   string
	Content string
}

// ClassificationView is a closing classification option.
type ClassificationView struct {
	ID   string
	Name string
}

// CloseRequest carries the optional wrap-up fields for Close.
type CloseRequest struct {
	Classification  *string
	Rating          *int
	ClosingComments *string
}

// ListFilter describes a summary page request.
type ListFilter struct {
	Status StatusFilter
	Limit  int
	Offset int
}

// API is the server contract the session core operates against. All state
// mutation flows through it; the core mirrors results locally and never
// invents identifiers.
type API interface {
	ListConversations(ctx context.Context, filter ListFilter) (*ConversationPage, error)
	GetConversation(ctx context.Context, id string) (*ConversationSummary, error)
	GetThread(ctx context.Context, id string) ([]MessageView, error)
	Counts(ctx context.Context) (Counts, error)

	SendMessage(ctx context.Context, id, text string, quotedID *string) error
	Transfer(ctx context.Context, id, teamID string, userID *string) error
	Close(ctx context.Context, id string, input CloseRequest) error
	Reopen(ctx context.Context, id string) error

	UpdateContactName(ctx context.Context, contactID, customName string) error

	ListTeams(ctx context.Context) ([]TeamView, error)
	ListUsers(ctx context.Context) ([]UserView, error)
	ListQuickReplies(ctx context.Context) ([]QuickReplyView, error)
	ListClassifications(ctx context.Context) ([]ClassificationView, error)
}
