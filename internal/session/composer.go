package session

import (
	"context"
	"sync"

	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// Composer manages the outbound draft for the active conversation: the text
// being typed, an optional quoted-message reference and canned-content
// insertion. One send may be outstanding at a time.
type Composer struct {
	engine *Engine
	store  *Store

	mu       sync.Mutex
	draft    string
	quotedID *string
	sending  bool
}

// NewComposer builds a composer bound to the engine and store.
func NewComposer(engine *Engine, store *Store) *Composer {
	return &Composer{engine: engine, store: store}
}

// SetDraft replaces the draft text.
func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the current draft text.
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Quote sets the quoted-message reference for the next send. The reference
// lives only in this session; it is discarded after the send.
func (c *Composer) Quote(messageID string) {
	c.mu.Lock()
	c.quotedID = &messageID
	c.mu.Unlock()
}

// ClearQuote drops the quoted-message reference.
func (c *Composer) ClearQuote() {
	c.mu.Lock()
	c.quotedID = nil
	c.mu.Unlock()
}

// QuotedID returns the quoted-message reference, or nil.
func (c *Composer) QuotedID() *string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotedID
}

// InsertQuickReply appends a canned message to the draft.
func (c *Composer) InsertQuickReply(reply QuickReplyView) {
	c.insert(reply.Content)
}

// InsertEmoji appends an emoji to the draft.
func (c *Composer) InsertEmoji(emoji string) {
	c.insert(emoji)
}

func (c *Composer) insert(text string) {
	c.mu.Lock()
	c.draft += text
	c.mu.Unlock()
}

// Send submits the draft to the active conversation. On success the draft is
// cleared, then the quote reference, then the active thread refreshed (the
// engine refreshes as part of the transition). While one send is outstanding
// further sends are rejected.
func (c *Composer) Send(ctx context.Context) error {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return apperrors.NewConflict("send already in progress", nil)
	}
	draft := c.draft
	quoted := c.quotedID
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	conversationID := c.store.ActiveID()
	if conversationID == "" {
		return apperrors.NewValidationError("no active conversation", nil)
	}

	if err := c.engine.SendMessage(ctx, conversationID, draft, quoted); err != nil {
		return err
	}

	c.mu.Lock()
	c.draft = ""
	c.quotedID = nil
	c.mu.Unlock()
	return nil
}

// Sending reports whether a send is outstanding.
func (c *Composer) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}
