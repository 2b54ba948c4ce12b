package domain

import "time"

// QuickReply is a canned message agents can insert into a draft.
// A nil TeamID makes the reply global.
type QuickReply struct {
	ID        string
	Title     string
	Content   string
	Shortcut  *string
	TeamID    *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
