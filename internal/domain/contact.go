package domain

import "time"

// DisplayNameFallback is shown when a contact has no name or phone on record.
const DisplayNameFallback = "unknown contact"

// Contact is a WhatsApp identity that has interacted with the helpdesk.
// RemoteJID is the stable gateway key (e.g. 5511999999999@s.whatsapp.net).
type Contact struct {
	ID                string
	RemoteJID         string
	PhoneNumber       string
	PushName          *string
	CustomName        *string
	ProfilePictureURL *string
	FirstContactAt    time.Time
	LastContactAt     time.Time
}

// DisplayName resolves the name shown to agents: agent-assigned custom name,
// then the push name reported by WhatsApp, then the phone number.
func (c *Contact) DisplayName() string {
	if c.CustomName != nil && *c.CustomName != "" {
		return *c.CustomName
	}
	if c.PushName != nil && *c.PushName != "" {
		return *c.PushName
	}
	if c.PhoneNumber != "" {
		return c.PhoneNumber
	}
	return DisplayNameFallback
}
