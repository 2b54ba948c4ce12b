package dto

import "time"

// ContactResponse represents a directory entry.
type ContactResponse struct {
	ID                string    `json:"id"`
	RemoteJID         string    `json:"remote_jid"`
	PhoneNumber       string    `json:"phone_number"`
	PushName          *string   `json:"push_name"`
	CustomName        *string   `json:"custom_name"`
	DisplayName       string    `json:"display_name"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	FirstContactAt    time.Time `json:"first_contact_at"`
	LastContactAt     time.Time `json:"last_contact_at"`
}

// UpdateContactNameRequest payload. An empty custom_name clears the
// agent-assigned name.
type UpdateContactNameRequest struct {
	CustomName string `json:"custom_name"`
}
