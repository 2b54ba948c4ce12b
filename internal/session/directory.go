package session

import (
	"context"
	"strings"

	"github.com/atendesk/atendesk/internal/domain"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// ContactView is the identity information the directory resolves names from.
type ContactView struct {
	ID          string
	PhoneNumber string
	PushName    *string
	CustomName  *string
}

// Directory resolves contact display names and records agent-assigned
// custom names.
type Directory struct {
	api API
}

// NewDirectory builds a directory over the API.
func NewDirectory(api API) *Directory {
	return &Directory{api: api}
}

// DisplayName resolves the name shown for a contact: agent-assigned custom
// name, else the network-reported push name, else the phone number, else a
// fallback literal.
func (d *Directory) DisplayName(contact ContactView) string {
	if contact.CustomName != nil && *contact.CustomName != "" {
		return *contact.CustomName
	}
	if contact.PushName != nil && *contact.PushName != "" {
		return *contact.PushName
	}
	if contact.PhoneNumber != "" {
		return contact.PhoneNumber
	}
	return domain.DisplayNameFallback
}

// Rename records a custom name for the contact. An empty name clears the
// override so the push name shows again.
func (d *Directory) Rename(ctx context.Context, contactID, name string) error {
	if strings.TrimSpace(contactID) == "" {
		return apperrors.NewValidationError("contact id is required", nil)
	}
	return d.api.UpdateContactName(ctx, contactID, strings.TrimSpace(name))
}
