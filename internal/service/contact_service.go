package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/events"
	"github.com/atendesk/atendesk/internal/repository"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// ContactService exposes the contact directory to agents.
type ContactService struct {
	contacts   repository.ContactRepository
	dispatcher events.Dispatcher
}

// NewContactService constructs the service.
func NewContactService(contacts repository.ContactRepository, dispatcher events.Dispatcher) *ContactService {
	return &ContactService{contacts: contacts, dispatcher: dispatcher}
}

// ListContacts returns contacts ordered by most recent activity, optionally
// filtered by a name or phone search term.
func (s *ContactService) ListContacts(ctx context.Context, search string, limit, offset int) ([]domain.Contact, error) {
	contacts, err := s.contacts.List(ctx, search, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return contacts, nil
}

// GetContact fetches one contact.
func (s *ContactService) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return contact, nil
}

// SetCustomName records an agent-assigned name for a contact. The custom
// name wins over the WhatsApp push name everywhere names are displayed; an
// empty value clears it so the push name shows again.
func (s *ContactService) SetCustomName(ctx context.Context, contactID, name string) (*domain.Contact, error) {
	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		contact.CustomName = nil
	} else {
		contact.CustomName = &name
	}

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventContactUpdated,
			Timestamp: time.Now(),
			Payload: events.ContactUpdatedPayload{
				ContactID:  contact.ID,
				CustomName: contact.CustomName,
			},
		})
	}
	return contact, nil
}
