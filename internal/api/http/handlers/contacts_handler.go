package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/atendesk/atendesk/internal/api/dto"
	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/service"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// ContactsHandler exposes the contact directory.
type ContactsHandler struct {
	contacts *service.ContactService
}

// NewContactsHandler constructs handler.
func NewContactsHandler(contacts *service.ContactService) *ContactsHandler {
	return &ContactsHandler{contacts: contacts}
}

// List GET /contacts.
func (h *ContactsHandler) List(c *fiber.Ctx) error {
	contacts, err := h.contacts.ListContacts(c.UserContext(),
		c.Query("search"),
		c.QueryInt("limit", 20),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return err
	}
	items := make([]dto.ContactResponse, 0, len(contacts))
	for i := range contacts {
		items = append(items, contactResponse(&contacts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /contacts/:id.
func (h *ContactsHandler) Get(c *fiber.Ctx) error {
	contact, err := h.contacts.GetContact(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contactResponse(contact)})
}

// SetCustomName PUT /contacts/:id/name.
func (h *ContactsHandler) SetCustomName(c *fiber.Ctx) error {
	var req dto.UpdateContactNameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	contact, err := h.contacts.SetCustomName(c.UserContext(), c.Params("id"), req.CustomName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": contactResponse(contact)})
}

func contactResponse(contact *domain.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:                contact.ID,
		RemoteJID:         contact.RemoteJID,
		PhoneNumber:       contact.PhoneNumber,
		PushName:          contact.PushName,
		CustomName:        contact.CustomName,
		DisplayName:       contact.DisplayName(),
		ProfilePictureURL: contact.ProfilePictureURL,
		FirstContactAt:    contact.FirstContactAt,
		LastContactAt:     contact.LastContactAt,
	}
}
