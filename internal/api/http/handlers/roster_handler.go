package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/atendesk/atendesk/internal/api/dto"
	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/service"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// RosterHandler exposes teams, agents and team membership.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// ListTeams GET /teams.
func (h *RosterHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.roster.ListTeams(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, teamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTeam POST /teams.
func (h *RosterHandler) CreateTeam(c *fiber.Ctx) error {
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.roster.CreateTeam(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// TeamMembers GET /teams/:id/members.
func (h *RosterHandler) TeamMembers(c *fiber.Ctx) error {
	members, err := h.roster.TeamMembers(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(members))
	for i := range members {
		items = append(items, userResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddMember POST /teams/:id/members.
func (h *RosterHandler) AddMember(c *fiber.Ctx) error {
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.roster.AddMember(c.UserContext(), c.Params("id"), req.UserID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveMember DELETE /teams/:id/members/:userId.
func (h *RosterHandler) RemoveMember(c *fiber.Ctx) error {
	if err := h.roster.RemoveMember(c.UserContext(), c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListUsers GET /users.
func (h *RosterHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.roster.ListUsers(c.UserContext(), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func teamResponse(team *domain.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		MemberIDs:   team.MemberIDs,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}
