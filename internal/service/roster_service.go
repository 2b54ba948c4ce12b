package service

import (
	"context"
	"strings"

	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/repository"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// RosterService exposes teams, agents and team membership. Transfer targets
// come from here: a conversation can go to any active team, and to any agent
// belonging to that team.
type RosterService struct {
	teams repository.TeamRepository
	users repository.UserRepository
}

// NewRosterService constructs the service.
func NewRosterService(teams repository.TeamRepository, users repository.UserRepository) *RosterService {
	return &RosterService{teams: teams, users: users}
}

// ListTeams returns active teams with member ids populated.
func (s *RosterService) ListTeams(ctx context.Context, limit, offset int) ([]domain.Team, error) {
	teams, err := s.teams.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// GetTeam fetches one team.
func (s *RosterService) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// CreateTeam registers a new team.
func (s *RosterService) CreateTeam(ctx context.Context, name, description string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("team name is required", nil)
	}
	team := &domain.Team{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// ListUsers returns active agents.
func (s *RosterService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.users.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// TeamMembers resolves a team's member ids against the active agent roster.
// Agents deactivated since joining the team are filtered out.
func (s *RosterService) TeamMembers(ctx context.Context, teamID string) ([]domain.User, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var members []domain.User
	for _, userID := range team.MemberIDs {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			continue
		}
		if user.IsActive {
			members = append(members, *user)
		}
	}
	return members, nil
}

// AddMember puts an agent on a team. Adding twice is a no-op.
func (s *RosterService) AddMember(ctx context.Context, teamID, userID string) error {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return apperrors.MapError(err)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewValidationError("user is inactive", map[string]any{"user_id": userID})
	}
	if err := s.teams.AddMember(ctx, teamID, userID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// RemoveMember takes an agent off a team.
func (s *RosterService) RemoveMember(ctx context.Context, teamID, userID string) error {
	if err := s.teams.RemoveMember(ctx, teamID, userID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
