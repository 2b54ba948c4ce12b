package session

import "context"

// Roster resolves transfer destinations and composer lookups.
type Roster struct {
	api API
}

// NewRoster builds a roster over the API.
func NewRoster(api API) *Roster {
	return &Roster{api: api}
}

// Teams lists the transfer destination teams.
func (r *Roster) Teams(ctx context.Context) ([]TeamView, error) {
	return r.api.ListTeams(ctx)
}

// TransferTargets resolves the agents a conversation may be transferred to
// within a team: the intersection of the full agent roster with the team's
// member-id set. Only these users are valid "transfer to user" targets.
func (r *Roster) TransferTargets(ctx context.Context, teamID string) ([]UserView, error) {
	teams, err := r.api.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	var memberIDs map[string]bool
	for _, team := range teams {
		if team.ID == teamID {
			memberIDs = make(map[string]bool, len(team.MemberIDs))
			for _, id := range team.MemberIDs {
				memberIDs[id] = true
			}
			break
		}
	}
	if memberIDs == nil {
		return nil, nil
	}

	users, err := r.api.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var targets []UserView
	for _, user := range users {
		if memberIDs[user.ID] {
			targets = append(targets, user)
		}
	}
	return targets, nil
}

// QuickReplies lists canned messages for draft insertion.
func (r *Roster) QuickReplies(ctx context.Context) ([]QuickReplyView, error) {
	return r.api.ListQuickReplies(ctx)
}

// Classifications lists the closing classification options.
func (r *Roster) Classifications(ctx context.Context) ([]ClassificationView, error) {
	return r.api.ListClassifications(ctx)
}
