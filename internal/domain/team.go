package domain

import "time"

// Team groups agents that pull from the same waiting queue. MemberIDs holds
// the ids of users belonging to the team; only members are valid transfer
// targets for "transfer to user".
type Team struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	MemberIDs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether userID belongs to the team.
func (t *Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
