package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestDisplayNamePriority(t *testing.T) {
	contact := Contact{}
	assert.Equal(t, DisplayNameFallback, contact.DisplayName())

	contact.PhoneNumber = "5511999990000"
	assert.Equal(t, "5511999990000", contact.DisplayName())

	contact.PushName = strPtr("Alice")
	assert.Equal(t, "Alice", contact.DisplayName())

	contact.CustomName = strPtr("Alice (VIP)")
	assert.Equal(t, "Alice (VIP)", contact.DisplayName())

	contact.CustomName = strPtr("")
	assert.Equal(t, "Alice", contact.DisplayName())
}

func TestConversationStateHelpers(t *testing.T) {
	conv := Conversation{Status: StatusWaiting}
	assert.False(t, conv.Closed())
	assert.False(t, conv.Claimed())

	userID := "u1"
	conv.Status = StatusInProgress
	conv.AssignedUserID = &userID
	assert.True(t, conv.Claimed())

	conv.Status = StatusClosed
	assert.True(t, conv.Closed())
	assert.False(t, conv.Claimed())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusWaiting))
	assert.True(t, ValidStatus(StatusInProgress))
	assert.True(t, ValidStatus(StatusClosed))
	assert.False(t, ValidStatus("archived"))
}

func TestTeamHasMember(t *testing.T) {
	team := Team{MemberIDs: []string{"u1", "u2"}}
	assert.True(t, team.HasMember("u1"))
	assert.False(t, team.HasMember("u3"))
}
