package dto

import "time"

// TeamResponse represents a team with its member ids.
type TeamResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"member_ids"`
}

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AddMemberRequest payload.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

// UserResponse represents an agent.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// QuickReplyResponse represents a canned message.
type QuickReplyResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Shortcut *string `json:"shortcut"`
	TeamID   *string `json:"team_id"`
}

// QuickReplyRequest payload for create/update.
type QuickReplyRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Shortcut *string `json:"shortcut"`
	TeamID   *string `json:"team_id"`
}

// ClassificationResponse represents a closing classification.
type ClassificationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateClassificationRequest payload.
type CreateClassificationRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}
