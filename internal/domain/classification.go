package domain

import "time"

// Classification labels a closed conversation (e.g. "Resolved", "Spam").
type Classification struct {
	ID        string
	Name      string
	Color     string
	IsActive  bool
	CreatedAt time.Time
}
