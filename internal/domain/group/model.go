package group

import "time"

// Group is the membership boundary: users, games and invitations all hang off
// one group, and every game operation is scoped to the caller's group.
type Group struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
}
