package invitation

import (
	"time"

	"github.com/peladahub/pelada-api/internal/domain/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

// Invitation is a single-use, expiring onboarding token for one email into
// one group. At most one pending invitation per (email, group) is meaningful;
// newer invitations expire older pending ones.
type Invitation struct {
	ID         int64
	Name       string
	Email      string
	Token      string
	Status     Status
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	UserID     *int64
	GroupID    int64
	Role       user.Role
	CreatedAt  time.Time
}

// Expired reports whether a pending invitation is past its deadline.
func (i Invitation) Expired(now time.Time) bool {
	return i.Status == StatusPending && i.ExpiresAt.Before(now)
}
