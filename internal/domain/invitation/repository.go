package invitation

import (
	"context"

	"github.com/peladahub/pelada-api/internal/domain/user"
)

// ListFilter narrows List results; nil fields are ignored. Results are
// ordered by created_at descending.
type ListFilter struct {
	GroupID *int64
	Role    *user.Role
}

// Repository exposes invitation persistence operations.
type Repository interface {
	GetByToken(ctx context.Context, token string) (Invitation, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Invitation, error)
	ListPendingByEmail(ctx context.Context, email string, groupID *int64) ([]Invitation, error)
	Create(ctx context.Context, item Invitation) (Invitation, error)
	Update(ctx context.Context, item Invitation) error
}
