package user

import "context"

// ListFilter narrows List results; nil fields are ignored.
type ListFilter struct {
	GroupID *int64
	Status  *Status
}

// Repository exposes user persistence operations. List results are ordered
// by name.
type Repository interface {
	GetByID(ctx context.Context, id int64) (User, bool, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByConfirmationToken(ctx context.Context, token string) (User, bool, error)
	GetByLastConfirmationToken(ctx context.Context, token string) (User, bool, error)
	GetByResetToken(ctx context.Context, token string) (User, bool, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]User, error)
	Create(ctx context.Context, item User) (User, error)
	Update(ctx context.Context, item User) error
}
