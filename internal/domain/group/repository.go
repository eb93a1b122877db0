package group

import "context"

// Repository exposes group persistence operations. List is ordered by name.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Group, bool, error)
	GetByName(ctx context.Context, name string) (Group, bool, error)
	List(ctx context.Context) ([]Group, error)
	Create(ctx context.Context, item Group) (Group, error)
}
