package game

import "context"

// Repository exposes game, convocation and presence persistence. Aggregates
// are always loaded whole so slot accounting never sees partial state.
//
// Atomic runs fn against a repository view bound to one transaction; every
// roster mutation happens inside such a scope and either fully commits or
// fully rolls back. Implementations without real transactions must at least
// serialize Atomic sections against each other.
type Repository interface {
	Atomic(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, item Game) (Game, error)
	GetByID(ctx context.Context, id int64) (Game, bool, error)
	GetAggregate(ctx context.Context, id int64) (Aggregate, bool, error)
	ListByGroup(ctx context.Context, groupID int64) ([]Game, error)
	Delete(ctx context.Context, id int64) error

	GetConvocation(ctx context.Context, gameID, userID int64) (Convocation, bool, error)
	CreateConvocations(ctx context.Context, gameID int64, userIDs []int64) error
	UpdateConvocation(ctx context.Context, item Convocation) error
	DeleteConvocation(ctx context.Context, gameID, userID int64) error

	GetPresence(ctx context.Context, gameID, userID int64) (Presence, bool, error)
	CreatePresence(ctx context.Context, item Presence) (Presence, error)
	UpdatePresence(ctx context.Context, item Presence) error
	DeletePresence(ctx context.Context, gameID, userID int64) error
	MaxQueuePosition(ctx context.Context, gameID int64) (int, error)
	OldestWaitingPresence(ctx context.Context, gameID int64) (Presence, bool, error)
	NewestConfirmedAvulso(ctx context.Context, gameID int64) (Presence, bool, error)
}
