package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peladahub/pelada-api/internal/domain/game"
	qb "github.com/peladahub/pelada-api/internal/platform/querybuilder"
)

// GameRepository persists games, convocations and presences. Atomic opens a
// transaction and hands the callback a repository bound to it; a repository
// already inside a transaction runs the callback on itself.
type GameRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db, ext: db}
}

func (r *GameRepository) Atomic(ctx context.Context, fn func(game.Repository) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&GameRepository{ext: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *GameRepository) Create(ctx context.Context, item game.Game) (game.Game, error) {
	insertModel := gameInsertModel{
		Name:                   item.Name,
		Location:               item.Location,
		ScheduledAt:            item.ScheduledAt,
		MaxPlayers:             item.MaxPlayers,
		ConvocationDeadline:    item.ConvocationDeadline,
		AutoConvokeMensalistas: item.AutoConvokeMensalistas,
		OwnerID:                item.OwnerID,
		GroupID:                item.GroupID,
	}

	query, args, err := qb.InsertModel("games", insertModel, "RETURNING id, created_at")
	if err != nil {
		return game.Game{}, fmt.Errorf("build game insert query: %w", err)
	}

	var id int64
	var createdAt time.Time
	if err := r.ext.QueryRowxContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return game.Game{}, fmt.Errorf("insert game: %w", err)
	}

	item.ID = id
	item.CreatedAt = createdAt
	return item, nil
}

func (r *GameRepository) GetByID(ctx context.Context, id int64) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game: %w", err)
	}
	return gameFromRow(row), true, nil
}

func (r *GameRepository) GetAggregate(ctx context.Context, id int64) (game.Aggregate, bool, error) {
	g, exists, err := r.GetByID(ctx, id)
	if err != nil || !exists {
		return game.Aggregate{}, exists, err
	}

	convQuery, convArgs, err := qb.Select("*").From("convocations").Where(qb.Eq("game_id", id)).OrderBy("id").ToSQL()
	if err != nil {
		return game.Aggregate{}, false, fmt.Errorf("build list convocations query: %w", err)
	}
	var convRows []convocationTableModel
	if err := sqlx.SelectContext(ctx, r.ext, &convRows, convQuery, convArgs...); err != nil {
		return game.Aggregate{}, false, fmt.Errorf("list convocations: %w", err)
	}

	presQuery, presArgs, err := qb.Select("*").From("presences").Where(qb.Eq("game_id", id)).OrderBy("id").ToSQL()
	if err != nil {
		return game.Aggregate{}, false, fmt.Errorf("build list presences query: %w", err)
	}
	var presRows []presenceTableModel
	if err := sqlx.SelectContext(ctx, r.ext, &presRows, presQuery, presArgs...); err != nil {
		return game.Aggregate{}, false, fmt.Errorf("list presences: %w", err)
	}

	agg := game.Aggregate{Game: g}
	for _, row := range convRows {
		agg.Convocations = append(agg.Convocations, convocationFromRow(row))
	}
	for _, row := range presRows {
		agg.Presences = append(agg.Presences, presenceFromRow(row))
	}
	return agg, true, nil
}

func (r *GameRepository) ListByGroup(ctx context.Context, groupID int64) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("group_id", groupID)).
		OrderBy("scheduled_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games query: %w", err)
	}

	var rows []gameTableModel
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by group: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

// Delete relies on ON DELETE CASCADE for convocations and presences.
func (r *GameRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := qb.DeleteFrom("games").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete game query: %w", err)
	}
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

func (r *GameRepository) GetConvocation(ctx context.Context, gameID, userID int64) (game.Convocation, bool, error) {
	query, args, err := qb.Select("*").From("convocations").
		Where(qb.Eq("game_id", gameID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return game.Convocation{}, false, fmt.Errorf("build get convocation query: %w", err)
	}

	var row convocationTableModel
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Convocation{}, false, nil
		}
		return game.Convocation{}, false, fmt.Errorf("get convocation: %w", err)
	}
	return convocationFromRow(row), true, nil
}

func (r *GameRepository) CreateConvocations(ctx context.Context, gameID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	builder := qb.InsertInto("convocations").Columns("game_id", "user_id", "status")
	for _, userID := range userIDs {
		builder.Values(gameID, userID, string(game.ConvocationPending))
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert convocations query: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert convocations: %w", err)
	}
	return nil
}

func (r *GameRepository) UpdateConvocation(ctx context.Context, item game.Convocation) error {
	query, args, err := qb.Update("convocations").
		Set("status", string(item.Status)).
		Set("responded_at", item.RespondedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update convocation query: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update convocation: %w", err)
	}
	return nil
}

func (r *GameRepository) DeleteConvocation(ctx context.Context, gameID, userID int64) error {
	query, args, err := qb.DeleteFrom("convocations").
		Where(qb.Eq("game_id", gameID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete convocation query: %w", err)
	}
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete convocation: %w", err)
	}
	return nil
}

func (r *GameRepository) GetPresence(ctx context.Context, gameID, userID int64) (game.Presence, bool, error) {
	query, args, err := qb.Select("*").From("presences").
		Where(qb.Eq("game_id", gameID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return game.Presence{}, false, fmt.Errorf("build get presence query: %w", err)
	}

	var row presenceTableModel
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Presence{}, false, nil
		}
		return game.Presence{}, false, fmt.Errorf("get presence: %w", err)
	}
	return presenceFromRow(row), true, nil
}

func (r *GameRepository) CreatePresence(ctx context.Context, item game.Presence) (game.Presence, error) {
	insertModel := presenceInsertModel{
		GameID:        item.GameID,
		UserID:        item.UserID,
		Role:          string(item.Role),
		Status:        string(item.Status),
		QueuePosition: item.QueuePosition,
		JoinedAt:      item.JoinedAt,
	}

	query, args, err := qb.InsertModel("presences", insertModel, "RETURNING id")
	if err != nil {
		return game.Presence{}, fmt.Errorf("build presence insert query: %w", err)
	}

	var id int64
	if err := r.ext.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return game.Presence{}, fmt.Errorf("insert presence: %w", err)
	}

	item.ID = id
	return item, nil
}

func (r *GameRepository) UpdatePresence(ctx context.Context, item game.Presence) error {
	query, args, err := qb.Update("presences").
		Set("role", string(item.Role)).
		Set("status", string(item.Status)).
		Set("queue_position", item.QueuePosition).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update presence query: %w", err)
	}

	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

func (r *GameRepository) DeletePresence(ctx context.Context, gameID, userID int64) error {
	query, args, err := qb.DeleteFrom("presences").
		Where(qb.Eq("game_id", gameID), qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete presence query: %w", err)
	}
	if _, err := r.ext.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete presence: %w", err)
	}
	return nil
}

func (r *GameRepository) MaxQueuePosition(ctx context.Context, gameID int64) (int, error) {
	query, args, err := qb.Select("COALESCE(MAX(queue_position), 0)").From("presences").
		Where(qb.Eq("game_id", gameID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build max queue position query: %w", err)
	}

	var maxPosition int
	if err := sqlx.GetContext(ctx, r.ext, &maxPosition, query, args...); err != nil {
		return 0, fmt.Errorf("get max queue position: %w", err)
	}
	return maxPosition, nil
}

func (r *GameRepository) OldestWaitingPresence(ctx context.Context, gameID int64) (game.Presence, bool, error) {
	query, args, err := qb.Select("*").From("presences").
		Where(qb.Eq("game_id", gameID), qb.Eq("status", string(game.PresenceWaiting))).
		OrderBy("queue_position ASC", "joined_at ASC").
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Presence{}, false, fmt.Errorf("build oldest waiting presence query: %w", err)
	}

	var row presenceTableModel
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Presence{}, false, nil
		}
		return game.Presence{}, false, fmt.Errorf("get oldest waiting presence: %w", err)
	}
	return presenceFromRow(row), true, nil
}

func (r *GameRepository) NewestConfirmedAvulso(ctx context.Context, gameID int64) (game.Presence, bool, error) {
	query, args, err := qb.Select("*").From("presences").
		Where(
			qb.Eq("game_id", gameID),
			qb.Eq("role", string(game.PresenceRoleAvulso)),
			qb.Eq("status", string(game.PresenceConfirmed)),
		).
		OrderBy("queue_position DESC", "joined_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Presence{}, false, fmt.Errorf("build newest confirmed avulso query: %w", err)
	}

	var row presenceTableModel
	if err := sqlx.GetContext(ctx, r.ext, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Presence{}, false, nil
		}
		return game.Presence{}, false, fmt.Errorf("get newest confirmed avulso: %w", err)
	}
	return presenceFromRow(row), true, nil
}
