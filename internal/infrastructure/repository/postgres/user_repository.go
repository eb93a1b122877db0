package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peladahub/pelada-api/internal/domain/user"
	qb "github.com/peladahub/pelada-api/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (user.User, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, bool, error) {
	return r.getOne(ctx, qb.Expr("LOWER(email) = LOWER(?)", email))
}

func (r *UserRepository) GetByConfirmationToken(ctx context.Context, token string) (user.User, bool, error) {
	return r.getOne(ctx, qb.Eq("confirmation_token", token))
}

func (r *UserRepository) GetByLastConfirmationToken(ctx context.Context, token string) (user.User, bool, error) {
	return r.getOne(ctx, qb.Eq("last_confirmation_token", token))
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (user.User, bool, error) {
	return r.getOne(ctx, qb.Eq("reset_token", token))
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	builder := qb.Select("*").From("users")
	if filter.GroupID != nil {
		builder.Where(qb.Eq("group_id", *filter.GroupID))
	}
	if filter.Status != nil {
		builder.Where(qb.Eq("status", string(*filter.Status)))
	}
	query, args, err := builder.OrderBy("name", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list users query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").From("users").
		Where(qb.In("id", int64sToAny(ids))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list users by ids query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, item user.User) (user.User, error) {
	insertModel := userInsertModel{
		Name:                  item.Name,
		Email:                 item.Email,
		PasswordHash:          item.PasswordHash,
		Role:                  string(item.Role),
		Status:                string(item.Status),
		IsActive:              item.IsActive,
		ConfirmationToken:     item.ConfirmationToken,
		LastConfirmationToken: item.LastConfirmationToken,
		ResetToken:            item.ResetToken,
		ResetTokenExpiresAt:   item.ResetTokenExpiresAt,
		PreferredPosition:     item.PreferredPosition,
		GroupID:               item.GroupID,
	}

	query, args, err := qb.InsertModel("users", insertModel, "RETURNING id, created_at")
	if err != nil {
		return user.User{}, fmt.Errorf("build user insert query: %w", err)
	}

	var id int64
	var createdAt time.Time
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	item.ID = id
	item.CreatedAt = createdAt
	return item, nil
}

func (r *UserRepository) Update(ctx context.Context, item user.User) error {
	query, args, err := qb.Update("users").
		Set("name", item.Name).
		Set("email", item.Email).
		Set("password_hash", item.PasswordHash).
		Set("role", string(item.Role)).
		Set("status", string(item.Status)).
		Set("is_active", item.IsActive).
		Set("confirmation_token", item.ConfirmationToken).
		Set("last_confirmation_token", item.LastConfirmationToken).
		Set("reset_token", item.ResetToken).
		Set("reset_token_expires_at", item.ResetTokenExpiresAt).
		Set("preferred_position", item.PreferredPosition).
		Set("group_id", item.GroupID).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build user update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, condition qb.Condition) (user.User, bool, error) {
	query, args, err := qb.Select("*").From("users").Where(condition).ToSQL()
	if err != nil {
		return user.User{}, false, fmt.Errorf("build get user query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.User{}, false, nil
		}
		return user.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return userFromRow(row), true, nil
}
