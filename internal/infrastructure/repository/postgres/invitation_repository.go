package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peladahub/pelada-api/internal/domain/invitation"
	"github.com/peladahub/pelada-api/internal/domain/user"
	qb "github.com/peladahub/pelada-api/internal/platform/querybuilder"
)

type invitationTableModel struct {
	ID         int64      `db:"id"`
	Name       string     `db:"name"`
	Email      string     `db:"email"`
	Token      string     `db:"token"`
	Status     string     `db:"status"`
	ExpiresAt  time.Time  `db:"expires_at"`
	AcceptedAt *time.Time `db:"accepted_at"`
	UserID     *int64     `db:"user_id"`
	GroupID    int64      `db:"group_id"`
	Role       string     `db:"role"`
	CreatedAt  time.Time  `db:"created_at"`
}

type invitationInsertModel struct {
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	Status    string    `db:"status"`
	ExpiresAt time.Time `db:"expires_at"`
	GroupID   int64     `db:"group_id"`
	Role      string    `db:"role"`
}

func invitationFromRow(row invitationTableModel) invitation.Invitation {
	return invitation.Invitation{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email,
		Token:      row.Token,
		Status:     invitation.Status(row.Status),
		ExpiresAt:  row.ExpiresAt,
		AcceptedAt: row.AcceptedAt,
		UserID:     row.UserID,
		GroupID:    row.GroupID,
		Role:       user.Role(row.Role),
		CreatedAt:  row.CreatedAt,
	}
}

type InvitationRepository struct {
	db *sqlx.DB
}

func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (invitation.Invitation, bool, error) {
	query, args, err := qb.Select("*").From("invitations").Where(qb.Eq("token", token)).ToSQL()
	if err != nil {
		return invitation.Invitation{}, false, fmt.Errorf("build get invitation query: %w", err)
	}

	var row invitationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return invitation.Invitation{}, false, nil
		}
		return invitation.Invitation{}, false, fmt.Errorf("get invitation: %w", err)
	}
	return invitationFromRow(row), true, nil
}

func (r *InvitationRepository) List(ctx context.Context, filter invitation.ListFilter) ([]invitation.Invitation, error) {
	builder := qb.Select("*").From("invitations")
	if filter.GroupID != nil {
		builder.Where(qb.Eq("group_id", *filter.GroupID))
	}
	if filter.Role != nil {
		builder.Where(qb.Eq("role", string(*filter.Role)))
	}
	query, args, err := builder.OrderBy("created_at DESC", "id DESC").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list invitations query: %w", err)
	}

	var rows []invitationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	out := make([]invitation.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, invitationFromRow(row))
	}
	return out, nil
}

func (r *InvitationRepository) ListPendingByEmail(ctx context.Context, email string, groupID *int64) ([]invitation.Invitation, error) {
	builder := qb.Select("*").From("invitations").
		Where(
			qb.Expr("LOWER(email) = LOWER(?)", email),
			qb.Eq("status", string(invitation.StatusPending)),
		)
	if groupID != nil {
		builder.Where(qb.Eq("group_id", *groupID))
	}
	query, args, err := builder.OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pending invitations query: %w", err)
	}

	var rows []invitationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}

	out := make([]invitation.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, invitationFromRow(row))
	}
	return out, nil
}

func (r *InvitationRepository) Create(ctx context.Context, item invitation.Invitation) (invitation.Invitation, error) {
	insertModel := invitationInsertModel{
		Name:      item.Name,
		Email:     item.Email,
		Token:     item.Token,
		Status:    string(item.Status),
		ExpiresAt: item.ExpiresAt,
		GroupID:   item.GroupID,
		Role:      string(item.Role),
	}

	query, args, err := qb.InsertModel("invitations", insertModel, "RETURNING id, created_at")
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("build invitation insert query: %w", err)
	}

	var id int64
	var createdAt time.Time
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return invitation.Invitation{}, fmt.Errorf("insert invitation: %w", err)
	}

	item.ID = id
	item.CreatedAt = createdAt
	return item, nil
}

func (r *InvitationRepository) Update(ctx context.Context, item invitation.Invitation) error {
	query, args, err := qb.Update("invitations").
		Set("status", string(item.Status)).
		Set("accepted_at", item.AcceptedAt).
		Set("user_id", item.UserID).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build invitation update query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}
