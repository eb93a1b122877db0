package postgres

import (
	"time"

	"github.com/peladahub/pelada-api/internal/domain/user"
)

type userTableModel struct {
	ID                    int64      `db:"id"`
	Name                  string     `db:"name"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	Role                  string     `db:"role"`
	Status                string     `db:"status"`
	IsActive              bool       `db:"is_active"`
	ConfirmationToken     *string    `db:"confirmation_token"`
	LastConfirmationToken *string    `db:"last_confirmation_token"`
	ResetToken            *string    `db:"reset_token"`
	ResetTokenExpiresAt   *time.Time `db:"reset_token_expires_at"`
	PreferredPosition     *string    `db:"preferred_position"`
	GroupID               *int64     `db:"group_id"`
	CreatedAt             time.Time  `db:"created_at"`
}

type userInsertModel struct {
	Name                  string     `db:"name"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	Role                  string     `db:"role"`
	Status                string     `db:"status"`
	IsActive              bool       `db:"is_active"`
	ConfirmationToken     *string    `db:"confirmation_token"`
	LastConfirmationToken *string    `db:"last_confirmation_token"`
	ResetToken            *string    `db:"reset_token"`
	ResetTokenExpiresAt   *time.Time `db:"reset_token_expires_at"`
	PreferredPosition     *string    `db:"preferred_position"`
	GroupID               *int64     `db:"group_id"`
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:                    row.ID,
		Name:                  row.Name,
		Email:                 row.Email,
		PasswordHash:          row.PasswordHash,
		Role:                  user.Role(row.Role),
		Status:                user.Status(row.Status),
		IsActive:              row.IsActive,
		ConfirmationToken:     row.ConfirmationToken,
		LastConfirmationToken: row.LastConfirmationToken,
		ResetToken:            row.ResetToken,
		ResetTokenExpiresAt:   row.ResetTokenExpiresAt,
		PreferredPosition:     row.PreferredPosition,
		GroupID:               row.GroupID,
		CreatedAt:             row.CreatedAt,
	}
}
