package postgres

import (
	"time"

	"github.com/peladahub/pelada-api/internal/domain/game"
)

type gameTableModel struct {
	ID                     int64      `db:"id"`
	Name                   string     `db:"name"`
	Location               string     `db:"location"`
	ScheduledAt            time.Time  `db:"scheduled_at"`
	MaxPlayers             int        `db:"max_players"`
	ConvocationDeadline    *time.Time `db:"convocation_deadline"`
	AutoConvokeMensalistas bool       `db:"auto_convoke_mensalistas"`
	OwnerID                *int64     `db:"owner_id"`
	GroupID                int64      `db:"group_id"`
	CreatedAt              time.Time  `db:"created_at"`
}

type gameInsertModel struct {
	Name                   string     `db:"name"`
	Location               string     `db:"location"`
	ScheduledAt            time.Time  `db:"scheduled_at"`
	MaxPlayers             int        `db:"max_players"`
	ConvocationDeadline    *time.Time `db:"convocation_deadline"`
	AutoConvokeMensalistas bool       `db:"auto_convoke_mensalistas"`
	OwnerID                *int64     `db:"owner_id"`
	GroupID                int64      `db:"group_id"`
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:                     row.ID,
		Name:                   row.Name,
		Location:               row.Location,
		ScheduledAt:            row.ScheduledAt,
		MaxPlayers:             row.MaxPlayers,
		ConvocationDeadline:    row.ConvocationDeadline,
		AutoConvokeMensalistas: row.AutoConvokeMensalistas,
		OwnerID:                row.OwnerID,
		GroupID:                row.GroupID,
		CreatedAt:              row.CreatedAt,
	}
}

type convocationTableModel struct {
	ID          int64      `db:"id"`
	GameID      int64      `db:"game_id"`
	UserID      int64      `db:"user_id"`
	Status      string     `db:"status"`
	RespondedAt *time.Time `db:"responded_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func convocationFromRow(row convocationTableModel) game.Convocation {
	return game.Convocation{
		ID:          row.ID,
		GameID:      row.GameID,
		UserID:      row.UserID,
		Status:      game.ConvocationStatus(row.Status),
		RespondedAt: row.RespondedAt,
		CreatedAt:   row.CreatedAt,
	}
}

type presenceTableModel struct {
	ID            int64     `db:"id"`
	GameID        int64     `db:"game_id"`
	UserID        int64     `db:"user_id"`
	Role          string    `db:"role"`
	Status        string    `db:"status"`
	QueuePosition *int      `db:"queue_position"`
	JoinedAt      time.Time `db:"joined_at"`
}

type presenceInsertModel struct {
	GameID        int64     `db:"game_id"`
	UserID        int64     `db:"user_id"`
	Role          string    `db:"role"`
	Status        string    `db:"status"`
	QueuePosition *int      `db:"queue_position"`
	JoinedAt      time.Time `db:"joined_at"`
}

func presenceFromRow(row presenceTableModel) game.Presence {
	return game.Presence{
		ID:            row.ID,
		GameID:        row.GameID,
		UserID:        row.UserID,
		Role:          game.PresenceRole(row.Role),
		Status:        game.PresenceStatus(row.Status),
		QueuePosition: row.QueuePosition,
		JoinedAt:      row.JoinedAt,
	}
}
