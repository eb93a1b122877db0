package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/peladahub/pelada-api/internal/domain/group"
	qb "github.com/peladahub/pelada-api/internal/platform/querybuilder"
)

type groupTableModel struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type groupInsertModel struct {
	Name        string  `db:"name"`
	Description *string `db:"description"`
}

func groupFromRow(row groupTableModel) group.Group {
	return group.Group{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}

type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (group.Group, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id))
}

func (r *GroupRepository) GetByName(ctx context.Context, name string) (group.Group, bool, error) {
	return r.getOne(ctx, qb.Eq("name", name))
}

func (r *GroupRepository) List(ctx context.Context) ([]group.Group, error) {
	query, args, err := qb.Select("*").From("groups").OrderBy("name", "id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list groups query: %w", err)
	}

	var rows []groupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	out := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupFromRow(row))
	}
	return out, nil
}

func (r *GroupRepository) Create(ctx context.Context, item group.Group) (group.Group, error) {
	insertModel := groupInsertModel{Name: item.Name, Description: item.Description}

	query, args, err := qb.InsertModel("groups", insertModel, "RETURNING id, created_at")
	if err != nil {
		return group.Group{}, fmt.Errorf("build group insert query: %w", err)
	}

	var id int64
	var createdAt time.Time
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return group.Group{}, fmt.Errorf("insert group: %w", err)
	}

	item.ID = id
	item.CreatedAt = createdAt
	return item, nil
}

func (r *GroupRepository) getOne(ctx context.Context, condition qb.Condition) (group.Group, bool, error) {
	query, args, err := qb.Select("*").From("groups").Where(condition).ToSQL()
	if err != nil {
		return group.Group{}, false, fmt.Errorf("build get group query: %w", err)
	}

	var row groupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return group.Group{}, false, nil
		}
		return group.Group{}, false, fmt.Errorf("get group: %w", err)
	}
	return groupFromRow(row), true, nil
}
