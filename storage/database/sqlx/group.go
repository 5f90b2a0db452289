package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core/group"
)

type groupRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r groupRow) toGroup() group.Group {
	return group.Group{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sql.DB) *groupRepository {
	return &groupRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	g.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_at) VALUES ($1, $2, $3)`,
		g.ID, g.Name, g.CreatedAt.UTC())
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return g, nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.Group{}, group.ErrNotFound
	}
	var r groupRow
	err := repo.db.GetContext(ctx, &r, `SELECT id, name, created_at FROM groups WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, errors.Wrap(err, "finding group by ID")
	}
	return r.toGroup(), nil
}

func (repo groupRepository) QueryGroups(ctx context.Context) ([]group.Group, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM groups ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.toGroup())
	}
	return groups, nil
}
