// Package tasks contains the owner-scoped task repository.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// sortColumns maps sortable JSON field names to SQL columns. Anything not in
// this map never reaches the query text.
var sortColumns = map[string]string{
	models.TaskSortCreatedAt:   "created_at",
	models.TaskSortUpdatedAt:   "updated_at",
	models.TaskSortDescription: "description",
	models.TaskSortCompleted:   "completed",
}

const taskColumns = "id, owner_id, description, completed, created_at, updated_at"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (id, owner_id, description, completed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Owner, task.Description, task.Completed).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 `

	return scanOne(r.db.QueryRowContext(ctx, query, id, owner))
}

// List returns the owner's tasks narrowed and ordered by filter. Ties in the
// sort column fall back to id so paging is stable.
func (r *PostgresRepository) List(ctx context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error) {
	var sb strings.Builder
	args := []any{owner}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		fmt.Fprintf(&sb, ` AND completed = $%d`, len(args))
	}

	if col, ok := sortColumns[filter.SortBy]; ok {
		dir := "ASC"
		if filter.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, ` ORDER BY %s %s, id`, col, dir)
	} else {
		sb.WriteString(` ORDER BY created_at, id`)
	}

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if filter.Skip > 0 {
		args = append(args, filter.Skip)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t := &models.Task{}
		if err := rows.Scan(&t.ID, &t.Owner, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update writes description and completed of a task owned by task.Owner.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) error {
	query :=
		`UPDATE tasks SET description = $3, completed = $4, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Owner, task.Description, task.Completed).Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the task and returns it as it was.
func (r *PostgresRepository) Delete(ctx context.Context, owner, id string) (*models.Task, error) {
	query := `DELETE FROM tasks
		 WHERE id = $1 AND owner_id = $2
		 RETURNING ` + taskColumns

	return scanOne(r.db.QueryRowContext(ctx, query, id, owner))
}

func (r *PostgresRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	query :=
		`DELETE FROM tasks
		 WHERE owner_id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, owner)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanOne(row *sql.Row) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.Owner, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
