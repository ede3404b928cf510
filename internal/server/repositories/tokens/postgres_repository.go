// Package tokens contains the active bearer token registry storage.
package tokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends token to the user's set. A vanished user yields
// common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string) error {
	query :=
		`INSERT INTO user_tokens (user_id, token)
		 VALUES ($1, $2)
		 `

	_, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT token FROM user_tokens
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	result := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		result = append(result, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Delete removes exactly the matching token; removing an absent token is not
// an error.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, token string) error {
	query :=
		`DELETE FROM user_tokens
		 WHERE user_id = $1 AND token = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) error {
	query :=
		`DELETE FROM user_tokens
		 WHERE user_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Trim(ctx context.Context, userID string, keep int) error {
	query :=
		`DELETE FROM user_tokens
		 WHERE user_id = $1 AND id NOT IN (
		     SELECT id FROM user_tokens WHERE user_id = $1 ORDER BY id DESC LIMIT $2
		 )
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, keep); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
