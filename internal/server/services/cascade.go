package services

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// CascadeCoordinator removes a user together with everything it owns.
type CascadeCoordinator struct {
	tx    dbx.Transactor
	repos repomanager.RepositoryManager
}

func NewCascadeCoordinator(tx dbx.Transactor, repos repomanager.RepositoryManager) *CascadeCoordinator {
	return &CascadeCoordinator{tx: tx, repos: repos}
}

// DeleteUser deletes the user's tasks, then its tokens, then the user
// record, as one unit of work. The first failing step aborts the rest, so
// the user never disappears while its tasks remain.
func (c *CascadeCoordinator) DeleteUser(ctx context.Context, user *models.User) error {
	err := c.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := c.repos.Tasks(tx).DeleteByOwner(ctx, user.ID); err != nil {
			return classify("delete tasks", err)
		}
		if err := c.repos.Tokens(tx).DeleteAll(ctx, user.ID); err != nil {
			return classify("delete tokens", err)
		}
		if err := c.repos.Users(tx).Delete(ctx, user.ID); err != nil {
			return classify("delete user", err)
		}
		return nil
	})
	return classify("cascade delete", err)
}
