package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository persists tasks. Every read and write is keyed by the owner, so a
// task of another user behaves exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Get(ctx context.Context, owner, id string) (*models.Task, error)
	List(ctx context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, owner, id string) (*models.Task, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}
