package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type TaskRepository struct {
	s *Store
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.s.seq++
	r.s.tasks[task.ID] = *task
	r.s.taskSeq[task.ID] = r.s.seq
	return task, nil
}

func (r *TaskRepository) Get(ctx context.Context, owner, id string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok || t.Owner != owner {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, owner string, filter models.TaskFilter) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type entry struct {
		task models.Task
		seq  uint64
	}
	var entries []entry
	for id, t := range r.s.tasks {
		if t.Owner != owner {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		entries = append(entries, entry{task: t, seq: r.s.taskSeq[id]})
	}

	less := compareBy(filter.SortBy)
	sort.SliceStable(entries, func(i, j int) bool {
		c := less(&entries[i].task, &entries[j].task)
		if filter.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return entries[i].seq < entries[j].seq
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(entries) {
			entries = nil
		} else {
			entries = entries[filter.Skip:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(entries) {
		entries = entries[:filter.Limit]
	}

	result := make([]*models.Task, 0, len(entries))
	for i := range entries {
		t := entries[i].task
		result = append(result, &t)
	}
	return result, nil
}

// compareBy returns a three-way comparison over the named field. Unknown
// names order by creation time.
func compareBy(field string) func(a, b *models.Task) int {
	switch field {
	case models.TaskSortUpdatedAt:
		return func(a, b *models.Task) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case models.TaskSortDescription:
		return func(a, b *models.Task) int { return strings.Compare(a.Description, b.Description) }
	case models.TaskSortCompleted:
		return func(a, b *models.Task) int {
			switch {
			case a.Completed == b.Completed:
				return 0
			case !a.Completed:
				return -1
			default:
				return 1
			}
		}
	default:
		return func(a, b *models.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[task.ID]
	if !ok || t.Owner != task.Owner {
		return common.ErrorNotFound
	}
	task.UpdatedAt = r.s.now()
	t.Description = task.Description
	t.Completed = task.Completed
	t.UpdatedAt = task.UpdatedAt
	r.s.tasks[task.ID] = t
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, owner, id string) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.Owner != owner {
		return nil, common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	delete(r.s.taskSeq, id)
	return &t, nil
}

func (r *TaskRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.tasks {
		if t.Owner == owner {
			delete(r.s.tasks, id)
			delete(r.s.taskSeq, id)
			n++
		}
	}
	return n, nil
}
