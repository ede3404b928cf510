package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

var (
	// taskCreateFields may appear in a create request. "owner" is accepted
	// and ignored: the owner is always the caller.
	taskCreateFields = map[string]bool{
		"description": true,
		"completed":   true,
		"owner":       true,
	}
	taskUpdateFields = map[string]bool{
		"description": true,
		"completed":   true,
	}
	taskSortFields = map[string]bool{
		models.TaskSortCreatedAt:   true,
		models.TaskSortUpdatedAt:   true,
		models.TaskSortDescription: true,
		models.TaskSortCompleted:   true,
	}
)

// TaskService is the owner-scoped gate in front of task storage. Every
// operation is narrowed to tasks owned by the resolved caller; a task of
// someone else is indistinguishable from a missing one.
type TaskService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
}

func NewTaskService(tx dbx.Transactor, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{tx: tx, repomanager: m}
}

func (s *TaskService) repo() tasks.Repository {
	return s.repomanager.Tasks(s.tx.Conn())
}

// Create stores a new task owned by the caller.
func (s *TaskService) Create(ctx context.Context, ac *AuthContext, fields map[string]any) (*models.Task, error) {
	if err := checkAllowed(fields, taskCreateFields); err != nil {
		return nil, err
	}

	ve := &common.ValidationError{}
	task := &models.Task{ID: uuid.NewString(), Owner: ac.User.ID}

	if v, ok := stringField(ve, fields, "description"); ok {
		task.Description = strings.TrimSpace(v)
	}
	if v, ok := boolField(ve, fields, "completed"); ok {
		task.Completed = v
	}
	if task.Description == "" {
		ve.Add("description", "is required")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	created, err := s.repo().Create(ctx, task)
	if err != nil {
		return nil, classify("create task", err)
	}
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, ac *AuthContext, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	t, err := s.repo().Get(ctx, ac.User.ID, id)
	if err != nil {
		return nil, classify("get task", err)
	}
	return t, nil
}

// List returns the caller's tasks narrowed by filter. Negative paging
// values are treated as absent.
func (s *TaskService) List(ctx context.Context, ac *AuthContext, filter models.TaskFilter) ([]*models.Task, error) {
	if filter.SortBy != "" && !taskSortFields[filter.SortBy] {
		return nil, common.NewValidationError("sortBy", "is not a sortable field")
	}
	filter.Limit = max(filter.Limit, 0)
	filter.Skip = max(filter.Skip, 0)

	list, err := s.repo().List(ctx, ac.User.ID, filter)
	if err != nil {
		return nil, classify("list tasks", err)
	}
	return list, nil
}

// Update applies fields to one of the caller's tasks. Only description and
// completed may change; any other name fails with
// common.ErrInvalidUpdateFields before storage is touched.
func (s *TaskService) Update(ctx context.Context, ac *AuthContext, id string, fields map[string]any) (*models.Task, error) {
	if err := checkAllowed(fields, taskUpdateFields); err != nil {
		return nil, err
	}

	ve := &common.ValidationError{}
	desc, hasDesc := stringField(ve, fields, "description")
	completed, hasCompleted := boolField(ve, fields, "completed")
	if hasDesc {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			ve.Add("description", "is required")
		}
	}
	if ve.HasErrors() {
		return nil, ve
	}

	task, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if hasDesc {
		task.Description = desc
	}
	if hasCompleted {
		task.Completed = completed
	}

	if err := s.repo().Update(ctx, task); err != nil {
		return nil, classify("update task", err)
	}
	return task, nil
}

// Delete removes one of the caller's tasks and returns it.
func (s *TaskService) Delete(ctx context.Context, ac *AuthContext, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	t, err := s.repo().Delete(ctx, ac.User.ID, id)
	if err != nil {
		return nil, classify("delete task", err)
	}
	return t, nil
}

// ParseSort reads a "field:asc" or "field:desc" sort expression. An empty
// expression means the default order.
func ParseSort(expr string) (sortBy string, desc bool, err error) {
	if expr == "" {
		return "", false, nil
	}
	field, dir, _ := strings.Cut(expr, ":")
	if !taskSortFields[field] {
		return "", false, common.NewValidationError("sortBy", "is not a sortable field")
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return field, false, nil
	case "desc":
		return field, true, nil
	default:
		return "", false, common.NewValidationError("sortBy", "direction must be asc or desc")
	}
}
