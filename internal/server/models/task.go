package models

import "time"

type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Sortable task fields, keyed by their JSON names.
const (
	TaskSortCreatedAt   = "createdAt"
	TaskSortUpdatedAt   = "updatedAt"
	TaskSortDescription = "description"
	TaskSortCompleted   = "completed"
)

// TaskFilter narrows and orders a task listing. The owner is not part of
// the filter: repositories take it as a separate, mandatory argument.
type TaskFilter struct {
	Completed *bool
	SortBy    string
	Desc      bool
	Limit     int
	Skip      int
}
