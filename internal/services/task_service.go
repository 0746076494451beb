package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rzaleman/taskman-be/internal/apperr"
	"github.com/rzaleman/taskman-be/internal/models"
	"github.com/rzaleman/taskman-be/internal/validation"
)

// TaskQuery carries the list options: an exact completed filter, a sort key
// with direction, and offset pagination. No implicit limit is applied.
type TaskQuery struct {
	Completed *bool
	SortBy    string // e.g. "createdAt_desc"
	Limit     int    // < 0 means unlimited
	Skip      int
}

// TaskUpdate carries the mutable task fields. A nil field means unchanged.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	CreateTask(ctx context.Context, owner, description string, completed bool) (models.Task, error)
	GetTask(ctx context.Context, owner, id string) (models.Task, error)
	ListTasks(ctx context.Context, owner string, q TaskQuery) ([]models.Task, error)
	UpdateTask(ctx context.Context, owner, id string, update TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, owner, id string) (models.Task, error)
}

// TaskService provides owner-scoped business logic for tasks. Every query
// filters on the owner column, so a non-owner sees the same not-found as a
// missing record.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

const taskColumns = "id, description, completed, owner, created_at, updated_at"

// sortColumns whitelists the API sort keys against their columns.
var sortColumns = map[string]string{
	"description": "description",
	"completed":   "completed",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Description, &t.Completed, &t.Owner, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTask persists a new task. The owner always comes from the
// authenticated identity, never from the request body.
func (s *TaskService) CreateTask(ctx context.Context, owner, description string, completed bool) (models.Task, error) {
	description = strings.TrimSpace(description)
	if err := validation.TaskDescription(description); err != nil {
		return models.Task{}, apperr.FieldErrors{{Field: "description", Msg: err.Error()}}
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, description, completed, owner) VALUES (?, ?, ?, ?)",
		id, description, completed, owner)
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, owner, id)
}

// GetTask retrieves a task if and only if the caller owns it.
func (s *TaskService) GetTask(ctx context.Context, owner, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND owner = ?", id, owner)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, apperr.ErrNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// ListTasks returns the caller's tasks, filtered, sorted and paginated.
func (s *TaskService) ListTasks(ctx context.Context, owner string, q TaskQuery) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE owner = ?"
	args := []interface{}{owner}

	if q.Completed != nil {
		query += " AND completed = ?"
		args = append(args, *q.Completed)
	}

	orderBy, err := parseSortBy(q.SortBy)
	if err != nil {
		return nil, err
	}
	// rowid tiebreak keeps same-timestamp rows in insertion order.
	query += " ORDER BY " + orderBy + ", rowid ASC"

	limit := q.Limit
	if limit < 0 {
		limit = -1 // sqlite: LIMIT -1 is unbounded
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, q.Skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// parseSortBy maps a "<key>_<asc|desc>" value onto a safe ORDER BY clause.
// An empty value keeps creation order.
func parseSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "created_at ASC", nil
	}

	key, dir := sortBy, "asc"
	if i := strings.LastIndex(sortBy, "_"); i >= 0 {
		key, dir = sortBy[:i], sortBy[i+1:]
	}

	column, ok := sortColumns[key]
	if !ok || (dir != "asc" && dir != "desc") {
		return "", fmt.Errorf("%w: invalid sortBy %q", apperr.ErrValidation, sortBy)
	}
	return column + " " + strings.ToUpper(dir), nil
}

// UpdateTask applies a partial update to an owned task.
func (s *TaskService) UpdateTask(ctx context.Context, owner, id string, update TaskUpdate) (models.Task, error) {
	task, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}

	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
		if err := validation.TaskDescription(task.Description); err != nil {
			return models.Task{}, apperr.FieldErrors{{Field: "description", Msg: err.Error()}}
		}
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE tasks SET description = ?, completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND owner = ?",
		task.Description, task.Completed, id, owner)
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, owner, id)
}

// DeleteTask removes an owned task and returns it. Deleting an absent or
// foreign task yields the same ErrNotFound, so repeats are idempotent.
func (s *TaskService) DeleteTask(ctx context.Context, owner, id string) (models.Task, error) {
	task, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return models.Task{}, err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}
