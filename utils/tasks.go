package utils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"task-tracker/models"
)

var tracer = otel.Tracer("task-tracker/utils")

// TaskService runs the task operations against a Database. It holds no task
// state of its own; every call reads storage.
type TaskService struct {
	db *Database
}

// NewTaskService returns a TaskService backed by db.
func NewTaskService(db *Database) *TaskService {
	return &TaskService{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		task        models.Task
		description sql.NullString
		completed   int64
	)
	if err := row.Scan(&task.ID, &task.Title, &description, &completed); err != nil {
		return models.Task{}, err
	}
	if description.Valid {
		d := description.String
		task.Description = &d
	}
	task.Completed = completed != 0
	return task, nil
}

// ListTasks returns every task in storage order. The result is never nil.
func (s *TaskService) ListTasks(ctx context.Context) (tasks []models.Task, err error) {
	ctx, span := tracer.Start(ctx, "tasks.list")
	defer func() { endSpan(span, err) }()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `SELECT id, title, description, completed FROM tasks`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks = []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("tasks.count", len(tasks)))
	return tasks, nil
}

// GetTask returns one task by id.
func (s *TaskService) GetTask(ctx context.Context, id int64) (task models.Task, err error) {
	ctx, span := tracer.Start(ctx, "tasks.get", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer func() { endSpan(span, err) }()

	if id <= 0 {
		return models.Task{}, ErrNotFound
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return models.Task{}, err
	}
	defer conn.Close()

	row := conn.QueryRowContext(ctx, `SELECT id, title, description, completed FROM tasks WHERE id = ?`, id)
	task, err = scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// AddTask inserts a new, not yet completed task. A blank title is rejected
// before anything is written; otherwise the title is stored as given.
func (s *TaskService) AddTask(ctx context.Context, input models.NewTask) (task models.Task, err error) {
	ctx, span := tracer.Start(ctx, "tasks.add")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(input.Title) == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return models.Task{}, err
	}
	defer conn.Close()

	var description sql.NullString
	if input.Description != nil {
		description = sql.NullString{String: *input.Description, Valid: true}
	}
	result, err := conn.ExecContext(ctx,
		`INSERT INTO tasks (title, description, completed) VALUES (?, ?, 0)`,
		input.Title, description,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("read task id: %w", err)
	}
	span.SetAttributes(attribute.Int64("task.id", id))

	return models.Task{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
	}, nil
}

// SetTaskCompleted changes the completion flag and returns the updated task.
// The existence check and the write are one statement, so a concurrent
// delete either happens first (ErrNotFound) or after (update wins, then row goes).
func (s *TaskService) SetTaskCompleted(ctx context.Context, id int64, completed bool) (task models.Task, err error) {
	ctx, span := tracer.Start(ctx, "tasks.set_completed", trace.WithAttributes(
		attribute.Int64("task.id", id),
		attribute.Bool("task.completed", completed),
	))
	defer func() { endSpan(span, err) }()

	if id <= 0 {
		return models.Task{}, ErrNotFound
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return models.Task{}, err
	}
	defer conn.Close()

	flag := 0
	if completed {
		flag = 1
	}
	row := conn.QueryRowContext(ctx,
		`UPDATE tasks SET completed = ? WHERE id = ?
		 RETURNING id, title, description, completed`,
		flag, id,
	)
	task, err = scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// DeleteTask permanently removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "tasks.delete", trace.WithAttributes(attribute.Int64("task.id", id)))
	defer func() { endSpan(span, err) }()

	if id <= 0 {
		return ErrNotFound
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks storage reachability for health probes.
func (s *TaskService) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// endSpan records caller errors as span events and storage failures as span errors.
func endSpan(span trace.Span, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput):
		span.AddEvent(err.Error())
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
