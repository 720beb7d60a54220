package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"task-tracker/models"
	"task-tracker/utils"
)

// TaskService is the set of task operations the HTTP API exposes.
type TaskService interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	AddTask(ctx context.Context, input models.NewTask) (models.Task, error)
	SetTaskCompleted(ctx context.Context, id int64, completed bool) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type handlers struct {
	tasks TaskService
}

// GET /tasks
func (h *handlers) listTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GET /tasks/:id
func (h *handlers) getTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /tasks
func (h *handlers) createTask(c *gin.Context) {
	var input models.NewTask
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	task, err := h.tasks.AddTask(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to add task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// PUT /tasks/:id?completed=true, or a {"completed": true} body.
func (h *handlers) updateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	completed, ok := parseCompleted(c)
	if !ok {
		return
	}
	task, err := h.tasks.SetTaskCompleted(c.Request.Context(), id, completed)
	if err != nil {
		respondError(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /tasks/:id
func (h *handlers) deleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// GET /healthz
func (h *handlers) health(c *gin.Context) {
	if err := h.tasks.Ping(c.Request.Context()); err != nil {
		log.Printf("health check: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return 0, false
	}
	return id, true
}

func parseCompleted(c *gin.Context) (bool, bool) {
	if raw, ok := c.GetQuery("completed"); ok {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid completed value"})
			return false, false
		}
		return completed, true
	}
	var body models.CompletionUpdate
	if err := c.ShouldBindJSON(&body); err != nil || body.Completed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed is required"})
		return false, false
	}
	return *body.Completed, true
}

// respondError maps service errors to status codes. Storage causes are logged,
// not returned to the caller.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, utils.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("%s [%s]: %v", fallback, c.GetString(requestIDHeader), err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
	default:
		log.Printf("%s [%s]: %v", fallback, c.GetString(requestIDHeader), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
