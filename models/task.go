package models

// Task is one to-do item as stored in the tasks table.
type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// NewTask is the payload accepted when creating a task.
type NewTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// CompletionUpdate is the JSON body form of a completion change.
type CompletionUpdate struct {
	Completed *bool `json:"completed"`
}
