package utils

import "errors"

var (
	// ErrNotFound indicates the referenced task has no row.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidInput indicates caller data failed validation before any write.
	ErrInvalidInput = errors.New("invalid input")
)
