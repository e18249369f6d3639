package models

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when the backend no longer knows a task id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskPending is returned while a task is still running on the backend.
	ErrTaskPending = errors.New("task pending")
)

// TaskNotFoundError carries the id of the task the backend could not find.
type TaskNotFoundError struct {
	ID TaskID
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

func (e *TaskNotFoundError) Is(target error) bool {
	return target == ErrTaskNotFound
}
