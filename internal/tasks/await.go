package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// ErrMissingTaskID is returned when the backend accepted a job without
// returning a task id.
var ErrMissingTaskID = errors.New("backend did not return a task id")

// TaskError is a failure reported by the backend for a task.
type TaskError struct {
	ID      models.TaskID
	Type    models.TaskType
	Message string
}

func (e *TaskError) Error() string {
	return e.Message
}

type outcome[T any] struct {
	value T
	err   error
}

// Await registers task with the manager and blocks until its outcome arrives,
// decoding the result into T. When ctx ends first the task is kept but its
// result will be discarded.
func Await[T any](ctx context.Context, m *Manager, task models.Task) (T, error) {
	var zero T

	done := make(chan outcome[T], 1)
	deliver := func(o outcome[T]) {
		select {
		case done <- o:
		default:
		}
	}

	m.RegisterInstanceHandler(task.Type, task.ID, func(result models.ActionResult, meta models.TaskMeta) error {
		if result.Failed() {
			deliver(outcome[T]{err: &TaskError{ID: task.ID, Type: task.Type, Message: result.Message}})
			return nil
		}
		if result.Message != "" {
			logger.Task(zerolog.WarnLevel, int64(task.ID), task.Type.String(), "Task finished with message: %s", result.Message)
		}
		if !result.HasResult() {
			deliver(outcome[T]{})
			return nil
		}

		var value T
		if err := json.Unmarshal(result.Result, &value); err != nil {
			return fmt.Errorf("failed to decode result of %s: %w", task.Type, err)
		}
		deliver(outcome[T]{value: value})
		return nil
	})
	defer m.UnregisterInstanceHandler(task.Type, task.ID)

	m.Add(task)
	if !task.ID.Valid() {
		return zero, ErrMissingTaskID
	}

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		m.registry.SetIgnoreResult(task.ID)
		return zero, ctx.Err()
	}
}
