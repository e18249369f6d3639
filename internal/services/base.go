package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelsos/rotki-client/internal/client"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/notify"
	"github.com/kelsos/rotki-client/internal/store"
	"github.com/kelsos/rotki-client/internal/tasks"
)

// deps are the collaborators shared by every service.
type deps struct {
	client   *client.APIClient
	tasks    *tasks.Manager
	store    *store.State
	notifier notify.Notifier
}

// taskRequest describes an async action.
type taskRequest struct {
	taskType models.TaskType
	filter   models.TaskFilter
	meta     models.TaskMeta
	start    func(ctx context.Context) (models.TaskID, error)
	// failure is the title of the notification sent when the action fails
	failure string
}

// runTask submits an async backend job and waits for its result. It refuses
// to start while an overlapping task is running, and notifies the user of
// every other failure.
func runTask[T any](ctx context.Context, d deps, req taskRequest) (T, error) {
	var zero T

	release, err := d.tasks.Reserve(req.taskType, req.filter)
	if err != nil {
		logger.Debug("Skipping %s (%s): %v", req.taskType, req.filter, err)
		return zero, err
	}
	defer release()

	id, err := req.start(ctx)
	if err != nil {
		d.fail(req.failure, err)
		return zero, err
	}

	meta := req.meta
	if meta.Chain == "" {
		meta.Chain = req.filter.Chain
	}
	if meta.Location == "" {
		meta.Location = req.filter.Location
	}

	value, err := tasks.Await[T](ctx, d.tasks, models.Task{ID: id, Type: req.taskType, Meta: meta})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.fail(req.failure, err)
		}
		return zero, err
	}
	return value, nil
}

// fail notifies the user of a failed action.
func (d deps) fail(title string, err error) {
	d.notifier.Notify(notify.Notification{
		Title:    title,
		Message:  describe(err),
		Severity: notify.SeverityError,
		Display:  true,
	})
}

func (d deps) info(title, message string) {
	d.notifier.Notify(notify.Notification{
		Title:    title,
		Message:  message,
		Severity: notify.SeverityInfo,
	})
}

// describe returns the backend message of API failures and the plain error
// text otherwise.
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func failureTitle(action string, target string) string {
	if target == "" {
		return fmt.Sprintf("Failed to %s", action)
	}
	return fmt.Sprintf("Failed to %s (%s)", action, target)
}
