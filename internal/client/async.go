package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// prepareAsyncEndpoint adds async_query=true parameter to GET endpoints
func prepareAsyncEndpoint(endpoint string) string {
	return BuildURLWithParams(endpoint, map[string]string{"async_query": "true"})
}

// prepareRequestBody converts body to map and adds async_query=true
func prepareRequestBody(body interface{}) (map[string]interface{}, error) {
	requestBody := make(map[string]interface{})
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		if err := json.Unmarshal(bodyBytes, &requestBody); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request body: %w", err)
		}
	}
	requestBody["async_query"] = true
	return requestBody, nil
}

// startTask issues an async request and returns the id of the backend task.
// A response without a task id yields models.InvalidTaskID.
func (c *APIClient) startTask(ctx context.Context, method, endpoint string, body interface{}) (models.TaskID, error) {
	var (
		response models.AsyncTaskResponse
		err      error
	)

	switch method {
	case http.MethodGet:
		response, err = call[models.AsyncTaskResponse](ctx, c, method, prepareAsyncEndpoint(endpoint), nil)
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		requestBody, prepErr := prepareRequestBody(body)
		if prepErr != nil {
			return models.InvalidTaskID, prepErr
		}
		response, err = call[models.AsyncTaskResponse](ctx, c, method, endpoint, requestBody)
	default:
		return models.InvalidTaskID, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	if err != nil {
		return models.InvalidTaskID, fmt.Errorf("failed to initiate async request: %w", err)
	}

	logger.Debug("Backend accepted %s %s as task %d", method, endpoint, response.ID())
	return response.ID(), nil
}

// QueryTaskResult polls the backend for the outcome of a task.
// It returns models.ErrTaskPending while the task runs and a
// *models.TaskNotFoundError once the backend no longer knows the id.
// Any 404 means not found, whatever its body holds.
func (c *APIClient) QueryTaskResult(ctx context.Context, id models.TaskID) (*models.ActionResult, error) {
	endpoint := fmt.Sprintf("/tasks/%d", id)

	var (
		response models.APIResponse[models.TaskResult]
		status   int
	)
	err := c.Get(ctx, endpoint, &response, WithValidStatus(http.StatusOK, http.StatusNotFound), WithStatusCode(&status))
	if status == http.StatusNotFound {
		return nil, &models.TaskNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}

	switch response.Result.Status {
	case models.TaskStatusPending:
		return nil, models.ErrTaskPending
	case models.TaskStatusNotFound:
		return nil, &models.TaskNotFoundError{ID: id}
	case models.TaskStatusCompleted:
	default:
		return nil, fmt.Errorf("unexpected status %q for task %d", response.Result.Status, id)
	}

	result := &models.ActionResult{}
	if len(response.Result.Outcome) > 0 && string(response.Result.Outcome) != "null" {
		if err := json.Unmarshal(response.Result.Outcome, result); err != nil {
			return nil, fmt.Errorf("failed to decode outcome of task %d: %w", id, err)
		}
	}
	if result.Message == "" && !result.HasResult() {
		result.Message = response.Message
	}

	return result, nil
}

// Tasks lists the ids of pending and completed tasks known to the backend.
func (c *APIClient) Tasks(ctx context.Context) (models.TasksResponse, error) {
	return call[models.TasksResponse](ctx, c, http.MethodGet, "/tasks", nil)
}

// IsTaskNotFound reports whether err signals a task the backend does not know.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, models.ErrTaskNotFound)
}
