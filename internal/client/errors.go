package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kelsos/rotki-client/internal/models"
)

// APIError is returned when the backend rejects a request.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
}

// newAPIError extracts the envelope message from body, falling back to the
// raw body text when it is not an envelope.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var envelope models.APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// SyncConflictError is returned by login when the premium sync found a
// remote database that conflicts with the local one.
type SyncConflictError struct {
	Message string
	Payload models.SyncConflictPayload
}

func (e *SyncConflictError) Error() string {
	return fmt.Sprintf("sync conflict: %s", e.Message)
}

func newSyncConflictError(apiErr *APIError) *SyncConflictError {
	conflict := &SyncConflictError{Message: apiErr.Message}

	var envelope models.APIResponse[models.SyncConflictPayload]
	if err := json.Unmarshal(apiErr.Body, &envelope); err == nil {
		conflict.Payload = envelope.Result
	}
	return conflict
}

// asSyncConflict converts a 300 response into a SyncConflictError.
func asSyncConflict(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusMultipleChoices {
		return newSyncConflictError(apiErr)
	}
	return err
}
