package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kelsos/rotki-client/internal/models"
)

// Users lists the known users and whether they are logged in.
func (c *APIClient) Users(ctx context.Context) (models.UsersMap, error) {
	users, err := call[models.UsersMap](ctx, c, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// Login unlocks the user's database. A 300 answer is returned as a
// *SyncConflictError so the caller can ask how to resolve it.
func (c *APIClient) Login(ctx context.Context, credentials models.LoginCredentials) (*models.UserLogin, error) {
	if err := validatePayload(credentials); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/users/%s", pathSegment(credentials.Username))
	login, err := call[models.UserLogin](ctx, c, http.MethodPost, endpoint, credentials)
	if err != nil {
		return nil, asSyncConflict(err)
	}
	return &login, nil
}

// Logout closes the user's session.
func (c *APIClient) Logout(ctx context.Context, username string) error {
	endpoint := fmt.Sprintf("/users/%s", pathSegment(username))
	payload := map[string]string{"action": "logout"}

	if _, err := call[bool](ctx, c, http.MethodPatch, endpoint, payload); err != nil {
		return fmt.Errorf("failed to logout user %s: %w", username, err)
	}
	return nil
}
