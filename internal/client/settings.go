package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kelsos/rotki-client/internal/models"
)

// Settings fetches the user's settings.
func (c *APIClient) Settings(ctx context.Context) (models.GeneralSettings, error) {
	settings, err := call[models.GeneralSettings](ctx, c, http.MethodGet, "/settings", nil)
	if err != nil {
		return models.GeneralSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings applies a partial settings update. The backend may attach a
// warning to an update it accepted; it is logged and the new settings returned.
func (c *APIClient) UpdateSettings(ctx context.Context, payload models.SettingsUpdatePayload) (models.GeneralSettings, error) {
	if err := validatePayload(payload); err != nil {
		return models.GeneralSettings{}, err
	}
	settings, err := call[models.GeneralSettings](ctx, c, http.MethodPut, "/settings", payload, WithWarnings())
	if err != nil {
		return models.GeneralSettings{}, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}
