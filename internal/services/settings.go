package services

import (
	"context"
	"maps"

	"github.com/kelsos/rotki-client/internal/convert"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// SettingsService reads and changes the user settings.
type SettingsService struct {
	deps
}

func newSettingsService(d deps) *SettingsService {
	return &SettingsService{deps: d}
}

// Fetch loads the settings into the store.
func (s *SettingsService) Fetch(ctx context.Context) (models.GeneralSettings, error) {
	settings, err := s.client.Settings(ctx)
	if err != nil {
		s.fail("Failed to fetch settings", err)
		return models.GeneralSettings{}, err
	}

	s.commit(settings)
	return settings, nil
}

// Update changes general settings given with camelCase keys.
func (s *SettingsService) Update(ctx context.Context, changes map[string]any) (models.GeneralSettings, error) {
	settings, err := s.client.UpdateSettings(ctx, models.SettingsUpdatePayload{Settings: convert.SettingsUpdate(changes)})
	if err != nil {
		s.fail("Failed to update settings", err)
		return models.GeneralSettings{}, err
	}

	s.commit(settings)
	logger.Info("Updated %d settings", len(changes))
	return settings, nil
}

// UpdateFrontend merges changes into the frontend settings and stores them.
func (s *SettingsService) UpdateFrontend(ctx context.Context, changes map[string]any) (map[string]any, error) {
	merged := s.store.FrontendSettings()
	maps.Copy(merged, changes)

	blob, err := convert.FrontendSettingsToJSON(merged)
	if err != nil {
		s.fail("Failed to update frontend settings", err)
		return nil, err
	}

	settings, err := s.client.UpdateSettings(ctx, models.SettingsUpdatePayload{
		Settings: map[string]any{"frontend_settings": blob},
	})
	if err != nil {
		s.fail("Failed to update frontend settings", err)
		return nil, err
	}

	s.commit(settings)
	return s.store.FrontendSettings(), nil
}

func (s *SettingsService) commit(settings models.GeneralSettings) {
	frontend, err := convert.FrontendSettingsFromJSON(settings.FrontendSettings)
	if err != nil {
		logger.Warn("Keeping previous frontend settings: %v", err)
		frontend = s.store.FrontendSettings()
	}
	s.store.SetSettings(settings, frontend)
}
