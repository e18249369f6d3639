package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kelsos/rotki-client/internal/client"
	"github.com/kelsos/rotki-client/internal/convert"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/store"
)

// ErrNotLoggedIn is returned by actions that need an open session.
var ErrNotLoggedIn = errors.New("no user is logged in")

// SessionService handles login and logout.
type SessionService struct {
	deps
}

func newSessionService(d deps) *SessionService {
	return &SessionService{deps: d}
}

// Users returns the known usernames, sorted, and the one currently logged in.
func (s *SessionService) Users(ctx context.Context) ([]string, string, error) {
	users, err := s.client.Users(ctx)
	if err != nil {
		return nil, "", err
	}

	var (
		names    []string
		loggedIn string
	)
	for username, status := range users {
		names = append(names, username)
		if status == models.StatusLoggedIn {
			loggedIn = username
		}
	}
	sort.Strings(names)
	return names, loggedIn, nil
}

// Login unlocks the user's database and loads the session state. A
// *client.SyncConflictError is returned as is, so the caller can retry with a
// sync approval; it is not reported as a failure.
func (s *SessionService) Login(ctx context.Context, credentials models.LoginCredentials) error {
	logger.Info("Logging in user: %s", credentials.Username)

	login, err := s.client.Login(ctx, credentials)
	if err != nil {
		var conflict *client.SyncConflictError
		if errors.As(err, &conflict) {
			logger.Warn("Login of %s needs a sync decision: %s", credentials.Username, conflict.Message)
			return err
		}
		s.fail("Login failed", err)
		return fmt.Errorf("failed to login user %s: %w", credentials.Username, err)
	}

	frontend, err := convert.FrontendSettingsFromJSON(login.Settings.FrontendSettings)
	if err != nil {
		logger.Warn("Ignoring frontend settings of %s: %v", credentials.Username, err)
		frontend = map[string]any{}
	}

	s.store.Reset()
	s.store.SetSession(store.Session{Username: credentials.Username, LoggedIn: true})
	s.store.SetSettings(login.Settings, frontend)
	s.store.SetExchanges(login.Exchanges)

	logger.Info("Successfully logged in user: %s", credentials.Username)
	return nil
}

// Logout closes the current session and clears the state.
func (s *SessionService) Logout(ctx context.Context) error {
	session := s.store.Session()
	if !session.LoggedIn {
		return ErrNotLoggedIn
	}

	if err := s.client.Logout(ctx, session.Username); err != nil {
		s.fail("Logout failed", err)
		return err
	}

	s.store.Reset()
	logger.Info("Successfully logged out user: %s", session.Username)
	return nil
}

// Resume loads the session of the user the backend already has logged in.
func (s *SessionService) Resume(ctx context.Context) (string, error) {
	_, loggedIn, err := s.Users(ctx)
	if err != nil {
		return "", err
	}
	if loggedIn == "" {
		return "", ErrNotLoggedIn
	}

	settings, err := s.client.Settings(ctx)
	if err != nil {
		return "", err
	}
	frontend, err := convert.FrontendSettingsFromJSON(settings.FrontendSettings)
	if err != nil {
		logger.Warn("Ignoring frontend settings of %s: %v", loggedIn, err)
		frontend = map[string]any{}
	}

	s.store.Reset()
	s.store.SetSession(store.Session{Username: loggedIn, LoggedIn: true})
	s.store.SetSettings(settings, frontend)

	exchanges, err := s.client.ConnectedExchanges(ctx)
	if err != nil {
		return "", err
	}
	s.store.SetExchanges(exchanges)

	logger.Debug("Resumed session of %s", loggedIn)
	return loggedIn, nil
}
