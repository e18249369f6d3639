package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kelsos/rotki-client/internal/config"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/process"
	"github.com/kelsos/rotki-client/internal/services"
	"github.com/kelsos/rotki-client/internal/storage"
)

type sessionOptions struct {
	// requireLogin resumes the backend session, logging in with the
	// --username/--password flags when nobody is logged in.
	requireLogin bool
	// logToFile keeps stdout free for the terminal UI.
	logToFile bool
}

// session is everything a command runs against.
type session struct {
	cfg      *config.Config
	app      *services.App
	core     *process.RotkiProcess
	logPath  string
	queryLog *storage.QueryLog
}

func openSession(cmd *cobra.Command, opts sessionOptions) (*session, error) {
	cfg, err := config.LoadWithFlags(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if opts.logToFile {
		s.logPath, err = logger.InitFileOnly(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
	} else {
		logger.SetLevel(cfg.LogLevel)
	}

	ctx := cmd.Context()
	s.app = services.NewApp(cfg)
	if cfg.StartCore {
		s.core, err = process.StartRotkiCore(ctx, cfg, s.app.Client.WaitForAPIReady)
		if err != nil {
			return nil, fmt.Errorf("failed to start rotki-core: %w", err)
		}
	}

	if err := s.app.Start(ctx); err != nil {
		s.close()
		return nil, err
	}

	if opts.requireLogin {
		if err := s.ensureLogin(cmd); err != nil {
			s.close()
			return nil, err
		}
		s.restoreHistory()
	}
	return s, nil
}

func (s *session) ensureLogin(cmd *cobra.Command) error {
	ctx := cmd.Context()
	username, err := s.app.Session.Resume(ctx)
	if err == nil {
		logger.Debug("Using the session of %s", username)
		return nil
	}
	if !errors.Is(err, services.ErrNotLoggedIn) {
		return err
	}

	credentials, ok := credentialsFromFlags(cmd)
	if !ok {
		return fmt.Errorf("%w: run login first or pass --username and --password", err)
	}
	return s.app.Session.Login(ctx, credentials)
}

// restoreHistory loads when the user's history sources were last queried.
func (s *session) restoreHistory() {
	dir, err := storage.DataDir()
	if err != nil {
		logger.Warn("History query log unavailable: %v", err)
		return
	}

	s.queryLog = storage.NewQueryLog(dir, s.app.Store.Session().Username)
	queried, err := s.queryLog.Load()
	if err != nil {
		logger.Warn("Ignoring %s: %v", s.queryLog.Path(), err)
		return
	}
	for source, at := range queried {
		s.app.Store.MarkHistoryQueried(source, at)
	}
}

func (s *session) close() {
	s.app.Cleanup()
	if s.queryLog != nil {
		if err := s.queryLog.Save(s.app.Store.HistoryQueries()); err != nil {
			logger.Warn("Failed to save the history query log: %v", err)
		}
	}
	if s.core != nil {
		if err := s.core.Stop(); err != nil {
			logger.Warn("rotki-core did not stop cleanly: %v", err)
		}
	}
}

func credentialsFromFlags(cmd *cobra.Command) (models.LoginCredentials, bool) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = envOr("ROTKI_PASSWORD", "")
	}
	credentials := models.LoginCredentials{Username: username, Password: password}
	return credentials, username != "" && password != ""
}

// action runs fn against an open session.
type action func(cmd *cobra.Command, app *services.App, args []string) error

func withSession(opts sessionOptions, fn action) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, opts)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, s.app, args)
	}
}

func loggedIn(fn action) func(*cobra.Command, []string) error {
	return withSession(sessionOptions{requireLogin: true}, fn)
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
