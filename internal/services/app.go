package services

import (
	"context"
	"fmt"

	"github.com/kelsos/rotki-client/internal/client"
	"github.com/kelsos/rotki-client/internal/config"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/notify"
	"github.com/kelsos/rotki-client/internal/store"
	"github.com/kelsos/rotki-client/internal/tasks"
)

// App wires the client, the task manager and the store together. It replaces
// any process wide state: everything an action needs is reachable from here.
type App struct {
	Config        *config.Config
	Client        *client.APIClient
	Notifications *notify.Center
	Tasks         *tasks.Manager
	Store         *store.State

	Session   *SessionService
	Balances  *BalanceService
	Accounts  *AccountService
	Exchanges *ExchangeService
	History   *HistoryService
	Settings  *SettingsService
	Tags      *TagService
	Refresher *RefreshService
}

// NewApp creates an application with all dependencies
func NewApp(cfg *config.Config) *App {
	apiClient := client.NewAPIClient(cfg)
	notifications := notify.NewCenter(cfg.NotificationLimit)
	manager := tasks.NewManager(apiClient, notifications, cfg.PollInterval)

	d := deps{
		client:   apiClient,
		tasks:    manager,
		store:    store.New(),
		notifier: notifications,
	}

	balances := newBalanceService(d)
	accounts := newAccountService(d, balances)
	exchanges := newExchangeService(d)
	history := newHistoryService(d)

	return &App{
		Config:        cfg,
		Client:        apiClient,
		Notifications: notifications,
		Tasks:         manager,
		Store:         d.store,
		Session:       newSessionService(d),
		Balances:      balances,
		Accounts:      accounts,
		Exchanges:     exchanges,
		History:       history,
		Settings:      newSettingsService(d),
		Tags:          newTagService(d),
		Refresher: &RefreshService{
			deps:      d,
			accounts:  accounts,
			balances:  balances,
			exchanges: exchanges,
			history:   history,
		},
	}
}

// Start waits for the backend and begins polling tasks.
func (a *App) Start(ctx context.Context) error {
	if !a.Client.WaitForAPIReady(ctx) {
		return fmt.Errorf("rotki API at %s is not ready", a.Config.BaseURL)
	}
	a.Tasks.Start(ctx)
	return nil
}

// Cleanup stops task polling.
func (a *App) Cleanup() {
	logger.Debug("Stopping task manager with %d pending tasks", a.Tasks.Registry().Len())
	a.Tasks.Stop()
}
