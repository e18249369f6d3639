package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/rotki-client/internal/client"
	"github.com/kelsos/rotki-client/internal/client/clienttest"
	"github.com/kelsos/rotki-client/internal/models"
	"github.com/kelsos/rotki-client/internal/notify"
	"github.com/kelsos/rotki-client/internal/store"
	"github.com/kelsos/rotki-client/internal/tasks"
)

func newTestApp(t *testing.T) (*App, *clienttest.Backend) {
	t.Helper()
	backend := clienttest.New(t)
	app := NewApp(backend.Config())

	ctx, cancel := context.WithCancel(context.Background())
	app.Tasks.Start(ctx)
	t.Cleanup(func() {
		app.Cleanup()
		cancel()
	})
	return app, backend
}

func loggedIn(app *App) {
	app.Store.SetSession(store.Session{Username: "alice", LoggedIn: true})
}

func errorNotifications(app *App) []notify.Notification {
	var out []notify.Notification
	for _, n := range app.Notifications.All() {
		if n.Severity == notify.SeverityError {
			out = append(out, n)
		}
	}
	return out
}

func accountBalance(amount, usd string) map[string]any {
	return map[string]any{
		"assets":      map[string]any{"ETH": map[string]any{"amount": amount, "usd_value": usd}},
		"liabilities": map[string]any{},
	}
}

func TestFetchBalancesCommitsTotals(t *testing.T) {
	app, backend := newTestApp(t)
	backend.SetPendingPolls(2)
	backend.RespondAsync(http.MethodGet, "/balances", map[string]any{
		"assets":      map[string]any{"ETH": map[string]any{"amount": 1.5, "usd_value": "3000", "percentage_of_net_value": "100"}},
		"liabilities": map[string]any{},
		"location":    map[string]any{"blockchain": map[string]any{"usd_value": "3000", "percentage_of_net_value": "100"}},
	}, "")

	result, err := app.Balances.FetchBalances(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("3000").Equal(result.NetValue()))
	totals := app.Store.Totals()
	require.Contains(t, totals.Assets, "ETH")
	assert.True(t, decimal.RequireFromString("1.5").Equal(totals.Assets["ETH"].Amount))
	assert.Empty(t, app.Notifications.All())
	assert.Equal(t, 0, app.Tasks.Registry().Len())
	assert.Zero(t, backend.TaskCount())

	requests := backend.Requests(http.MethodGet, "/balances")
	require.Len(t, requests, 1)
	assert.Equal(t, "true", requests[0].Query.Get("async_query"))
	assert.Equal(t, "true", requests[0].Query.Get("ignore_cache"))
}

func TestDuplicateQueryIsRejected(t *testing.T) {
	app, backend := newTestApp(t)
	backend.SetPendingPolls(1_000_000)
	backend.RespondAsync(http.MethodGet, "/exchanges/balances/kraken", map[string]any{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := make(chan error, 1)
	go func() {
		first <- app.Balances.FetchExchangeBalances(ctx, "kraken", false)
	}()

	require.Eventually(t, func() bool { return app.Tasks.Registry().Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, app.Tasks.IsTaskRunning(models.TaskQueryExchangeBalances, models.TaskFilter{Location: "KRAKEN"}))

	err := app.Balances.FetchExchangeBalances(context.Background(), "kraken", false)
	assert.ErrorIs(t, err, tasks.ErrTaskRunning)
	assert.Len(t, backend.Requests(http.MethodGet, "/exchanges/balances/kraken"), 1)
	assert.Empty(t, app.Notifications.All(), "a rejected duplicate is not a failure")

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	assert.Empty(t, app.Store.ExchangeBalances("kraken"))
}

func TestTaskFailureNotifiesAndKeepsState(t *testing.T) {
	app, backend := newTestApp(t)
	app.Store.SetExchangeBalances("binance", models.ExchangeBalances{"BTC": {Amount: decimal.NewFromInt(1)}})
	backend.RespondAsync(http.MethodGet, "/exchanges/balances/binance", nil, "Binance API key is invalid")

	err := app.Balances.FetchExchangeBalances(context.Background(), "binance", false)
	require.Error(t, err)

	var taskErr *tasks.TaskError
	require.ErrorAs(t, err, &taskErr)
	notifications := errorNotifications(app)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Binance API key is invalid", notifications[0].Message)
	assert.True(t, notifications[0].Display)
	assert.Contains(t, app.Store.ExchangeBalances("binance"), "BTC")
}

func TestRejectedRequestNotifies(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodGet, "/balances/blockchains/eth", http.StatusConflict, nil, "No eth accounts")

	err := app.Balances.FetchBlockchainBalances(context.Background(), "eth", false)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusConflict))

	notifications := errorNotifications(app)
	require.Len(t, notifications, 1)
	assert.Equal(t, "No eth accounts", notifications[0].Message)
	assert.Equal(t, "Failed to query balances (eth)", notifications[0].Title)
}

func TestBackendRestartResolvesWaitingAction(t *testing.T) {
	app, backend := newTestApp(t)
	backend.SetPendingPolls(1_000_000)
	backend.RespondAsync(http.MethodGet, "/balances", map[string]any{}, "")

	done := make(chan error, 1)
	go func() {
		_, err := app.Balances.FetchBalances(context.Background(), false)
		done <- err
	}()

	require.Eventually(t, func() bool { return app.Tasks.Registry().Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	id := app.Tasks.Tasks()[0].ID
	backend.ForgetTasks()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, tasks.TaskNotFoundMessage(id), err.Error())
	case <-time.After(2 * time.Second):
		t.Fatal("action did not finish after the task was lost")
	}
	assert.Equal(t, 0, app.Tasks.Registry().Len())
	assert.Len(t, errorNotifications(app), 1)
}

func TestMissingTaskID(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RespondAsyncWithoutID(http.MethodGet, "/balances")

	_, err := app.Balances.FetchBalances(context.Background(), false)
	assert.ErrorIs(t, err, tasks.ErrMissingTaskID)

	require.Eventually(t, func() bool { return len(errorNotifications(app)) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, app.Tasks.Registry().Len())
	assert.False(t, app.Tasks.IsTaskRunning(models.TaskQueryBalances, models.TaskFilter{}))
}

func TestLogin(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodPost, "/users/alice", http.StatusOK, map[string]any{
		"exchanges": []map[string]any{{"name": "Kraken", "location": "kraken"}},
		"settings": map[string]any{
			"have_premium":      true,
			"main_currency":     "EUR",
			"frontend_settings": `{"dark_mode_enabled":true,"graph":{"zero_based":false}}`,
		},
	}, "")

	err := app.Session.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	session := app.Store.Session()
	assert.Equal(t, store.Session{Username: "alice", Premium: true, LoggedIn: true}, session)
	assert.Equal(t, "EUR", app.Store.MainCurrency())
	assert.Equal(t, []models.Exchange{{Name: "Kraken", Location: "kraken"}}, app.Store.Exchanges())

	frontend := app.Store.FrontendSettings()
	assert.Equal(t, true, frontend["darkModeEnabled"])
	assert.Equal(t, map[string]any{"zeroBased": false}, frontend["graph"])

	requests := backend.Requests(http.MethodPost, "/users/alice")
	require.Len(t, requests, 1)
	assert.Equal(t, "secret", requests[0].Body["password"])
	assert.NotContains(t, requests[0].Body, "username")
}

func TestLoginSyncConflictIsReturnedWithoutNotification(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodPost, "/users/alice", http.StatusMultipleChoices, map[string]any{
		"local_size":  "1 MB",
		"remote_size": "2 MB",
	}, "Remote database is bigger than the local one")

	err := app.Session.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "secret"})
	var conflict *client.SyncConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "2 MB", conflict.Payload.RemoteSize)
	assert.Empty(t, app.Notifications.All())
	assert.False(t, app.Store.Session().LoggedIn)
}

func TestLogout(t *testing.T) {
	app, backend := newTestApp(t)
	assert.ErrorIs(t, app.Session.Logout(context.Background()), ErrNotLoggedIn)

	loggedIn(app)
	app.Store.SetTags(models.Tags{"hot": {Name: "hot"}})
	backend.Respond(http.MethodPatch, "/users/alice", http.StatusOK, true, "")

	require.NoError(t, app.Session.Logout(context.Background()))
	assert.False(t, app.Store.Session().LoggedIn)
	assert.Empty(t, app.Store.Tags())

	requests := backend.Requests(http.MethodPatch, "/users/alice")
	require.Len(t, requests, 1)
	assert.Equal(t, "logout", requests[0].Body["action"])
}

func TestAddAccountsRefreshesChainBalances(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RespondAsync(http.MethodPut, "/blockchains/eth/accounts", []string{"0xabc"}, "")
	backend.RespondAsync(http.MethodGet, "/balances/blockchains/eth", map[string]any{
		"per_account": map[string]any{"eth": map[string]any{"0xabc": accountBalance("1", "2000")}},
		"totals":      map[string]any{"assets": map[string]any{}, "liabilities": map[string]any{}},
	}, "")

	err := app.Accounts.AddAccounts(context.Background(), "eth", []models.Account{{Address: "0xabc", Label: "main"}})
	require.NoError(t, err)

	accounts := app.Store.Accounts("eth")
	require.Len(t, accounts, 1)
	assert.Equal(t, "main", accounts[0].Label)
	assert.Contains(t, app.Store.BlockchainBalances("eth"), "0xabc")
	assert.True(t, decimal.RequireFromString("2000").Equal(app.Store.ChainTotal("eth")))

	requests := backend.Requests(http.MethodPut, "/blockchains/eth/accounts")
	require.Len(t, requests, 1)
	assert.Equal(t, true, requests[0].Body["async_query"])
}

func TestAddAccountsValidationFailure(t *testing.T) {
	app, _ := newTestApp(t)

	err := app.Accounts.AddAccounts(context.Background(), "eth", nil)
	require.Error(t, err)
	assert.Len(t, errorNotifications(app), 1)
	assert.Empty(t, app.Store.Accounts("eth"))
	assert.False(t, app.Tasks.IsTaskRunning(models.TaskAddAccount, models.TaskFilter{Chain: "eth"}))
}

func TestRemoveAccounts(t *testing.T) {
	app, backend := newTestApp(t)
	app.Store.SetAccounts("eth", []models.Account{{Address: "0xabc"}, {Address: "0xdef"}})
	backend.RespondAsync(http.MethodDelete, "/blockchains/eth/accounts", map[string]any{
		"per_account": map[string]any{"eth": map[string]any{"0xdef": accountBalance("3", "6000")}},
		"totals":      map[string]any{"assets": map[string]any{}, "liabilities": map[string]any{}},
	}, "")

	require.NoError(t, app.Accounts.RemoveAccounts(context.Background(), "eth", []string{"0xabc"}))

	assert.Equal(t, []models.Account{{Address: "0xdef"}}, app.Store.Accounts("eth"))
	assert.True(t, decimal.RequireFromString("6000").Equal(app.Store.ChainTotal("eth")))
}

func TestExchangeSetupAndRemoval(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodPut, "/exchanges", http.StatusOK, true, "")
	backend.Respond(http.MethodDelete, "/exchanges", http.StatusOK, true, "")

	kraken := models.Exchange{Name: "Kraken", Location: "kraken"}
	err := app.Exchanges.Setup(context.Background(), models.ExchangeSetupPayload{
		Name: "Kraken", Location: "kraken", APIKey: "key", APISecret: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Exchange{kraken}, app.Store.Exchanges())

	require.NoError(t, app.Exchanges.Remove(context.Background(), kraken))
	assert.Empty(t, app.Store.Exchanges())
}

func TestExchangeSetupFailure(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodPut, "/exchanges", http.StatusConflict, nil, "Kraken is already registered")

	err := app.Exchanges.Setup(context.Background(), models.ExchangeSetupPayload{
		Name: "Kraken", Location: "kraken", APIKey: "key", APISecret: "secret",
	})
	require.Error(t, err)
	assert.Empty(t, app.Store.Exchanges())
	notifications := errorNotifications(app)
	require.Len(t, notifications, 1)
	assert.Equal(t, "Kraken is already registered", notifications[0].Message)
}

func TestQueryExchangeEvents(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RespondAsync(http.MethodPost, "/history/events/query/exchange", true, "")

	err := app.Exchanges.QueryEvents(context.Background(), models.Exchange{Name: "Kraken", Location: "kraken"})
	require.NoError(t, err)

	_, queried := app.Store.HistoryQueried("kraken")
	assert.True(t, queried)
	requests := backend.Requests(http.MethodPost, "/history/events/query/exchange")
	require.Len(t, requests, 1)
	assert.Equal(t, "kraken", requests[0].Body["location"])
}

func TestQueryOnlineEvents(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RespondAsync(http.MethodPost, "/history/events/query", true, "")

	require.NoError(t, app.History.QueryOnlineEvents(context.Background(), models.EthWithdrawalsQuery))
	_, queried := app.Store.HistoryQueried(string(models.EthWithdrawalsQuery))
	assert.True(t, queried)
}

func TestDecodeTransactionsReportsThroughTypeHandler(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RespondAsync(http.MethodPost, "/blockchains/evm/transactions/decode", map[string]any{
		"decoded_tx_number": map[string]any{"ethereum": 3, "optimism": 1},
	}, "")

	id, err := app.History.DecodeTransactions(context.Background(), []string{"eth", "optimism"})
	require.NoError(t, err)
	assert.True(t, id.Valid())

	require.Eventually(t, func() bool {
		return app.Store.DecodedTransactions()["ethereum"] == 3
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return len(app.Notifications.All()) == 1 }, time.Second, 5*time.Millisecond)
	n := app.Notifications.All()[0]
	assert.Equal(t, notify.SeverityInfo, n.Severity)
	assert.Contains(t, n.Message, "Decoded 4 transactions")
}

func TestDecodeTransactionsFailure(t *testing.T) {
	app, backend := newTestApp(t)
	backend.RespondAsync(http.MethodPost, "/blockchains/evm/transactions/decode", nil, "Node is unreachable")

	_, err := app.History.DecodeTransactions(context.Background(), []string{"eth"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(errorNotifications(app)) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Node is unreachable", errorNotifications(app)[0].Message)
	assert.Empty(t, app.Store.DecodedTransactions())
}

func TestUpdateFrontendSettings(t *testing.T) {
	app, backend := newTestApp(t)
	app.Store.SetSettings(models.GeneralSettings{}, map[string]any{"darkModeEnabled": true})

	backend.Handle(http.MethodPut, "/settings", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Settings map[string]any `json:"settings"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		clienttest.WriteEnvelope(w, http.StatusOK, map[string]any{
			"main_currency":     "USD",
			"frontend_settings": body.Settings["frontend_settings"],
		}, "")
	})

	frontend, err := app.Settings.UpdateFrontend(context.Background(), map[string]any{"refreshPeriod": 10})
	require.NoError(t, err)
	assert.Equal(t, true, frontend["darkModeEnabled"])
	assert.Equal(t, float64(10), frontend["refreshPeriod"])

	requests := backend.Requests(http.MethodPut, "/settings")
	require.Len(t, requests, 1)
	settings := requests[0].Body["settings"].(map[string]any)
	assert.JSONEq(t, `{"dark_mode_enabled":true,"refresh_period":10}`, settings["frontend_settings"].(string))
}

func TestUpdateSettingsUsesSnakeCase(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodPut, "/settings", http.StatusOK, map[string]any{"main_currency": "CHF", "ui_floating_precision": 4}, "")

	settings, err := app.Settings.Update(context.Background(), map[string]any{"mainCurrency": "CHF", "uiFloatingPrecision": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, settings.UIFloatingPrecision)
	assert.Equal(t, "CHF", app.Store.MainCurrency())

	requests := backend.Requests(http.MethodPut, "/settings")
	require.Len(t, requests, 1)
	assert.Equal(t, map[string]any{"main_currency": "CHF", "ui_floating_precision": float64(4)}, requests[0].Body["settings"])
}

func TestTags(t *testing.T) {
	app, backend := newTestApp(t)
	hot := map[string]any{"name": "hot", "background_color": "ff0000", "foreground_color": "ffffff"}
	backend.Respond(http.MethodPut, "/tags", http.StatusOK, map[string]any{"hot": hot}, "")
	backend.Respond(http.MethodDelete, "/tags", http.StatusOK, map[string]any{}, "")

	tags, err := app.Tags.Add(context.Background(), models.Tag{Name: "hot", BackgroundColor: "ff0000", ForegroundColor: "ffffff"})
	require.NoError(t, err)
	assert.Contains(t, tags, "hot")
	assert.Contains(t, app.Store.Tags(), "hot")

	_, err = app.Tags.Delete(context.Background(), "hot")
	require.NoError(t, err)
	assert.Empty(t, app.Store.Tags())
}

func TestRefresh(t *testing.T) {
	app, backend := newTestApp(t)
	assert.ErrorIs(t, app.Refresher.Refresh(context.Background(), RefreshOptions{}), ErrNotLoggedIn)

	loggedIn(app)
	backend.Respond(http.MethodGet, "/blockchains/supported", http.StatusOK, []map[string]any{
		{"id": "eth", "name": "Ethereum", "type": "evm"},
		{"id": "btc", "name": "Bitcoin", "type": "bitcoin"},
	}, "")
	backend.Respond(http.MethodGet, "/blockchains/eth/accounts", http.StatusOK, []map[string]any{{"address": "0xabc"}}, "")
	backend.Respond(http.MethodGet, "/blockchains/btc/accounts", http.StatusOK, []map[string]any{}, "")
	backend.Respond(http.MethodGet, "/exchanges", http.StatusOK, []map[string]any{{"name": "Kraken", "location": "kraken"}}, "")
	backend.RespondAsync(http.MethodGet, "/balances/blockchains/eth", map[string]any{
		"per_account": map[string]any{"eth": map[string]any{"0xabc": accountBalance("1", "2000")}},
		"totals":      map[string]any{"assets": map[string]any{}, "liabilities": map[string]any{}},
	}, "")
	backend.RespondAsync(http.MethodGet, "/exchanges/balances/kraken", map[string]any{
		"BTC": map[string]any{"amount": "0.1", "usd_value": "6000"},
	}, "")
	backend.RespondAsync(http.MethodPost, "/blockchains/evm/transactions/decode", map[string]any{
		"decoded_tx_number": map[string]any{"eth": 2},
	}, "")

	err := app.Refresher.Refresh(context.Background(), RefreshOptions{Decode: true})
	require.NoError(t, err)

	chains, exchanges := app.Store.BalanceLocations()
	assert.Equal(t, []string{"eth"}, chains)
	assert.Equal(t, []string{"kraken"}, exchanges)
	assert.Empty(t, backend.Requests(http.MethodGet, "/balances/blockchains/btc"))

	require.Len(t, backend.Requests(http.MethodPost, "/blockchains/evm/transactions/decode"), 1)
	assert.Equal(t, []any{"eth"}, backend.Requests(http.MethodPost, "/blockchains/evm/transactions/decode")[0].Body["chains"])
}

func TestRefreshJoinsFailures(t *testing.T) {
	app, backend := newTestApp(t)
	loggedIn(app)
	backend.Respond(http.MethodGet, "/blockchains/supported", http.StatusOK, []map[string]any{
		{"id": "eth", "name": "Ethereum", "type": "evm"},
	}, "")
	backend.Respond(http.MethodGet, "/blockchains/eth/accounts", http.StatusOK, []map[string]any{{"address": "0xabc"}}, "")
	backend.Respond(http.MethodGet, "/exchanges", http.StatusOK, []map[string]any{}, "")
	backend.RespondAsync(http.MethodGet, "/balances/blockchains/eth", nil, "Etherscan rate limited")

	err := app.Refresher.Refresh(context.Background(), RefreshOptions{})
	require.Error(t, err)
	var taskErr *tasks.TaskError
	assert.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "Etherscan rate limited", taskErr.Message)
}

func TestConverterUsesMainCurrencyRate(t *testing.T) {
	app, backend := newTestApp(t)
	assert.Equal(t, "USD", app.Balances.Converter(context.Background()).Currency)

	app.Store.SetSettings(models.GeneralSettings{MainCurrency: "EUR"}, nil)
	backend.Respond(http.MethodGet, "/exchange_rates", http.StatusOK, map[string]any{"EUR": "0.9"}, "")

	converter := app.Balances.Converter(context.Background())
	assert.Equal(t, "EUR", converter.Currency)
	assert.True(t, decimal.RequireFromString("0.9").Equal(converter.Rate))

	requests := backend.Requests(http.MethodGet, "/exchange_rates")
	require.Len(t, requests, 1)
	assert.Equal(t, "EUR", requests[0].Query.Get("currencies"))
}

func TestResumeWithoutLoggedInUser(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodGet, "/users", http.StatusOK, map[string]any{"bob": "loggedout"}, "")

	_, err := app.Session.Resume(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.False(t, app.Store.Session().LoggedIn)
}

func TestResumeSession(t *testing.T) {
	app, backend := newTestApp(t)
	backend.Respond(http.MethodGet, "/users", http.StatusOK, map[string]any{"bob": "loggedout", "alice": "loggedin"}, "")
	backend.Respond(http.MethodGet, "/settings", http.StatusOK, map[string]any{"have_premium": true, "frontend_settings": ""}, "")
	backend.Respond(http.MethodGet, "/exchanges", http.StatusOK, []map[string]any{{"name": "main", "location": "kraken"}}, "")

	username, err := app.Session.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, store.Session{Username: "alice", Premium: true, LoggedIn: true}, app.Store.Session())
	assert.Equal(t, []models.Exchange{{Name: "main", Location: "kraken"}}, app.Store.Exchanges())

	names, loggedIn, err := app.Session.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
	assert.Equal(t, "alice", loggedIn)
}
