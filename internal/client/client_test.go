package client_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/rotki-client/internal/client"
	"github.com/kelsos/rotki-client/internal/client/clienttest"
	"github.com/kelsos/rotki-client/internal/models"
)

func newClient(t *testing.T) (*client.APIClient, *clienttest.Backend) {
	t.Helper()
	backend := clienttest.New(t)
	return client.NewAPIClient(backend.Config()), backend
}

func TestEnvelopeMessageIsAnError(t *testing.T) {
	api, backend := newClient(t)
	backend.Respond(http.MethodGet, "/tags", http.StatusOK, nil, "database is locked")

	_, err := api.Tags(context.Background())
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "database is locked", apiErr.Message)
}

func TestRejectedStatusCarriesEnvelopeMessage(t *testing.T) {
	api, backend := newClient(t)
	backend.Respond(http.MethodPut, "/tags", http.StatusConflict, nil, "Tag with name Hot already exists")

	_, err := api.AddTag(context.Background(), models.Tag{Name: "Hot", BackgroundColor: "ffffff", ForegroundColor: "000000"})
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusConflict))
	assert.Contains(t, err.Error(), "Tag with name Hot already exists")
}

func TestWarningsAreTolerated(t *testing.T) {
	api, backend := newClient(t)
	backend.Respond(http.MethodPut, "/settings", http.StatusOK,
		map[string]any{"main_currency": "EUR"}, "oracle cache could not be refreshed")

	settings, err := api.UpdateSettings(context.Background(), models.SettingsUpdatePayload{
		Settings: map[string]any{"main_currency": "EUR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", settings.MainCurrency)
}

func TestLoginSyncConflict(t *testing.T) {
	api, backend := newClient(t)
	backend.Respond(http.MethodPost, "/users/alice", http.StatusMultipleChoices, map[string]any{
		"local_size":           "1 MB",
		"remote_size":          "2 MB",
		"local_last_modified":  1700000000,
		"remote_last_modified": 1700000500,
	}, "Remote database is newer")

	_, err := api.Login(context.Background(), models.LoginCredentials{Username: "alice", Password: "secret"})
	require.Error(t, err)

	var conflict *client.SyncConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "Remote database is newer", conflict.Message)
	assert.Equal(t, int64(1700000500), conflict.Payload.RemoteLastModified)
	assert.Equal(t, "2 MB", conflict.Payload.RemoteSize)

	login := backend.Requests(http.MethodPost, "/users/alice")
	require.Len(t, login, 1)
	assert.Equal(t, "secret", login[0].Body["password"])
}

func TestLoginValidatesCredentials(t *testing.T) {
	api, backend := newClient(t)

	_, err := api.Login(context.Background(), models.LoginCredentials{Username: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request")
	assert.Empty(t, backend.Requests(http.MethodPost, "/users/alice"))
}

func TestAsyncGetAddsQueryParameter(t *testing.T) {
	api, backend := newClient(t)
	backend.RespondAsync(http.MethodGet, "/balances", map[string]any{}, "")

	id, err := api.QueryBalancesAsync(context.Background(), true, false)
	require.NoError(t, err)
	assert.True(t, id.Valid())

	requests := backend.Requests(http.MethodGet, "/balances")
	require.Len(t, requests, 1)
	assert.Equal(t, "true", requests[0].Query.Get("async_query"))
	assert.Equal(t, "true", requests[0].Query.Get("ignore_cache"))
	assert.Equal(t, "false", requests[0].Query.Get("save_data"))
}

func TestAsyncBodyRequest(t *testing.T) {
	api, backend := newClient(t)
	backend.RespondAsync(http.MethodPut, "/blockchains/{chain}/accounts", []any{}, "")

	_, err := api.AddAccountsAsync(context.Background(), "eth", models.AccountsPayload{
		Accounts: []models.Account{{Address: "0xabc", Label: "cold"}},
	})
	require.NoError(t, err)

	requests := backend.Requests(http.MethodPut, "/blockchains/eth/accounts")
	require.Len(t, requests, 1)
	assert.Equal(t, true, requests[0].Body["async_query"])
	assert.Len(t, requests[0].Body["accounts"], 1)
}

func TestAsyncWithoutTaskID(t *testing.T) {
	api, backend := newClient(t)
	backend.RespondAsyncWithoutID(http.MethodGet, "/balances")

	id, err := api.QueryBalancesAsync(context.Background(), false, false)
	require.NoError(t, err)
	assert.Equal(t, models.InvalidTaskID, id)
	assert.False(t, id.Valid())
}

func TestQueryTaskResult(t *testing.T) {
	api, backend := newClient(t)
	ctx := context.Background()

	backend.SetPendingPolls(1)
	id := backend.AddTask(map[string]any{"ETH": map[string]any{"amount": "1.5"}}, "")

	_, err := api.QueryTaskResult(ctx, id)
	assert.ErrorIs(t, err, models.ErrTaskPending)

	result, err := api.QueryTaskResult(ctx, id)
	require.NoError(t, err)
	assert.True(t, result.HasResult())
	assert.Empty(t, result.Message)
	assert.JSONEq(t, `{"ETH": {"amount": "1.5"}}`, string(result.Result))

	_, err = api.QueryTaskResult(ctx, id)
	require.Error(t, err)
	assert.True(t, client.IsTaskNotFound(err))

	var notFound *models.TaskNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, id, notFound.ID)
}

func TestQueryTaskResultFailure(t *testing.T) {
	api, backend := newClient(t)
	id := backend.AddTask(nil, "Could not query kraken")

	result, err := api.QueryTaskResult(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, "Could not query kraken", result.Message)
}

func TestTasksListing(t *testing.T) {
	api, backend := newClient(t)
	first := backend.AddTask(true, "")
	backend.SetPendingPolls(3)
	second := backend.AddTask(true, "")

	tasks, err := api.Tasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.TaskID{first}, tasks.Completed)
	assert.Equal(t, []models.TaskID{second}, tasks.Pending)
}

func TestExchangeRates(t *testing.T) {
	api, backend := newClient(t)
	backend.Respond(http.MethodGet, "/exchange_rates", http.StatusOK, map[string]any{"EUR": "0.92"}, "")

	rates, err := api.ExchangeRates(context.Background(), "EUR")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.92").Equal(rates["EUR"]))

	requests := backend.Requests(http.MethodGet, "/exchange_rates")
	require.Len(t, requests, 1)
	assert.Equal(t, "EUR", requests[0].Query.Get("currencies"))
}

func TestWaitForAPIReady(t *testing.T) {
	api, _ := newClient(t)
	assert.True(t, api.WaitForAPIReady(context.Background()))
}

func TestBuildURLWithParams(t *testing.T) {
	assert.Equal(t, "/balances", client.BuildURLWithParams("/balances", nil))
	assert.Equal(t, "/balances?async_query=true&save_data=true",
		client.BuildURLWithParams("/balances?save_data=true", map[string]string{"async_query": "true"}))
}

func TestQueryTaskResultAnyNotFoundStatus(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "null result", contentType: "application/json", body: `{"result": null, "message": "No task with id 9"}`},
		{name: "plain text", contentType: "text/plain", body: "404 page not found"},
		{name: "empty body", contentType: "text/plain", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, backend := newClient(t)
			backend.Handle(http.MethodGet, "/tasks/9", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.QueryTaskResult(context.Background(), 9)
			require.Error(t, err)
			assert.True(t, client.IsTaskNotFound(err))

			var notFound *models.TaskNotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Equal(t, models.TaskID(9), notFound.ID)
		})
	}
}

func TestQueryTaskResultServerErrorIsRetryable(t *testing.T) {
	api, backend := newClient(t)
	backend.Handle(http.MethodGet, "/tasks/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	_, err := api.QueryTaskResult(context.Background(), 9)
	require.Error(t, err)
	assert.False(t, client.IsTaskNotFound(err))
	assert.True(t, client.IsStatus(err, http.StatusInternalServerError))
}
