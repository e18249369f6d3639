package client

import (
	"context"
	"net/http"

	"github.com/kelsos/rotki-client/internal/models"
)

// QueryOnlineEventsAsync starts pulling online events of the given kind.
func (c *APIClient) QueryOnlineEventsAsync(ctx context.Context, queryType models.QueryType) (models.TaskID, error) {
	payload := models.EventsQueryPayload{QueryType: queryType}
	if err := validatePayload(payload); err != nil {
		return models.InvalidTaskID, err
	}
	return c.startTask(ctx, http.MethodPost, "/history/events/query", payload)
}

// DecodeTransactionsAsync starts decoding pending EVM transactions of the chains.
func (c *APIClient) DecodeTransactionsAsync(ctx context.Context, chains []string) (models.TaskID, error) {
	payload := models.EvmTransactionDecodeRequest{Chains: chains}
	if err := validatePayload(payload); err != nil {
		return models.InvalidTaskID, err
	}
	return c.startTask(ctx, http.MethodPost, "/blockchains/evm/transactions/decode", payload)
}
