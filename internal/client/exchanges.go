package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kelsos/rotki-client/internal/models"
)

// ConnectedExchanges lists the exchanges with stored credentials.
func (c *APIClient) ConnectedExchanges(ctx context.Context) ([]models.Exchange, error) {
	exchanges, err := call[[]models.Exchange](ctx, c, http.MethodGet, "/exchanges", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get connected exchanges: %w", err)
	}
	return exchanges, nil
}

// SetupExchange stores API credentials for an exchange.
func (c *APIClient) SetupExchange(ctx context.Context, payload models.ExchangeSetupPayload) error {
	if err := validatePayload(payload); err != nil {
		return err
	}
	if _, err := call[bool](ctx, c, http.MethodPut, "/exchanges", payload); err != nil {
		return fmt.Errorf("failed to setup exchange %s: %w", payload.Name, err)
	}
	return nil
}

// RemoveExchange deletes the credentials of an exchange.
func (c *APIClient) RemoveExchange(ctx context.Context, exchange models.Exchange) error {
	if err := validatePayload(exchange); err != nil {
		return err
	}
	if _, err := call[bool](ctx, c, http.MethodDelete, "/exchanges", exchange); err != nil {
		return fmt.Errorf("failed to remove exchange %s: %w", exchange.Name, err)
	}
	return nil
}

// QueryExchangeEventsAsync starts pulling the trade history of an exchange.
func (c *APIClient) QueryExchangeEventsAsync(ctx context.Context, payload models.ExchangeEventsQueryPayload) (models.TaskID, error) {
	if err := validatePayload(payload); err != nil {
		return models.InvalidTaskID, err
	}
	return c.startTask(ctx, http.MethodPost, "/history/events/query/exchange", payload)
}
