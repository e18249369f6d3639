package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kelsos/rotki-client/internal/models"
)

// QueryBalancesAsync starts a query of all balances.
func (c *APIClient) QueryBalancesAsync(ctx context.Context, ignoreCache, saveData bool) (models.TaskID, error) {
	endpoint := BuildURLWithParams("/balances", map[string]string{
		"ignore_cache": boolParam(ignoreCache),
		"save_data":    boolParam(saveData),
	})
	return c.startTask(ctx, http.MethodGet, endpoint, nil)
}

// QueryBlockchainBalancesAsync starts a balance query for a single chain.
func (c *APIClient) QueryBlockchainBalancesAsync(ctx context.Context, chain string, ignoreCache bool) (models.TaskID, error) {
	endpoint := BuildURLWithParams(fmt.Sprintf("/balances/blockchains/%s", pathSegment(chain)), map[string]string{
		"ignore_cache": boolParam(ignoreCache),
	})
	return c.startTask(ctx, http.MethodGet, endpoint, nil)
}

// QueryExchangeBalancesAsync starts a balance query for a connected exchange.
func (c *APIClient) QueryExchangeBalancesAsync(ctx context.Context, location string, ignoreCache bool) (models.TaskID, error) {
	endpoint := BuildURLWithParams(fmt.Sprintf("/exchanges/balances/%s", pathSegment(location)), map[string]string{
		"ignore_cache": boolParam(ignoreCache),
	})
	return c.startTask(ctx, http.MethodGet, endpoint, nil)
}

// Periodic fetches the periodically refreshed session data.
func (c *APIClient) Periodic(ctx context.Context) (models.PeriodicResult, error) {
	return call[models.PeriodicResult](ctx, c, http.MethodGet, "/periodic", nil)
}

// ExchangeRates fetches the usd exchange rate of the given fiat currencies.
func (c *APIClient) ExchangeRates(ctx context.Context, currencies ...string) (map[string]decimal.Decimal, error) {
	endpoint := BuildURLWithParams("/exchange_rates", map[string]string{
		"currencies": strings.Join(currencies, ","),
	})
	rates, err := call[map[string]decimal.Decimal](ctx, c, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	return rates, nil
}
