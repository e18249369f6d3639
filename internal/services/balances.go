package services

import (
	"context"

	"github.com/kelsos/rotki-client/internal/display"
	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// BalanceService queries balances through backend tasks.
type BalanceService struct {
	deps
}

func newBalanceService(d deps) *BalanceService {
	return &BalanceService{deps: d}
}

// FetchBalances queries the aggregated balances of all locations.
func (s *BalanceService) FetchBalances(ctx context.Context, ignoreCache bool) (models.BalanceResult, error) {
	result, err := runTask[models.BalanceResult](ctx, s.deps, taskRequest{
		taskType: models.TaskQueryBalances,
		meta: models.TaskMeta{
			Title:       "Query balances",
			NumericKeys: models.BalanceKeys,
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.QueryBalancesAsync(ctx, ignoreCache, true)
		},
		failure: failureTitle("query balances", ""),
	})
	if err != nil {
		return models.BalanceResult{}, err
	}

	s.store.SetTotals(result)
	logger.Info("Balances updated, net value %s USD", result.NetValue().StringFixed(2))
	return result, nil
}

// FetchBlockchainBalances queries the balances of the accounts of one chain.
func (s *BalanceService) FetchBlockchainBalances(ctx context.Context, chain string, ignoreCache bool) error {
	result, err := runTask[models.BlockchainBalances](ctx, s.deps, taskRequest{
		taskType: models.TaskQueryBlockchainBalances,
		filter:   models.TaskFilter{Chain: chain},
		meta: models.TaskMeta{
			Title:       "Query " + chain + " balances",
			NumericKeys: models.BalanceKeys,
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.QueryBlockchainBalancesAsync(ctx, chain, ignoreCache)
		},
		failure: failureTitle("query balances", chain),
	})
	if err != nil {
		return err
	}

	if _, ok := result.PerAccount[chain]; !ok {
		s.store.SetBlockchainBalances(chain, nil)
	}
	for resultChain, perAccount := range result.PerAccount {
		s.store.SetBlockchainBalances(resultChain, perAccount)
	}
	logger.Info("Updated %s balances for %d accounts", chain, len(result.PerAccount[chain]))
	return nil
}

// FetchExchangeBalances queries the balances held on one exchange location.
func (s *BalanceService) FetchExchangeBalances(ctx context.Context, location string, ignoreCache bool) error {
	balances, err := runTask[models.ExchangeBalances](ctx, s.deps, taskRequest{
		taskType: models.TaskQueryExchangeBalances,
		filter:   models.TaskFilter{Location: location},
		meta: models.TaskMeta{
			Title:       "Query " + location + " balances",
			NumericKeys: models.BalanceKeys,
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.QueryExchangeBalancesAsync(ctx, location, ignoreCache)
		},
		failure: failureTitle("query exchange balances", location),
	})
	if err != nil {
		return err
	}

	s.store.SetExchangeBalances(location, balances)
	logger.Info("Updated %s balances with %d assets", location, len(balances))
	return nil
}

// Converter returns a converter from usd into the user's main currency.
// Rates that cannot be fetched fall back to usd.
func (s *BalanceService) Converter(ctx context.Context) display.Converter {
	currency := s.store.MainCurrency()
	if currency == display.USD.Currency {
		return display.USD
	}

	rates, err := s.client.ExchangeRates(ctx, currency)
	if err != nil {
		logger.Warn("Showing values in USD, no %s rate: %v", currency, err)
		return display.USD
	}
	rate, ok := rates[currency]
	if !ok || rate.IsZero() {
		logger.Warn("Showing values in USD, backend has no %s rate", currency)
		return display.USD
	}
	return display.Converter{Currency: currency, Rate: rate}
}
