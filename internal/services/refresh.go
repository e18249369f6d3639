package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// maxConcurrentQueries bounds the tasks a refresh submits at once.
const maxConcurrentQueries = 4

// RefreshOptions selects the steps of a refresh.
type RefreshOptions struct {
	IgnoreCache bool
	History     bool
	Decode      bool
}

// RefreshService brings the whole session up to date: balances of every
// chain and exchange and, optionally, their history.
type RefreshService struct {
	deps
	accounts  *AccountService
	balances  *BalanceService
	exchanges *ExchangeService
	history   *HistoryService
}

// Refresh runs every step even when some fail and returns the joined errors.
func (s *RefreshService) Refresh(ctx context.Context, opts RefreshOptions) error {
	session := s.store.Session()
	if !session.LoggedIn {
		return ErrNotLoggedIn
	}
	logger.Info("Starting refresh for user: %s", session.Username)

	chains, err := s.accounts.SupportedChains(ctx)
	if err != nil {
		return fmt.Errorf("failed to get supported chains: %w", err)
	}

	exchanges, err := s.exchanges.FetchConnected(ctx)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	var (
		tracked   []string
		evmChains []string
	)
	for _, chain := range chains {
		accounts, err := s.accounts.FetchAccounts(ctx, chain.ID)
		if err != nil {
			record(err)
			continue
		}
		if len(accounts) == 0 {
			continue
		}
		tracked = append(tracked, chain.ID)
		if chain.IsEvm() {
			evmChains = append(evmChains, chain.ID)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentQueries)
	for _, chain := range tracked {
		group.Go(func() error {
			record(s.balances.FetchBlockchainBalances(groupCtx, chain, opts.IgnoreCache))
			return nil
		})
	}
	for _, location := range exchangeLocations(exchanges) {
		group.Go(func() error {
			record(s.balances.FetchExchangeBalances(groupCtx, location, opts.IgnoreCache))
			return nil
		})
	}
	_ = group.Wait()

	if opts.History {
		for _, exchange := range exchanges {
			record(s.exchanges.QueryEvents(ctx, exchange))
		}
		for _, queryType := range []models.QueryType{models.EthWithdrawalsQuery, models.BlockProductionsQuery} {
			record(s.history.QueryOnlineEvents(ctx, queryType))
		}
	}

	if opts.Decode && len(evmChains) > 0 {
		if _, err := s.history.DecodeTransactions(ctx, evmChains); err != nil {
			record(err)
		}
	}

	logger.Info("Completed refresh for user %s with %d failures", session.Username, len(failures))
	return errors.Join(failures...)
}

// exchangeLocations returns each exchange location once.
func exchangeLocations(exchanges []models.Exchange) []string {
	seen := make(map[string]bool, len(exchanges))
	var locations []string
	for _, exchange := range exchanges {
		if !seen[exchange.Location] {
			seen[exchange.Location] = true
			locations = append(locations, exchange.Location)
		}
	}
	return locations
}
