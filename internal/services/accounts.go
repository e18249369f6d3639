package services

import (
	"context"
	"fmt"

	"github.com/kelsos/rotki-client/internal/logger"
	"github.com/kelsos/rotki-client/internal/models"
)

// AccountService manages the tracked blockchain accounts.
type AccountService struct {
	deps
	balances *BalanceService
}

func newAccountService(d deps, balances *BalanceService) *AccountService {
	return &AccountService{deps: d, balances: balances}
}

// SupportedChains lists the chains accounts can be added to.
func (s *AccountService) SupportedChains(ctx context.Context) ([]models.Blockchain, error) {
	return s.client.SupportedChains(ctx)
}

// FetchAccounts loads the tracked accounts of a chain.
func (s *AccountService) FetchAccounts(ctx context.Context, chain string) ([]models.Account, error) {
	accounts, err := s.client.Accounts(ctx, chain)
	if err != nil {
		s.fail(failureTitle("fetch accounts", chain), err)
		return nil, err
	}

	s.store.SetAccounts(chain, accounts)
	logger.Info("Found %d accounts for chain %s", len(accounts), chain)
	return accounts, nil
}

// AddAccounts starts tracking accounts and refreshes the balances of the
// chain once the backend added them.
func (s *AccountService) AddAccounts(ctx context.Context, chain string, accounts []models.Account) error {
	added, err := runTask[[]string](ctx, s.deps, taskRequest{
		taskType: models.TaskAddAccount,
		filter:   models.TaskFilter{Chain: chain},
		meta: models.TaskMeta{
			Title:       fmt.Sprintf("Add %d %s accounts", len(accounts), chain),
			Description: accountsDescription(accounts),
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.AddAccountsAsync(ctx, chain, models.AccountsPayload{Accounts: accounts})
		},
		failure: failureTitle("add accounts", chain),
	})
	if err != nil {
		return err
	}

	s.store.AddAccounts(chain, accounts)
	logger.Info("Added %d accounts to %s", len(added), chain)

	if err := s.balances.FetchBlockchainBalances(ctx, chain, false); err != nil {
		logger.Warn("Could not refresh %s balances after adding accounts: %v", chain, err)
	}
	return nil
}

// EditAccounts updates labels and tags of accounts.
func (s *AccountService) EditAccounts(ctx context.Context, chain string, accounts []models.Account) ([]models.Account, error) {
	updated, err := s.client.EditAccounts(ctx, chain, models.AccountsPayload{Accounts: accounts})
	if err != nil {
		s.fail(failureTitle("edit accounts", chain), err)
		return nil, err
	}

	s.store.SetAccounts(chain, updated)
	return updated, nil
}

// RemoveAccounts stops tracking accounts. The backend answers with the
// balances of the chain without them.
func (s *AccountService) RemoveAccounts(ctx context.Context, chain string, addresses []string) error {
	result, err := runTask[models.BlockchainBalances](ctx, s.deps, taskRequest{
		taskType: models.TaskRemoveAccount,
		filter:   models.TaskFilter{Chain: chain},
		meta: models.TaskMeta{
			Title:       fmt.Sprintf("Remove %d %s accounts", len(addresses), chain),
			NumericKeys: models.BalanceKeys,
		},
		start: func(ctx context.Context) (models.TaskID, error) {
			return s.client.RemoveAccountsAsync(ctx, chain, models.AccountRemovalPayload{Accounts: addresses})
		},
		failure: failureTitle("remove accounts", chain),
	})
	if err != nil {
		return err
	}

	s.store.RemoveAccounts(chain, addresses)
	if perAccount, ok := result.PerAccount[chain]; ok {
		s.store.SetBlockchainBalances(chain, perAccount)
	}
	logger.Info("Removed %d accounts from %s", len(addresses), chain)
	return nil
}

func accountsDescription(accounts []models.Account) string {
	if len(accounts) == 1 {
		return accounts[0].Address
	}
	return fmt.Sprintf("%d accounts", len(accounts))
}
