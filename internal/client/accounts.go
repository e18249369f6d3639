package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kelsos/rotki-client/internal/models"
)

// SupportedChains lists the blockchains the backend supports.
func (c *APIClient) SupportedChains(ctx context.Context) ([]models.Blockchain, error) {
	chains, err := call[[]models.Blockchain](ctx, c, http.MethodGet, "/blockchains/supported", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get supported chains: %w", err)
	}
	return chains, nil
}

// Accounts lists the tracked accounts of a chain.
func (c *APIClient) Accounts(ctx context.Context, chain string) ([]models.Account, error) {
	endpoint := fmt.Sprintf("/blockchains/%s/accounts", pathSegment(chain))
	accounts, err := call[[]models.Account](ctx, c, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts for %s: %w", chain, err)
	}
	return accounts, nil
}

// AddAccountsAsync starts tracking new accounts on a chain.
func (c *APIClient) AddAccountsAsync(ctx context.Context, chain string, payload models.AccountsPayload) (models.TaskID, error) {
	if err := validatePayload(payload); err != nil {
		return models.InvalidTaskID, err
	}
	endpoint := fmt.Sprintf("/blockchains/%s/accounts", pathSegment(chain))
	return c.startTask(ctx, http.MethodPut, endpoint, payload)
}

// EditAccounts changes labels and tags of tracked accounts.
func (c *APIClient) EditAccounts(ctx context.Context, chain string, payload models.AccountsPayload) ([]models.Account, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/blockchains/%s/accounts", pathSegment(chain))
	accounts, err := call[[]models.Account](ctx, c, http.MethodPatch, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to edit accounts on %s: %w", chain, err)
	}
	return accounts, nil
}

// RemoveAccountsAsync stops tracking accounts on a chain.
func (c *APIClient) RemoveAccountsAsync(ctx context.Context, chain string, payload models.AccountRemovalPayload) (models.TaskID, error) {
	if err := validatePayload(payload); err != nil {
		return models.InvalidTaskID, err
	}
	endpoint := fmt.Sprintf("/blockchains/%s/accounts", pathSegment(chain))
	return c.startTask(ctx, http.MethodDelete, endpoint, payload)
}
