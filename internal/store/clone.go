package store

import (
	"maps"
	"slices"

	"github.com/kelsos/rotki-client/internal/models"
)

func cloneAccounts(accounts []models.Account) []models.Account {
	if accounts == nil {
		return nil
	}
	out := make([]models.Account, len(accounts))
	for i, account := range accounts {
		account.Tags = slices.Clone(account.Tags)
		out[i] = account
	}
	return out
}

func cloneAccountBalances(balances map[string]models.AccountBalances) map[string]models.AccountBalances {
	out := make(map[string]models.AccountBalances, len(balances))
	for address, account := range balances {
		out[address] = models.AccountBalances{
			Assets:      maps.Clone(account.Assets),
			Liabilities: maps.Clone(account.Liabilities),
		}
	}
	return out
}

func cloneSettings(settings models.GeneralSettings) models.GeneralSettings {
	settings.ActiveModules = slices.Clone(settings.ActiveModules)
	settings.CurrentPriceOracles = slices.Clone(settings.CurrentPriceOracles)
	settings.HistoricalPriceOracles = slices.Clone(settings.HistoricalPriceOracles)
	settings.NonSyncingExchanges = slices.Clone(settings.NonSyncingExchanges)
	return settings
}

// cloneAny deep copies decoded JSON values.
func cloneAny(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneAny(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
