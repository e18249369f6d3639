package models

import "github.com/shopspring/decimal"

// BalanceKeys are the fields of balance results that must be read as decimals.
var BalanceKeys = []string{"amount", "usd_value", "value", "percentage_of_net_value"}

type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	UsdValue decimal.Decimal `json:"usd_value"`
}

// Add returns the sum of both balances.
func (b Balance) Add(other Balance) Balance {
	return Balance{
		Amount:   b.Amount.Add(other.Amount),
		UsdValue: b.UsdValue.Add(other.UsdValue),
	}
}

type AssetEntry struct {
	Amount               decimal.Decimal `json:"amount"`
	PercentageOfNetValue decimal.Decimal `json:"percentage_of_net_value"`
	UsdValue             decimal.Decimal `json:"usd_value"`
}

type LocationEntry struct {
	PercentageOfNetValue decimal.Decimal `json:"percentage_of_net_value"`
	UsdValue             decimal.Decimal `json:"usd_value"`
}

// BalanceResult is the aggregated result of a full balance query.
type BalanceResult struct {
	Assets      map[string]AssetEntry    `json:"assets"`
	Liabilities map[string]AssetEntry    `json:"liabilities"`
	Location    map[string]LocationEntry `json:"location"`
}

// NetValue is the usd value of all assets minus all liabilities.
func (r BalanceResult) NetValue() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range r.Assets {
		total = total.Add(entry.UsdValue)
	}
	for _, entry := range r.Liabilities {
		total = total.Sub(entry.UsdValue)
	}
	return total
}

type AccountBalances struct {
	Assets      map[string]Balance `json:"assets"`
	Liabilities map[string]Balance `json:"liabilities"`
}

type BalanceTotals struct {
	Assets      map[string]Balance `json:"assets"`
	Liabilities map[string]Balance `json:"liabilities"`
}

// BlockchainBalances is keyed by chain and then by account address.
type BlockchainBalances struct {
	PerAccount map[string]map[string]AccountBalances `json:"per_account"`
	Totals     BalanceTotals                         `json:"totals"`
}

// ExchangeBalances maps an asset identifier to its balance on one exchange.
type ExchangeBalances map[string]Balance

type PeriodicResult struct {
	LastBalanceSave  int64               `json:"last_balance_save"`
	ConnectedNodes   map[string][]string `json:"connected_nodes"`
	LastDataUploadTS int64               `json:"last_data_upload_ts"`
}
