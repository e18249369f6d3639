package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/rotki-client/internal/models"
)

func balance(amount, usd string) models.Balance {
	return models.Balance{Amount: decimal.RequireFromString(amount), UsdValue: decimal.RequireFromString(usd)}
}

func TestAccountsLifecycle(t *testing.T) {
	s := New()
	s.SetAccounts("ETH", []models.Account{{Address: "0xA", Label: "main"}})
	s.AddAccounts("eth", []models.Account{{Address: "0xa", Label: "renamed"}, {Address: "0xB", Tags: []string{"cold"}}})

	accounts := s.Accounts("eth")
	require.Len(t, accounts, 2)
	assert.Equal(t, "renamed", accounts[0].Label)
	assert.Equal(t, []string{"eth"}, s.AccountChains())

	accounts[1].Tags[0] = "mutated"
	assert.Equal(t, []string{"cold"}, s.Accounts("eth")[1].Tags, "getters return copies")

	s.SetBlockchainBalances("eth", map[string]models.AccountBalances{
		"0xA": {Assets: map[string]models.Balance{"ETH": balance("1", "2000")}},
		"0xB": {Assets: map[string]models.Balance{"ETH": balance("2", "4000")}},
	})
	assert.True(t, decimal.RequireFromString("6000").Equal(s.ChainTotal("ETH")))

	s.RemoveAccounts("eth", []string{"0xa"})
	assert.Len(t, s.Accounts("eth"), 1)
	assert.NotContains(t, s.BlockchainBalances("eth"), "0xA")
	assert.True(t, decimal.RequireFromString("4000").Equal(s.ChainTotal("eth")))
}

func TestExchangesAndBalances(t *testing.T) {
	s := New()
	kraken := models.Exchange{Name: "Kraken 1", Location: "kraken"}
	second := models.Exchange{Name: "Kraken 2", Location: "kraken"}

	s.AddExchange(kraken)
	s.AddExchange(kraken)
	s.AddExchange(second)
	assert.Len(t, s.Exchanges(), 2)

	s.SetExchangeBalances("Kraken", models.ExchangeBalances{"BTC": balance("0.5", "30000")})

	s.SetBlockchainBalances("btc", map[string]models.AccountBalances{
		"bc1": {Assets: map[string]models.Balance{"BTC": balance("1", "60000")}},
	})
	assert.True(t, decimal.RequireFromString("90000").Equal(s.TrackedValue()))

	s.RemoveExchange(kraken)
	assert.NotEmpty(t, s.ExchangeBalances("kraken"), "balances stay while another kraken account is connected")

	s.RemoveExchange(second)
	assert.Empty(t, s.ExchangeBalances("kraken"))
	_, exchanges := s.BalanceLocations()
	assert.Empty(t, exchanges)
}

func TestSettingsAreCopied(t *testing.T) {
	s := New()
	frontend := map[string]any{"theme": map[string]any{"dark": true}}
	s.SetSettings(models.GeneralSettings{MainCurrency: "eur", HavePremium: true, ActiveModules: []string{"uniswap"}}, frontend)

	frontend["theme"].(map[string]any)["dark"] = false
	got := s.FrontendSettings()
	assert.Equal(t, true, got["theme"].(map[string]any)["dark"])
	assert.Equal(t, "EUR", s.MainCurrency())
	assert.True(t, s.Session().Premium)

	settings := s.Settings()
	settings.ActiveModules[0] = "changed"
	assert.Equal(t, []string{"uniswap"}, s.Settings().ActiveModules)
}

func TestResetClearsSession(t *testing.T) {
	s := New()
	s.SetSession(Session{Username: "alice", LoggedIn: true})
	s.SetTags(models.Tags{"hot": {Name: "hot"}})
	s.RecordDecoded(models.DecodedTxNumber{"ethereum": 3})
	s.RecordDecoded(models.DecodedTxNumber{"Ethereum": 2})
	s.MarkHistoryQueried("eth_withdrawals", time.Unix(100, 0))

	assert.Equal(t, 5, s.DecodedTransactions()["ethereum"])
	at, ok := s.HistoryQueried("ETH_WITHDRAWALS")
	require.True(t, ok)
	assert.Equal(t, int64(100), at.Unix())

	s.Reset()
	assert.Equal(t, Session{}, s.Session())
	assert.Empty(t, s.Tags())
	assert.Empty(t, s.DecodedTransactions())
	assert.Equal(t, "USD", s.MainCurrency())
	_, ok = s.HistoryQueried("eth_withdrawals")
	assert.False(t, ok)
}
