// Package store holds the in-memory state of a logged in session. All
// getters return copies, so callers may keep or modify what they receive.
package store

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kelsos/rotki-client/internal/models"
)

type Session struct {
	Username string
	Premium  bool
	LoggedIn bool
}

// State is the client side view of the backend data.
type State struct {
	mu sync.RWMutex

	session          Session
	settings         models.GeneralSettings
	frontendSettings map[string]any

	totals             models.BalanceResult
	blockchainBalances map[string]map[string]models.AccountBalances
	exchangeBalances   map[string]models.ExchangeBalances

	accounts  map[string][]models.Account
	exchanges []models.Exchange
	tags      models.Tags

	decoded      models.DecodedTxNumber
	historyQuery map[string]time.Time
}

func New() *State {
	s := &State{}
	s.resetLocked()
	return s
}

func (s *State) resetLocked() {
	s.session = Session{}
	s.settings = models.GeneralSettings{}
	s.frontendSettings = map[string]any{}
	s.totals = models.BalanceResult{}
	s.blockchainBalances = make(map[string]map[string]models.AccountBalances)
	s.exchangeBalances = make(map[string]models.ExchangeBalances)
	s.accounts = make(map[string][]models.Account)
	s.exchanges = nil
	s.tags = models.Tags{}
	s.decoded = models.DecodedTxNumber{}
	s.historyQuery = make(map[string]time.Time)
}

// Reset drops all session data, as done on logout.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *State) SetSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *State) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetSettings replaces the general settings and the decoded frontend settings.
func (s *State) SetSettings(settings models.GeneralSettings, frontend map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cloneSettings(settings)
	s.frontendSettings = cloneAny(frontend)
	s.session.Premium = settings.HavePremium
}

func (s *State) Settings() models.GeneralSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings)
}

func (s *State) FrontendSettings() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAny(s.frontendSettings)
}

// MainCurrency is the currency values are displayed in, USD when unset.
func (s *State) MainCurrency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings.MainCurrency == "" {
		return "USD"
	}
	return strings.ToUpper(s.settings.MainCurrency)
}

func (s *State) SetTotals(totals models.BalanceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = models.BalanceResult{
		Assets:      maps.Clone(totals.Assets),
		Liabilities: maps.Clone(totals.Liabilities),
		Location:    maps.Clone(totals.Location),
	}
}

func (s *State) Totals() models.BalanceResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.BalanceResult{
		Assets:      maps.Clone(s.totals.Assets),
		Liabilities: maps.Clone(s.totals.Liabilities),
		Location:    maps.Clone(s.totals.Location),
	}
}

// SetBlockchainBalances replaces the per account balances of one chain.
func (s *State) SetBlockchainBalances(chain string, perAccount map[string]models.AccountBalances) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockchainBalances[normalizeKey(chain)] = cloneAccountBalances(perAccount)
}

func (s *State) BlockchainBalances(chain string) map[string]models.AccountBalances {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAccountBalances(s.blockchainBalances[normalizeKey(chain)])
}

// ChainTotal sums the usd value of the assets held by all accounts of a chain.
func (s *State) ChainTotal(chain string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, account := range s.blockchainBalances[normalizeKey(chain)] {
		for _, balance := range account.Assets {
			total = total.Add(balance.UsdValue)
		}
		for _, balance := range account.Liabilities {
			total = total.Sub(balance.UsdValue)
		}
	}
	return total
}

// TrackedValue sums the usd value of every chain and exchange balance.
func (s *State) TrackedValue() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, accounts := range s.blockchainBalances {
		for _, account := range accounts {
			for _, balance := range account.Assets {
				total = total.Add(balance.UsdValue)
			}
			for _, balance := range account.Liabilities {
				total = total.Sub(balance.UsdValue)
			}
		}
	}
	for _, balances := range s.exchangeBalances {
		for _, balance := range balances {
			total = total.Add(balance.UsdValue)
		}
	}
	return total
}

func (s *State) SetExchangeBalances(location string, balances models.ExchangeBalances) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchangeBalances[normalizeKey(location)] = maps.Clone(balances)
}

func (s *State) ExchangeBalances(location string) models.ExchangeBalances {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.exchangeBalances[normalizeKey(location)])
}

// BalanceLocations lists the chains and exchanges with stored balances.
func (s *State) BalanceLocations() (chains []string, exchanges []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chains = slices.Sorted(maps.Keys(s.blockchainBalances))
	exchanges = slices.Sorted(maps.Keys(s.exchangeBalances))
	return chains, exchanges
}

func (s *State) SetAccounts(chain string, accounts []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[normalizeKey(chain)] = cloneAccounts(accounts)
}

// AddAccounts appends accounts to a chain, replacing entries with the same address.
func (s *State) AddAccounts(chain string, accounts []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(chain)
	existing := s.accounts[key]
	for _, account := range cloneAccounts(accounts) {
		index := slices.IndexFunc(existing, func(a models.Account) bool {
			return strings.EqualFold(a.Address, account.Address)
		})
		if index >= 0 {
			existing[index] = account
		} else {
			existing = append(existing, account)
		}
	}
	s.accounts[key] = existing
}

// RemoveAccounts drops accounts and their balances from a chain.
func (s *State) RemoveAccounts(chain string, addresses []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(chain)
	s.accounts[key] = slices.DeleteFunc(s.accounts[key], func(a models.Account) bool {
		return slices.ContainsFunc(addresses, func(address string) bool {
			return strings.EqualFold(address, a.Address)
		})
	})

	balances := s.blockchainBalances[key]
	for address := range balances {
		if slices.ContainsFunc(addresses, func(removed string) bool { return strings.EqualFold(removed, address) }) {
			delete(balances, address)
		}
	}
}

func (s *State) Accounts(chain string) []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAccounts(s.accounts[normalizeKey(chain)])
}

// AccountChains lists the chains with tracked accounts.
func (s *State) AccountChains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chains := make([]string, 0, len(s.accounts))
	for chain, accounts := range s.accounts {
		if len(accounts) > 0 {
			chains = append(chains, chain)
		}
	}
	sort.Strings(chains)
	return chains
}

func (s *State) SetExchanges(exchanges []models.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = slices.Clone(exchanges)
}

// AddExchange records a connected exchange unless it is already known.
func (s *State) AddExchange(exchange models.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.exchanges, exchange) {
		s.exchanges = append(s.exchanges, exchange)
	}
}

// RemoveExchange forgets an exchange. The balances of its location are
// dropped once no other exchange of that location remains.
func (s *State) RemoveExchange(exchange models.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges = slices.DeleteFunc(s.exchanges, func(e models.Exchange) bool { return e == exchange })
	locationInUse := slices.ContainsFunc(s.exchanges, func(e models.Exchange) bool {
		return strings.EqualFold(e.Location, exchange.Location)
	})
	if !locationInUse {
		delete(s.exchangeBalances, normalizeKey(exchange.Location))
	}
}

func (s *State) Exchanges() []models.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.exchanges)
}

func (s *State) SetTags(tags models.Tags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = maps.Clone(tags)
}

func (s *State) Tags() models.Tags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.tags)
}

// RecordDecoded adds the number of transactions decoded per chain.
func (s *State) RecordDecoded(decoded models.DecodedTxNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chain, count := range decoded {
		s.decoded[normalizeKey(chain)] += count
	}
}

func (s *State) DecodedTransactions() models.DecodedTxNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.decoded)
}

// MarkHistoryQueried records when a history source was last pulled.
func (s *State) MarkHistoryQueried(source string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyQuery[normalizeKey(source)] = at
}

func (s *State) HistoryQueried(source string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.historyQuery[normalizeKey(source)]
	return at, ok
}

// HistoryQueries returns when every history source was last pulled.
func (s *State) HistoryQueries() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.historyQuery)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
