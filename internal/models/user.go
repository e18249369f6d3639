package models

type UserStatus string

const (
	StatusLoggedIn  UserStatus = "loggedin"
	StatusLoggedOut UserStatus = "loggedout"
)

type UsersMap map[string]UserStatus

// SyncApproval answers the backend's question about a premium sync conflict.
type SyncApproval string

const (
	SyncApprovalUnknown SyncApproval = "unknown"
	SyncApprovalYes     SyncApproval = "yes"
	SyncApprovalNo      SyncApproval = "no"
)

type LoginCredentials struct {
	Username         string       `json:"-" validate:"required"`
	Password         string       `json:"password" validate:"required"`
	SyncApproval     SyncApproval `json:"sync_approval,omitempty" validate:"omitempty,oneof=unknown yes no"`
	ResumeFromBackup bool         `json:"resume_from_backup,omitempty"`
}

// SyncConflictPayload describes the remote state that conflicts with the local database.
type SyncConflictPayload struct {
	LocalSize          string `json:"local_size"`
	RemoteSize         string `json:"remote_size"`
	LocalLastModified  int64  `json:"local_last_modified"`
	RemoteLastModified int64  `json:"remote_last_modified"`
}

// GeneralSettings is the subset of the backend settings this client manages.
type GeneralSettings struct {
	HavePremium            bool     `json:"have_premium"`
	Version                int      `json:"version"`
	LastWriteTS            int64    `json:"last_write_ts"`
	PremiumShouldSync      bool     `json:"premium_should_sync"`
	UIFloatingPrecision    int      `json:"ui_floating_precision"`
	BalanceSaveFrequency   int      `json:"balance_save_frequency"`
	MainCurrency           string   `json:"main_currency"`
	DateDisplayFormat      string   `json:"date_display_format"`
	SubmitUsageAnalytics   bool     `json:"submit_usage_analytics"`
	ActiveModules          []string `json:"active_modules"`
	FrontendSettings       string   `json:"frontend_settings"`
	CurrentPriceOracles    []string `json:"current_price_oracles"`
	HistoricalPriceOracles []string `json:"historical_price_oracles"`
	NonSyncingExchanges    []string `json:"non_syncing_exchanges"`
	CostBasisMethod        string   `json:"cost_basis_method"`
	TreatEth2AsEth         bool     `json:"treat_eth2_as_eth"`
	QueryRetryLimit        int      `json:"query_retry_limit"`
	ConnectTimeout         int      `json:"connect_timeout"`
	ReadTimeout            int      `json:"read_timeout"`
	AutoDetectTokens       bool     `json:"auto_detect_tokens"`
	CsvExportDelimiter     string   `json:"csv_export_delimiter"`
	LastBalanceSave        int64    `json:"last_balance_save"`
	LastDataUploadTS       int64    `json:"last_data_upload_ts"`
}

// SettingsUpdatePayload wraps a partial settings update in snake_case keys.
type SettingsUpdatePayload struct {
	Settings map[string]any `json:"settings" validate:"required,min=1"`
}

type Exchange struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location" validate:"required"`
}

// ExchangeSetupPayload registers API credentials for an exchange.
type ExchangeSetupPayload struct {
	Name       string `json:"name" validate:"required"`
	Location   string `json:"location" validate:"required"`
	APIKey     string `json:"api_key" validate:"required"`
	APISecret  string `json:"api_secret" validate:"required"`
	Passphrase string `json:"passphrase,omitempty"`
}

type UserLogin struct {
	Exchanges []Exchange      `json:"exchanges"`
	Settings  GeneralSettings `json:"settings"`
}
