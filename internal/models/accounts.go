package models

type Account struct {
	Address string   `json:"address" validate:"required"`
	Label   string   `json:"label,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// AccountsPayload is the body of the account mutation endpoints.
type AccountsPayload struct {
	Accounts []Account `json:"accounts" validate:"required,min=1,dive"`
}

// AccountRemovalPayload removes accounts by address.
type AccountRemovalPayload struct {
	Accounts []string `json:"accounts" validate:"required,min=1,dive,required"`
}
