package models

// Blockchain represents a blockchain supported by the API
type Blockchain struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	NativeToken  string `json:"native_token"`
	Image        string `json:"image"`
	EvmChainName string `json:"evm_chain_name,omitempty"`
}

// IsEvm reports whether the chain is EVM compatible.
func (b Blockchain) IsEvm() bool {
	return b.Type == "evm"
}

// EvmTransactionDecodeRequest represents a request to decode EVM transactions
type EvmTransactionDecodeRequest struct {
	Chains []string `json:"chains" validate:"required,min=1"`
}

// DecodedTxNumber represents the number of decoded transactions per chain
type DecodedTxNumber map[string]int

type EvmTransactionDecodeResult struct {
	DecodedTxNumber DecodedTxNumber `json:"decoded_tx_number"`
}

type QueryType string

const (
	EthWithdrawalsQuery   QueryType = "eth_withdrawals"
	BlockProductionsQuery QueryType = "block_productions"
)

type EventsQueryPayload struct {
	QueryType QueryType `json:"query_type" validate:"required,oneof=eth_withdrawals block_productions"`
}

type ExchangeEventsQueryPayload struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location" validate:"required"`
}
