package domain

import "math/big"

// Liquidity summarizes bridged-in value for one token: how many raw token
// units crossed, their USD value, and how many transfers carried them.
// Served by the informational HTTP endpoints; never persisted directly.
type Liquidity struct {
	TokenName         string   `json:"token_name"`
	TokenSymbol       string   `json:"token_symbol"`
	ContractAddress   string   `json:"contract_address"`
	Tokens            *big.Int `json:"tokens"`
	USD               float64  `json:"usd"`
	NumberOfTransfers int64    `json:"number_of_transfers"`
}
