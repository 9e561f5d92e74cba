package explorer

// tokenTxResponse is the envelope returned by the explorer's account
// module. Status "1" means results were returned; "0" covers both "no
// transactions found" and real failures, disambiguated by the message.
type tokenTxResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Result  []tokenTxRow `json:"result"`
}

// tokenTxRow is one raw ERC-20 transfer event. Every field arrives
// string-encoded and untrusted.
type tokenTxRow struct {
	BlockNumber  string `json:"blockNumber"`
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	ContractAddr string `json:"contractAddress"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenName    string `json:"tokenName"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal string `json:"tokenDecimal"`
}
