package pricing

import "strings"

// SymbolRules decides which tokens bypass or skip price matching based on
// substrings of their reported symbol. Both lists are configuration, not
// hardcoded policy: deployments tracking different pegs override them.
type SymbolRules struct {
	// Stable symbols are assumed pegged 1:1 to USD; their transfers use
	// a fixed rate of 1.0 and never hit the price feed.
	Stable []string

	// Skip symbols have no wired-up price series yet; their transfers
	// persist with USD zero. BTC stays here until a BTC-denominated
	// series is added.
	Skip []string
}

// DefaultSymbolRules returns the stock rule set.
func DefaultSymbolRules() SymbolRules {
	return SymbolRules{
		Stable: []string{"USDT", "USDC", "DAI"},
		Skip:   []string{"BTC"},
	}
}

// IsStable reports whether the symbol contains any stablecoin ticker.
func (r SymbolRules) IsStable(symbol string) bool {
	return containsAny(symbol, r.Stable)
}

// IsSkipped reports whether the symbol contains any skip-list ticker.
func (r SymbolRules) IsSkipped(symbol string) bool {
	return containsAny(symbol, r.Skip)
}

func containsAny(symbol string, tickers []string) bool {
	for _, t := range tickers {
		if t != "" && strings.Contains(symbol, t) {
			return true
		}
	}
	return false
}
