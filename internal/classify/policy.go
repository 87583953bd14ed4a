// Package classify buckets priced tokens into core, recoverable, dust and unsafe.
package classify

// Policy holds the thresholds and word lists used by the classifier.
type Policy struct {
	DustThresholdUSD   float64  // below this a priced token is dust
	CoreThresholdUSD   float64  // at or above this a priced token is core
	LiquidityFloorUSD  float64  // known liquidity below this makes a priced token unsafe
	UIDustThresholdUSD float64  // default threshold for display re-bucketing
	CoreSymbols        []string // upper-case allowlist, always core
	UnsafeKeywords     []string // lower-case substrings matched against symbol and name
}

// DefaultPolicy returns the production thresholds and lists.
func DefaultPolicy() Policy {
	return Policy{
		DustThresholdUSD:   10,
		CoreThresholdUSD:   1000,
		LiquidityFloorUSD:  1000,
		UIDustThresholdUSD: 20000,
		CoreSymbols:        []string{"USDC", "USDT", "DAI", "WETH", "ETH", "WBTC"},
		UnsafeKeywords: []string{
			"scam", "airdrop", "claim", "bonus", "reward", "giveaway",
			"visit", "verify", "support", "telegram", "discord", "t.me",
			"http", "https", ".com", ".io", ".xyz", ".app",
			"link", "click", "mint", "nft", "free", "fake",
		},
	}
}
