package domain

// TokenBalance is a raw holding read from a chain.
type TokenBalance struct {
	Chain           string // chain id
	ContractAddress string // contract or mint address, empty for the native asset
	Symbol          string
	Name            string
	Balance         string // human-readable decimal amount
	Decimals        int
	LogoURL         string
	LastTransferAt  int64 // last observed transfer (ms), 0 when unknown
}

// IsNative reports whether the balance is the chain's native asset.
func (b TokenBalance) IsNative() bool {
	return b.ContractAddress == ""
}

// PricedToken is a TokenBalance with price data and a classification.
// Corresponds to the tokens table in PostgreSQL.
type PricedToken struct {
	TokenBalance

	ID                   int64          // row id, assigned by the store
	ScanID               string         // FK to wallet_scans
	PriceUSD             float64        // unit price, 0 when unknown
	BalanceUSD           float64        // balance * price, never negative
	LiquidityUSD         *float64       // best pair liquidity (nullable)
	PriceKnown           bool           // false means "no price data", not "worthless"
	PriceSource          string         // resolver tier that priced the token
	Classification       Classification // assigned once per scan
	HasUnlimitedApproval bool
	CreatedAt            int64 // record creation timestamp (ms)
}

// Unpriced reports whether the token carries no price data.
func (t *PricedToken) Unpriced() bool {
	return !t.PriceKnown
}
