package domain

// WalletScan is one scan event. Append-only.
// Corresponds to wallet_scans table in PostgreSQL.
type WalletScan struct {
	ID              string   // uuid
	WalletAddress   string   // as submitted
	Chains          []string // chains requested and resolved
	TotalBalanceUSD float64  // sum of token balance_usd
	RecoverableUSD  float64  // recoverable + dust principal
	DustUSD         float64  // dust principal
	HygieneScore    int      // 0..100
	AlertCount      int      // unsafe tokens
	TokensCount     int
	ScannedAt       int64 // scan time (ms)
}

// ScanMetrics holds the derived portfolio metrics of a classified token list.
type ScanMetrics struct {
	TotalBalanceUSD     float64
	CoreUSD             float64
	RecoverableUSD      float64 // priced recoverable tokens only
	DustUSD             float64
	UnsafeUSD           float64
	UnpricedRecoverable int
	UnpricedDust        int
	UnpricedOther       int
	DormantCount        int
	OpportunityCostUSD  float64
	HygieneScore        int
	TokensCount         int
	AlertCount          int
}

// UnpricedCount is the total number of tokens without price data.
func (m ScanMetrics) UnpricedCount() int {
	return m.UnpricedRecoverable + m.UnpricedDust + m.UnpricedOther
}

// PrincipalUSD is the value eligible for pooling: dust plus priced recoverable.
func (m ScanMetrics) PrincipalUSD() float64 {
	return m.DustUSD + m.RecoverableUSD
}
