package domain

// Price sources recorded on PricedToken.PriceSource and observations.
const (
	PriceSourceCoinGecko   = "coingecko"
	PriceSourceDexScreener = "dexscreener"
	PriceSourceRegistry    = "registry"
	PriceSourceNative      = "native"
)

// Quote is a resolved USD price for one token.
type Quote struct {
	PriceUSD     float64
	LiquidityUSD *float64 // nil when the source has no liquidity data
	Source       string
}

// PriceObservation is a price seen during a scan.
// Corresponds to price_observations table in ClickHouse.
type PriceObservation struct {
	Chain        string
	TokenAddress string // empty for the native asset
	Symbol       string
	PriceUSD     float64
	LiquidityUSD *float64
	Source       string
	ScanID       string
	ObservedAt   int64 // ms
}
