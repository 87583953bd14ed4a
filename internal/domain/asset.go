package domain

// AssetClass tags registry entries.
type AssetClass string

const (
	AssetClassCore    AssetClass = "core"
	AssetClassNonCore AssetClass = "non_core"
)

// DefaultAssetDecimals is used when the registry has no decimals for an asset.
const DefaultAssetDecimals = 18

// Asset is an entry of the supported-asset registry.
// Corresponds to asset_registry table in PostgreSQL, keyed by (chain, token_address).
type Asset struct {
	Chain        string     `yaml:"chain"`
	TokenAddress string     `yaml:"address"`
	TokenSymbol  string     `yaml:"symbol"`
	TokenName    string     `yaml:"name"`
	Decimals     *int       `yaml:"decimals,omitempty"`    // nullable
	AssetClass   AssetClass `yaml:"asset_class,omitempty"` // empty means non_core
	IsSupported  bool       `yaml:"supported"`
	USDPrice     *float64   `yaml:"usd_price,omitempty"`     // last observed price (nullable)
	LiquidityUSD *float64   `yaml:"liquidity_usd,omitempty"` // last observed liquidity (nullable)
	LogoURL      string     `yaml:"logo_url,omitempty"`
	UpdatedAt    int64      `yaml:"-"` // ms
}

// DecimalsOrDefault returns the asset decimals, defaulting to 18.
func (a *Asset) DecimalsOrDefault() int {
	if a.Decimals == nil {
		return DefaultAssetDecimals
	}
	return *a.Decimals
}

// ClassOrDefault returns the asset class, defaulting to non_core.
func (a *Asset) ClassOrDefault() AssetClass {
	if a.AssetClass == "" {
		return AssetClassNonCore
	}
	return a.AssetClass
}
