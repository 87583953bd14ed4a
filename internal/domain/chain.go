package domain

import "strings"

// ChainKind selects the balance and address rules for a chain.
type ChainKind string

const (
	ChainKindEVM     ChainKind = "evm"
	ChainKindSolana  ChainKind = "solana"
	ChainKindBitcoin ChainKind = "bitcoin"
)

// Valid reports whether k is a known chain kind.
func (k ChainKind) Valid() bool {
	switch k {
	case ChainKindEVM, ChainKindSolana, ChainKindBitcoin:
		return true
	}
	return false
}

// Chain is a statically configured network the scanner can read.
type Chain struct {
	ID                string    `yaml:"id"`                  // "ethereum", "solana", ...
	Kind              ChainKind `yaml:"kind"`                // evm / solana / bitcoin
	NativeSymbol      string    `yaml:"native_symbol"`       // ETH, SOL, BTC
	NativeName        string    `yaml:"native_name"`         // display name of the native asset
	NativeCoinGeckoID string    `yaml:"native_coingecko_id"` // id for simple/price lookups
	Decimals          int       `yaml:"decimals"`            // native asset decimals
	Platform          string    `yaml:"coingecko_platform"`  // token_price platform key, empty when unsupported
	RPCURL            string    `yaml:"rpc_url"`             // template, {key} is replaced by the API key
	LogoURL           string    `yaml:"native_logo"`         // native asset logo
}

// RPCEndpoint renders the RPC URL template with the given API key.
func (c Chain) RPCEndpoint(apiKey string) string {
	return strings.ReplaceAll(c.RPCURL, "{key}", apiKey)
}

// NormalizeAddress returns the comparison form of a contract or wallet address.
// EVM addresses are case-insensitive; base58 and bech32 addresses are kept verbatim.
func (c Chain) NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if c.Kind == ChainKindEVM {
		return strings.ToLower(addr)
	}
	return addr
}
