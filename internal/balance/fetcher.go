// Package balance reads native and token holdings of a wallet from chain RPCs.
package balance

import (
	"context"
	"math/big"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/renaobrien/elutio/internal/domain"
)

// Defaults for Config.
const (
	DefaultMaxTokensPerChain   = 50
	DefaultMetadataConcurrency = 8
)

// Holdings is what a wallet holds on one chain. Native is always set,
// possibly with a zero balance.
type Holdings struct {
	Native domain.TokenBalance
	Tokens []domain.TokenBalance
}

// Fetcher reads holdings of wallet on chain.
type Fetcher interface {
	Fetch(ctx context.Context, chain domain.Chain, wallet string) (*Holdings, error)
}

// Config tunes the per-chain fetchers.
type Config struct {
	MaxTokens           int  // tokens kept per chain, default 50
	MetadataConcurrency int  // parallel metadata lookups, default 8
	DormancyProbe       bool // look up the last transfer of every token
	Log                 zerolog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokensPerChain
	}
	if c.MetadataConcurrency <= 0 {
		c.MetadataConcurrency = DefaultMetadataConcurrency
	}
	return c
}

// nativeBalance builds the native asset entry of chain.
func nativeBalance(chain domain.Chain, amount string) domain.TokenBalance {
	return domain.TokenBalance{
		Chain:    chain.ID,
		Symbol:   chain.NativeSymbol,
		Name:     chain.NativeName,
		Balance:  amount,
		Decimals: chain.Decimals,
		LogoURL:  chain.LogoURL,
	}
}

// FormatUnits renders a raw integer amount with decimals as a decimal string.
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	return decimal.NewFromBigInt(raw, int32(-decimals)).String()
}

// parseHexAmount parses a hex quantity, tolerating zero padding.
func parseHexAmount(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return new(big.Int), true
	}
	return new(big.Int).SetString(s, 16)
}

// shortMint renders a mint as first4...last4 for display.
func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + "..." + mint[len(mint)-4:]
}
