package deposit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
	"github.com/renaobrien/elutio/internal/storage/memory"
)

const (
	usdcAddr = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	wallet   = "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	store := memory.NewAssetStore()
	require.NoError(t, store.Upsert(context.Background(), []*domain.Asset{
		{Chain: "ethereum", TokenAddress: "", TokenSymbol: "ETH", TokenName: "Ether", IsSupported: true},
		{Chain: "ethereum", TokenAddress: usdcAddr, TokenSymbol: "USDC", TokenName: "USD Coin", IsSupported: true},
		{Chain: "base", TokenAddress: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", TokenSymbol: "USDC", TokenName: "USD Coin", IsSupported: true},
		{Chain: "polygon", TokenAddress: "0x1", TokenSymbol: "OLD", TokenName: "Old", IsSupported: false},
	}))
	return NewValidator(store, chains.Default(), zerolog.Nop())
}

func TestValidate(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name      string
		req       Request
		valid     bool
		reason    string
		chains    []string
		tokens    []string
		assetName string
	}{
		{
			name:      "native deposit",
			req:       Request{Chain: "ethereum", TokenSymbol: "ETH", Amount: "0.5", WalletAddress: wallet},
			valid:     true,
			assetName: "Ether",
		},
		{
			name:      "token with matching address, mixed case",
			req:       Request{Chain: "Ethereum", TokenSymbol: "usdc", TokenAddress: "0xA0b86991c6218b36c1d19d4a2e9eb0ce3606eB48", Amount: "100", WalletAddress: wallet},
			valid:     true,
			assetName: "USD Coin",
		},
		{
			name:   "missing fields",
			req:    Request{Chain: "ethereum", TokenSymbol: " "},
			reason: "Missing required fields: tokenSymbol, amount, walletAddress",
		},
		{
			name:   "unsupported chain",
			req:    Request{Chain: "polygon", TokenSymbol: "OLD", Amount: "1", WalletAddress: wallet},
			reason: "Chain 'polygon' not supported for pooled deposits",
			chains: []string{"base", "ethereum"},
		},
		{
			name:   "unsupported token",
			req:    Request{Chain: "ethereum", TokenSymbol: "DOGE", Amount: "1", WalletAddress: wallet},
			reason: "Token 'DOGE' not supported on ethereum for pooled deposits",
			tokens: []string{"ETH", "USDC"},
		},
		{
			name:   "address mismatch",
			req:    Request{Chain: "ethereum", TokenSymbol: "USDC", TokenAddress: "0xdead", Amount: "1", WalletAddress: wallet},
			reason: "Token address mismatch for USDC on ethereum",
		},
		{
			name:   "zero amount",
			req:    Request{Chain: "ethereum", TokenSymbol: "ETH", Amount: "0", WalletAddress: wallet},
			reason: "Amount must be a positive number",
		},
		{
			name:   "negative amount",
			req:    Request{Chain: "ethereum", TokenSymbol: "ETH", Amount: "-2", WalletAddress: wallet},
			reason: "Amount must be a positive number",
		},
		{
			name:   "garbage amount",
			req:    Request{Chain: "ethereum", TokenSymbol: "ETH", Amount: "ten", WalletAddress: wallet},
			reason: "Amount must be a positive number",
		},
		{
			name:   "bad wallet",
			req:    Request{Chain: "base", TokenSymbol: "USDC", Amount: "1", WalletAddress: "not-a-wallet"},
			reason: "Invalid wallet address for base",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.chains, res.SupportedChains)
			assert.Equal(t, tt.tokens, res.SupportedTokens)
			assert.Equal(t, tt.assetName, res.AssetName)
		})
	}
}

type brokenStore struct{ storage.AssetStore }

func (brokenStore) List(context.Context, storage.AssetFilter) ([]*domain.Asset, error) {
	return nil, errors.New("db down")
}

func TestValidate_StoreError(t *testing.T) {
	v := NewValidator(brokenStore{}, nil, zerolog.Nop())

	_, err := v.Validate(context.Background(), Request{Chain: "ethereum", TokenSymbol: "ETH", Amount: "1", WalletAddress: wallet})
	require.Error(t, err)
}
