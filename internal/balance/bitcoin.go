package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/jsonrpc"
)

// RPCCaller performs one JSON-RPC call.
type RPCCaller interface {
	Call(ctx context.Context, method string, params []any, result any) error
}

// BitcoinFetcher reads the BTC balance of an address. Bitcoin has no token
// layer, so Holdings.Tokens is always empty.
type BitcoinFetcher struct {
	rpc RPCCaller
}

// NewBitcoinFetcher creates a BitcoinFetcher.
func NewBitcoinFetcher(rpc RPCCaller) *BitcoinFetcher {
	return &BitcoinFetcher{rpc: rpc}
}

// Fetch implements Fetcher.
func (f *BitcoinFetcher) Fetch(ctx context.Context, chain domain.Chain, wallet string) (*Holdings, error) {
	var raw json.RawMessage
	err := f.rpc.Call(ctx, "getBalance", []any{wallet}, &raw)
	if err != nil && !errors.Is(err, jsonrpc.ErrNullResult) {
		return nil, fmt.Errorf("getBalance: %w", err)
	}
	sats, err := parseSatoshis(raw)
	if err != nil {
		return nil, err
	}
	return &Holdings{Native: nativeBalance(chain, FormatUnits(sats, chain.Decimals))}, nil
}

// parseSatoshis accepts either {"value": n} or a bare n.
func parseSatoshis(raw json.RawMessage) (*big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Value json.Number `json:"value"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode balance: %w", err)
		}
		raw = json.RawMessage(wrapped.Value)
	}
	if len(raw) == 0 {
		return new(big.Int), nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	v, ok := new(big.Int).SetString(n.String(), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid satoshi amount %q", n.String())
	}
	return v, nil
}
