// Package wallet resolves the address to scan from a wallet capability.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// ErrNoAccounts is returned when the provider exposes no account.
var ErrNoAccounts = errors.New("wallet exposes no accounts")

// Provider is a connected wallet.
type Provider interface {
	// RequestAccounts returns the addresses the wallet exposes, primary first.
	RequestAccounts(ctx context.Context) ([]string, error)

	// ChainID returns the active chain id as a 0x-prefixed hex string.
	ChainID(ctx context.Context) (string, error)
}

// StaticProvider is a watch-only wallet with a fixed address.
type StaticProvider struct {
	Address string
	Chain   string // hex chain id, "0x1" when empty
}

// RequestAccounts returns the configured address.
func (p StaticProvider) RequestAccounts(context.Context) ([]string, error) {
	addr := strings.TrimSpace(p.Address)
	if addr == "" {
		return nil, ErrNoAccounts
	}
	return []string{addr}, nil
}

// ChainID returns the configured chain id.
func (p StaticProvider) ChainID(context.Context) (string, error) {
	if p.Chain == "" {
		return "0x1", nil
	}
	return p.Chain, nil
}

// Caller is the subset of the go-ethereum RPC client used here.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// RPCProvider asks a node or signer over JSON-RPC.
type RPCProvider struct {
	rpc Caller
}

// NewRPCProvider wraps an RPC client.
func NewRPCProvider(rpc Caller) *RPCProvider {
	return &RPCProvider{rpc: rpc}
}

// DialRPCProvider connects to url.
func DialRPCProvider(ctx context.Context, url string) (*RPCProvider, func(), error) {
	client, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial wallet rpc: %w", err)
	}
	return NewRPCProvider(client), client.Close, nil
}

// RequestAccounts calls eth_accounts.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return accounts, nil
}

// ChainID calls eth_chainId.
func (p *RPCProvider) ChainID(ctx context.Context) (string, error) {
	var id hexutil.Big
	if err := p.rpc.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return "", fmt.Errorf("eth_chainId: %w", err)
	}
	return id.String(), nil
}

// PrimaryAccount returns the first account of p.
func PrimaryAccount(ctx context.Context, p Provider) (string, error) {
	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return accounts[0], nil
}
