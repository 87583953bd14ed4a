package balance

import (
	"context"
	"fmt"
	"sync"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/jsonrpc"
	"github.com/renaobrien/elutio/internal/observability"
)

// Dialer is a Fetcher that routes each chain to a fetcher of its kind,
// dialing the chain's RPC endpoint on first use.
type Dialer struct {
	apiKey string
	cfg    Config

	mu       sync.Mutex
	fetchers map[string]Fetcher
}

// NewDialer creates a Dialer rendering chain RPC URLs with apiKey.
func NewDialer(apiKey string, cfg Config) *Dialer {
	return &Dialer{
		apiKey:   apiKey,
		cfg:      cfg.withDefaults(),
		fetchers: make(map[string]Fetcher),
	}
}

// Fetch implements Fetcher.
func (d *Dialer) Fetch(ctx context.Context, chain domain.Chain, wallet string) (*Holdings, error) {
	f, err := d.fetcher(ctx, chain)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx, chain, wallet)
}

func (d *Dialer) fetcher(ctx context.Context, chain domain.Chain) (Fetcher, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if f, ok := d.fetchers[chain.ID]; ok {
		return f, nil
	}

	endpoint := chain.RPCEndpoint(d.apiKey)
	if endpoint == "" {
		return nil, fmt.Errorf("chain %s: no rpc endpoint", chain.ID)
	}

	var f Fetcher
	switch chain.Kind {
	case domain.ChainKindEVM:
		client, err := gethrpc.DialContext(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", chain.ID, err)
		}
		f = NewEVMFetcher(&observedCaller{chain: chain.ID, inner: client}, d.cfg)
	case domain.ChainKindSolana:
		f = NewSolanaFetcher(solrpc.New(endpoint), d.cfg)
	case domain.ChainKindBitcoin:
		f = NewBitcoinFetcher(jsonrpc.NewClient(endpoint, jsonrpc.WithObserver(func(method string, err error) {
			observability.RecordRPCCall(chain.ID, method, err)
		})))
	default:
		return nil, fmt.Errorf("chain %s: unsupported kind %q", chain.ID, chain.Kind)
	}

	d.fetchers[chain.ID] = f
	return f, nil
}

// observedCaller counts every EVM RPC call.
type observedCaller struct {
	chain string
	inner Caller
}

func (c *observedCaller) CallContext(ctx context.Context, result any, method string, args ...any) error {
	err := c.inner.CallContext(ctx, result, method, args...)
	observability.RecordRPCCall(c.chain, method, err)
	return err
}
