package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/renaobrien/elutio/internal/domain"
)

// DexScreener endpoint and request shape.
const (
	DexScreenerURL = "https://api.dexscreener.com"

	// DexScreenerBatchSize is the max token addresses per request.
	DexScreenerBatchSize = 30

	dexScreenerConcurrency = 3
)

// DexScreener prices tokens from DEX pair data. Among all pairs of a base
// token the one with the deepest USD liquidity wins.
type DexScreener struct {
	httpSource
}

// NewDexScreener creates a DexScreener provider.
func NewDexScreener(opts ...Option) *DexScreener {
	s := newHTTPSource(DexScreenerURL, opts)
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	return &DexScreener{httpSource: s}
}

// Name implements Strategy.
func (d *DexScreener) Name() string { return domain.PriceSourceDexScreener }

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

// Resolve implements Strategy. Batches run concurrently; a failing batch
// leaves its addresses unpriced and is reported in the returned error.
func (d *DexScreener) Resolve(ctx context.Context, chain domain.Chain, addresses []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote)
	if len(addresses) == 0 {
		return out, nil
	}

	// Match pairs case-insensitively, report under the caller's key.
	wanted := make(map[string]string, len(addresses))
	for _, a := range addresses {
		wanted[strings.ToLower(a)] = a
	}

	var (
		mu   sync.Mutex
		errs []error
		best = make(map[string]dexPair)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dexScreenerConcurrency)
	for _, batch := range chunk(addresses, DexScreenerBatchSize) {
		g.Go(func() error {
			var body dexPairsResponse
			if err := d.getJSON(gctx, "/latest/dex/tokens/"+strings.Join(batch, ","), nil, &body); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, p := range body.Pairs {
				key, ok := wanted[strings.ToLower(p.BaseToken.Address)]
				if !ok || pairPrice(p) <= 0 {
					continue
				}
				if cur, seen := best[key]; !seen || pairLiquidity(p) > pairLiquidity(cur) {
					best[key] = p
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for addr, p := range best {
		q := domain.Quote{PriceUSD: pairPrice(p), Source: domain.PriceSourceDexScreener}
		if liq := pairLiquidity(p); liq > 0 {
			q.LiquidityUSD = &liq
		}
		out[addr] = q
	}

	if len(errs) > 0 {
		return out, fmt.Errorf("dexscreener %s: %d of %d batches failed: %w",
			chain.ID, len(errs), len(chunk(addresses, DexScreenerBatchSize)), errors.Join(errs...))
	}
	return out, nil
}

func pairPrice(p dexPair) float64 {
	v, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil {
		return 0
	}
	return v
}

func pairLiquidity(p dexPair) float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}
