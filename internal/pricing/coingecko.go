package pricing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/renaobrien/elutio/internal/domain"
)

// CoinGecko endpoints.
const (
	CoinGeckoPublicURL = "https://api.coingecko.com/api/v3"
	CoinGeckoProURL    = "https://pro-api.coingecko.com/api/v3"

	// coinGeckoBatchSize caps contract_addresses per token_price request.
	coinGeckoBatchSize = 100
)

// CoinGecko prices token contracts and native assets through the CoinGecko
// simple API. It is the first resolution tier.
type CoinGecko struct {
	httpSource
}

// NewCoinGecko creates a CoinGecko provider. The API key, when set, is sent
// as the demo or pro header depending on the base URL.
func NewCoinGecko(apiKey string, opts ...Option) *CoinGecko {
	s := newHTTPSource(CoinGeckoPublicURL, opts)
	s.baseURL = strings.TrimRight(s.baseURL, "/")
	if apiKey != "" {
		if strings.Contains(s.baseURL, "pro-api") {
			s.headers["x-cg-pro-api-key"] = apiKey
		} else {
			s.headers["x-cg-demo-api-key"] = apiKey
		}
	}
	return &CoinGecko{httpSource: s}
}

// Name implements Strategy.
func (c *CoinGecko) Name() string { return domain.PriceSourceCoinGecko }

type usdPrice struct {
	USD float64 `json:"usd"`
}

// Resolve implements Strategy. Chains without a CoinGecko platform resolve nothing.
func (c *CoinGecko) Resolve(ctx context.Context, chain domain.Chain, addresses []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote)
	if chain.Platform == "" || len(addresses) == 0 {
		return out, nil
	}

	for _, batch := range chunk(addresses, coinGeckoBatchSize) {
		lower := make([]string, len(batch))
		for i, a := range batch {
			lower[i] = strings.ToLower(a)
		}

		var body map[string]usdPrice
		q := url.Values{}
		q.Set("contract_addresses", strings.Join(lower, ","))
		q.Set("vs_currencies", "usd")
		if err := c.getJSON(ctx, "/simple/token_price/"+url.PathEscape(chain.Platform), q, &body); err != nil {
			return out, fmt.Errorf("coingecko token_price %s: %w", chain.ID, err)
		}

		// Keys come back lower-cased for EVM platforms and verbatim for others.
		byLower := make(map[string]float64, len(body))
		for k, v := range body {
			byLower[strings.ToLower(k)] = v.USD
		}
		for _, addr := range batch {
			if p := byLower[strings.ToLower(addr)]; p > 0 {
				out[addr] = domain.Quote{PriceUSD: p, Source: domain.PriceSourceCoinGecko}
			}
		}
	}
	return out, nil
}

// NativePrices returns USD prices for CoinGecko coin ids. Ids without a
// positive price are absent from the result.
func (c *CoinGecko) NativePrices(ctx context.Context, ids []string) (map[string]float64, error) {
	out := make(map[string]float64)
	if len(ids) == 0 {
		return out, nil
	}

	var body map[string]usdPrice
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	if err := c.getJSON(ctx, "/simple/price", q, &body); err != nil {
		return out, fmt.Errorf("coingecko simple/price: %w", err)
	}
	for _, id := range ids {
		if p := body[id].USD; p > 0 {
			out[id] = p
		}
	}
	return out, nil
}
