package scan

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/renaobrien/elutio/internal/domain"
)

// scanChain produces the classified holdings of wallet on one chain.
func (s *Service) scanChain(ctx context.Context, chain domain.Chain, wallet string) ([]*domain.PricedToken, error) {
	h, err := s.fetcher.Fetch(ctx, chain, wallet)
	if err != nil {
		return nil, fmt.Errorf("fetch balances: %w", err)
	}

	var out []*domain.PricedToken
	if native := s.pricedNative(ctx, chain, h.Native); native != nil {
		out = append(out, native)
	}

	if len(h.Tokens) == 0 {
		return out, nil
	}

	addrs := make([]string, len(h.Tokens))
	for i, tb := range h.Tokens {
		addrs[i] = tb.ContractAddress
	}
	quotes := s.prices.Resolve(ctx, chain, addrs)

	for _, tb := range h.Tokens {
		if tb.Name == "" {
			tb.Name = tb.Symbol
		}
		q, ok := quotes[chain.NormalizeAddress(tb.ContractAddress)]
		if !ok || q.PriceUSD <= 0 {
			// Unpriced is not worthless: keep it with no valuation.
			out = append(out, &domain.PricedToken{
				TokenBalance:   tb,
				Classification: s.classifier.Classify(0, tb.Symbol, tb.Name, false, nil),
			})
			continue
		}

		usd := valueOf(tb.Balance, q.PriceUSD)
		if usd < s.dustFloor {
			continue
		}
		out = append(out, &domain.PricedToken{
			TokenBalance:   tb,
			PriceUSD:       q.PriceUSD,
			BalanceUSD:     usd,
			LiquidityUSD:   q.LiquidityUSD,
			PriceKnown:     true,
			PriceSource:    q.Source,
			Classification: s.classifier.Classify(usd, tb.Symbol, tb.Name, true, q.LiquidityUSD),
		})
	}
	return out, nil
}

// pricedNative values the native balance. It is kept only when strictly
// above the dust floor; a native price failure drops it.
func (s *Service) pricedNative(ctx context.Context, chain domain.Chain, nb domain.TokenBalance) *domain.PricedToken {
	if s.native == nil {
		return nil
	}
	price, err := s.native.NativePrice(ctx, chain)
	if err != nil {
		s.log.Warn().Err(err).Str("chain", chain.ID).Msg("native price failed")
		return nil
	}
	usd := valueOf(nb.Balance, price)
	if price <= 0 || usd <= s.dustFloor {
		return nil
	}
	return &domain.PricedToken{
		TokenBalance:   nb,
		PriceUSD:       price,
		BalanceUSD:     usd,
		PriceKnown:     true,
		PriceSource:    domain.PriceSourceNative,
		Classification: s.classifier.Classify(usd, nb.Symbol, nb.Name, true, nil),
	}
}

// valueOf multiplies a decimal balance string by a USD price.
// Unparseable balances are worth zero.
func valueOf(balance string, price float64) float64 {
	amount, err := decimal.NewFromString(balance)
	if err != nil || amount.Sign() <= 0 || price <= 0 {
		return 0
	}
	usd, _ := amount.Mul(decimal.NewFromFloat(price)).Float64()
	return usd
}
