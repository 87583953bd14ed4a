// Package pricing resolves USD prices for token contracts through an ordered
// set of price sources.
package pricing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/observability"
)

// Strategy is one price source. Resolve returns quotes keyed by the chain's
// normalized address form; addresses it cannot price are simply absent.
// A strategy may return partial quotes together with an error.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, chain domain.Chain, addresses []string) (map[string]domain.Quote, error)
}

// Resolver folds strategies in order. Each tier only sees the addresses the
// previous tiers left unpriced. Tier failures are logged and skipped.
type Resolver struct {
	tiers []Strategy
	log   zerolog.Logger
}

// NewResolver creates a Resolver over tiers, highest priority first.
func NewResolver(log zerolog.Logger, tiers ...Strategy) *Resolver {
	return &Resolver{
		tiers: tiers,
		log:   log.With().Str("component", "pricing").Logger(),
	}
}

// Tiers returns the strategy names in resolution order.
func (r *Resolver) Tiers() []string {
	names := make([]string, len(r.tiers))
	for i, t := range r.tiers {
		names[i] = t.Name()
	}
	return names
}

// Resolve prices addresses on chain. The result holds only positive prices,
// keyed by normalized address.
func (r *Resolver) Resolve(ctx context.Context, chain domain.Chain, addresses []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote)
	residual := uniqueNormalized(chain, addresses)

	for _, tier := range r.tiers {
		if len(residual) == 0 || ctx.Err() != nil {
			break
		}

		quotes, err := tier.Resolve(ctx, chain, residual)
		if err != nil {
			observability.RecordProviderError(tier.Name(), err)
			r.log.Warn().
				Err(err).
				Str("chain", chain.ID).
				Str("source", tier.Name()).
				Int("requested", len(residual)).
				Int("partial", len(quotes)).
				Msg("price tier failed")
		}

		var next []string
		resolved := 0
		for _, addr := range residual {
			q, ok := quotes[addr]
			if !ok || q.PriceUSD <= 0 {
				next = append(next, addr)
				continue
			}
			if q.Source == "" {
				q.Source = tier.Name()
			}
			out[addr] = q
			resolved++
		}
		observability.RecordPriceResolved(chain.ID, tier.Name(), resolved)

		r.log.Debug().
			Str("chain", chain.ID).
			Str("source", tier.Name()).
			Int("resolved", resolved).
			Int("remaining", len(next)).
			Msg("price tier done")
		residual = next
	}

	observability.RecordPriceUnresolved(chain.ID, len(residual))
	return out
}

// uniqueNormalized normalizes addresses for chain and drops blanks and repeats.
func uniqueNormalized(chain domain.Chain, addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		n := chain.NormalizeAddress(a)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// chunk splits s into consecutive slices of at most size elements.
func chunk[T any](s []T, size int) [][]T {
	if size <= 0 {
		return [][]T{s}
	}
	var out [][]T
	for i := 0; i < len(s); i += size {
		end := min(i+size, len(s))
		out = append(out, s[i:end])
	}
	return out
}
