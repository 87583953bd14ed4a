// Package treasury estimates the token dust sitting idle across large DeFi
// protocol treasuries, as a headline figure for the landing page.
package treasury

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/renaobrien/elutio/internal/balance"
	"github.com/renaobrien/elutio/internal/domain"
)

// Estimation parameters.
const (
	// DustCeilingUSD is the exclusive upper bound of a dust holding.
	DustCeilingUSD = 100.0

	// MaxTokensPerTreasury caps the tokens priced per treasury.
	MaxTokensPerTreasury = 20

	// ExtrapolationFactor scales the scanned total to a market-wide estimate.
	ExtrapolationFactor = 50

	DefaultCacheTTL = 10 * time.Minute

	scanConcurrency = 2
	statsKey        = "stats"
)

// ErrNothingScanned is returned when every treasury failed to load.
var ErrNothingScanned = errors.New("no treasury could be scanned")

// Treasury is a named wallet to sample.
type Treasury struct {
	Name    string
	Address string
}

// DefaultTreasuries are major protocol treasuries on Ethereum mainnet.
var DefaultTreasuries = []Treasury{
	{Name: "Uniswap", Address: "0x1a9C8182C09F50C8318d769245beA52c32BE35BC"},
	{Name: "Aave", Address: "0x25F2226B597E8F9514B3F68F00f494cF4f286491"},
	{Name: "Compound", Address: "0x6d903f6003cca6255D85CcA4D3B5E5146dC33925"},
	{Name: "MakerDAO", Address: "0xBE8E3e3618f7474F8cB1d074A26afFef007E98FB"},
	{Name: "Lido", Address: "0x3e40D73EB977Dc6a537aF587D48316feE66E9C8c"},
}

// Detail is the dust found in one treasury.
type Detail struct {
	Name   string  `json:"name"`
	Dust   float64 `json:"dust"`
	Failed bool    `json:"failed,omitempty"`
}

// Stats is the aggregate estimate. USD totals are rounded to whole dollars.
type Stats struct {
	TotalDustScanned  int64    `json:"totalDustScanned"`
	EstimatedTotal    int64    `json:"estimatedTotal"`
	TreasuriesScanned int      `json:"treasuriesScanned"`
	Details           []Detail `json:"details"`
}

// Pricer resolves token prices keyed by normalized address.
type Pricer interface {
	Resolve(ctx context.Context, chain domain.Chain, addresses []string) map[string]domain.Quote
}

// Options for creating a Service.
type Options struct {
	Chain      domain.Chain
	Fetcher    balance.Fetcher
	Prices     Pricer
	Treasuries []Treasury    // DefaultTreasuries when empty
	CacheTTL   time.Duration // DefaultCacheTTL when zero
	Log        zerolog.Logger
}

// Service computes and caches treasury dust stats.
type Service struct {
	chain      domain.Chain
	fetcher    balance.Fetcher
	prices     Pricer
	treasuries []Treasury
	cache      *expirable.LRU[string, *Stats]
	log        zerolog.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	treasuries := opts.Treasuries
	if len(treasuries) == 0 {
		treasuries = DefaultTreasuries
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		chain:      opts.Chain,
		fetcher:    opts.Fetcher,
		prices:     opts.Prices,
		treasuries: treasuries,
		cache:      expirable.NewLRU[string, *Stats](1, nil, ttl),
		log:        opts.Log.With().Str("component", "treasury").Logger(),
	}
}

// Stats scans every treasury, or returns the cached result of the last scan.
// A treasury that fails to load counts as zero dust; only a total failure is
// an error.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if st, ok := s.cache.Get(statsKey); ok {
		return st, nil
	}

	details := make([]Detail, len(s.treasuries))
	errs := make([]error, len(s.treasuries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, tr := range s.treasuries {
		g.Go(func() error {
			details[i] = Detail{Name: tr.Name}
			dust, err := s.dust(gctx, tr)
			if err != nil {
				s.log.Warn().Err(err).Str("treasury", tr.Name).Msg("treasury scan failed")
				details[i].Failed = true
				errs[i] = fmt.Errorf("%s: %w", tr.Name, err)
				return nil
			}
			details[i].Dust = dust
			return nil
		})
	}
	_ = g.Wait()

	var total float64
	failed := 0
	for i, d := range details {
		total += d.Dust
		if errs[i] != nil {
			failed++
		}
	}
	if failed == len(details) {
		return nil, fmt.Errorf("%w: %w", ErrNothingScanned, errors.Join(errs...))
	}

	st := &Stats{
		TotalDustScanned:  int64(math.Round(total)),
		EstimatedTotal:    int64(math.Round(total * ExtrapolationFactor)),
		TreasuriesScanned: len(details),
		Details:           details,
	}
	s.cache.Add(statsKey, st)

	s.log.Info().
		Int64("dust_usd", st.TotalDustScanned).
		Int64("estimated_usd", st.EstimatedTotal).
		Int("failed", failed).
		Msg("treasury stats computed")
	return st, nil
}

// dust sums the USD value of the priced tokens of tr worth less than
// DustCeilingUSD. The native balance is not counted.
func (s *Service) dust(ctx context.Context, tr Treasury) (float64, error) {
	h, err := s.fetcher.Fetch(ctx, s.chain, tr.Address)
	if err != nil {
		return 0, err
	}

	tokens := h.Tokens
	if len(tokens) > MaxTokensPerTreasury {
		tokens = tokens[:MaxTokensPerTreasury]
	}
	addrs := make([]string, 0, len(tokens))
	for _, t := range tokens {
		addrs = append(addrs, t.ContractAddress)
	}
	quotes := s.prices.Resolve(ctx, s.chain, addrs)

	sum := decimal.Zero
	ceiling := decimal.NewFromFloat(DustCeilingUSD)
	for _, t := range tokens {
		q, ok := quotes[s.chain.NormalizeAddress(t.ContractAddress)]
		if !ok || q.PriceUSD <= 0 {
			continue
		}
		amount, err := decimal.NewFromString(t.Balance)
		if err != nil {
			continue
		}
		usd := amount.Mul(decimal.NewFromFloat(q.PriceUSD))
		if usd.IsPositive() && usd.LessThan(ceiling) {
			sum = sum.Add(usd)
		}
	}
	return sum.InexactFloat64(), nil
}
