// Package scan runs wallet scans: fetch balances per chain, price and classify
// every holding, compute portfolio metrics and persist the result.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/renaobrien/elutio/internal/balance"
	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/classify"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/metrics"
	"github.com/renaobrien/elutio/internal/observability"
	"github.com/renaobrien/elutio/internal/storage"
)

// Errors returned by Service.
var (
	// ErrInvalidInput is returned for a missing wallet, no usable chain or a
	// malformed address.
	ErrInvalidInput = errors.New("invalid scan input")

	// ErrPersist is returned when the scan or its tokens cannot be stored.
	ErrPersist = errors.New("persist scan")
)

// ErrNoValidChains is the reason given when no requested chain is known.
const ErrNoValidChains = "No valid chains specified"

// InputError carries a caller-facing reason and matches ErrInvalidInput.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// Defaults for Options.
const (
	DefaultChain            = "ethereum"
	DefaultDustFloorUSD     = 0.01
	DefaultInsertBatchSize  = 500
	DefaultChainConcurrency = 4
)

// TokenPricer resolves token prices on a chain.
type TokenPricer interface {
	Resolve(ctx context.Context, chain domain.Chain, addresses []string) map[string]domain.Quote
}

// NativePricer prices the native asset of a chain.
type NativePricer interface {
	NativePrice(ctx context.Context, chain domain.Chain) (float64, error)
}

// Options for creating a Service.
type Options struct {
	Chains     *chains.Registry
	Fetcher    balance.Fetcher
	Prices     TokenPricer
	Native     NativePricer
	Classifier *classify.Classifier

	Scans        storage.ScanStore
	Tokens       storage.TokenStore
	Observations storage.PriceObservationStore // optional

	DustFloorUSD     float64       // priced holdings below this are dropped
	InsertBatchSize  int           // tokens per InsertBulk call
	ChainConcurrency int           // chains scanned in parallel
	Timeout          time.Duration // whole-scan deadline, 0 for none
	Now              func() time.Time
	Log              zerolog.Logger
}

// Service runs and reads wallet scans.
type Service struct {
	chains       *chains.Registry
	fetcher      balance.Fetcher
	prices       TokenPricer
	native       NativePricer
	classifier   *classify.Classifier
	scans        storage.ScanStore
	tokens       storage.TokenStore
	observations storage.PriceObservationStore

	dustFloor   float64
	batchSize   int
	concurrency int
	timeout     time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		chains:       opts.Chains,
		fetcher:      opts.Fetcher,
		prices:       opts.Prices,
		native:       opts.Native,
		classifier:   opts.Classifier,
		scans:        opts.Scans,
		tokens:       opts.Tokens,
		observations: opts.Observations,
		dustFloor:    opts.DustFloorUSD,
		batchSize:    opts.InsertBatchSize,
		concurrency:  opts.ChainConcurrency,
		timeout:      opts.Timeout,
		now:          opts.Now,
		log:          opts.Log.With().Str("component", "scan").Logger(),
	}
	if s.chains == nil {
		s.chains = chains.Default()
	}
	if s.classifier == nil {
		s.classifier = classify.New(classify.DefaultPolicy())
	}
	if s.dustFloor <= 0 {
		s.dustFloor = DefaultDustFloorUSD
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultInsertBatchSize
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultChainConcurrency
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Result is the outcome of one scan.
type Result struct {
	Scan         *domain.WalletScan
	Tokens       []*domain.PricedToken
	Metrics      domain.ScanMetrics
	FailedChains []string
}

// Request is a scan request. Chains are chain ids; unknown ids are ignored
// and an empty list scans DefaultChain.
type Request struct {
	WalletAddress string
	Chains        []string
}

// Scan fetches, prices, classifies and persists the holdings of a wallet.
// Per-chain failures only reduce coverage; they are listed in FailedChains.
func (s *Service) Scan(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.scan(ctx, req)
	status := "success"
	switch {
	case errors.Is(err, ErrInvalidInput):
		status = "invalid"
	case err != nil:
		status = "error"
	case len(res.FailedChains) > 0:
		status = "partial"
	}
	observability.RecordScan(status, time.Since(start).Seconds())
	return res, err
}

func (s *Service) scan(ctx context.Context, req Request) (*Result, error) {
	wallet, targets, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.now()
	log := s.log.With().Str("wallet", wallet).Logger()
	log.Info().Strs("chains", chainIDs(targets)).Msg("scan started")

	perChain := make([][]*domain.PricedToken, len(targets))
	failed := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, chain := range targets {
		g.Go(func() error {
			tokens, err := s.scanChain(gctx, chain, wallet)
			if err != nil {
				failed[i] = true
				observability.RecordChainFailure(chain.ID)
				log.Warn().Err(err).Str("chain", chain.ID).Msg("chain scan failed")
				return nil
			}
			perChain[i] = tokens
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{}
	var all []*domain.PricedToken
	for i, tokens := range perChain {
		if failed[i] {
			res.FailedChains = append(res.FailedChains, targets[i].ID)
			continue
		}
		all = append(all, tokens...)
	}

	m := metrics.Summarize(all, now)
	scan := &domain.WalletScan{
		ID:              uuid.NewString(),
		WalletAddress:   wallet,
		Chains:          chainIDs(targets),
		TotalBalanceUSD: m.TotalBalanceUSD,
		RecoverableUSD:  m.PrincipalUSD(),
		DustUSD:         m.DustUSD,
		HygieneScore:    m.HygieneScore,
		AlertCount:      m.AlertCount,
		TokensCount:     m.TokensCount,
		ScannedAt:       now.UnixMilli(),
	}
	for _, t := range all {
		t.ScanID = scan.ID
	}

	if err := s.persist(ctx, scan, all); err != nil {
		return nil, err
	}
	s.recordObservations(ctx, scan, all)

	for _, t := range all {
		observability.RecordToken(string(t.Classification))
	}
	observability.RecordScanSuccess(now.Unix())

	log.Info().
		Str("scan_id", scan.ID).
		Int("tokens", m.TokensCount).
		Float64("total_usd", m.TotalBalanceUSD).
		Int("hygiene", m.HygieneScore).
		Strs("failed_chains", res.FailedChains).
		Msg("scan complete")

	res.Scan = scan
	res.Tokens = all
	res.Metrics = m
	return res, nil
}

// validate resolves the chain list and checks the wallet against the kind of
// the first chain. Returns the wallet in the comparison form of that kind.
func (s *Service) validate(req Request) (string, []domain.Chain, error) {
	ids := req.Chains
	if len(ids) == 0 {
		ids = []string{DefaultChain}
	}
	targets, unknown := s.chains.Resolve(ids)
	if len(unknown) > 0 {
		s.log.Debug().Strs("unknown", unknown).Msg("ignoring unknown chains")
	}
	if len(targets) == 0 {
		return "", nil, &InputError{Reason: ErrNoValidChains}
	}

	wallet := strings.TrimSpace(req.WalletAddress)
	if wallet == "" {
		return "", nil, &InputError{Reason: "Invalid wallet address"}
	}
	first := targets[0]
	if err := chains.ValidateAddress(first.Kind, wallet); err != nil {
		return "", nil, &InputError{Reason: fmt.Sprintf("Invalid %s wallet address", first.ID)}
	}
	return first.NormalizeAddress(wallet), targets, nil
}

// persist stores the scan row, then its tokens in batches.
func (s *Service) persist(ctx context.Context, scan *domain.WalletScan, tokens []*domain.PricedToken) error {
	start := time.Now()
	err := s.scans.Insert(ctx, scan)
	observability.RecordDBQuery("postgres", "insert_scan", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("%w: insert scan: %v", ErrPersist, err)
	}

	for i := 0; i < len(tokens); i += s.batchSize {
		end := min(i+s.batchSize, len(tokens))
		start := time.Now()
		err := s.tokens.InsertBulk(ctx, tokens[i:end])
		observability.RecordDBQuery("postgres", "insert_tokens", time.Since(start).Seconds(), err)
		if err != nil {
			return fmt.Errorf("%w: insert tokens %d-%d: %v", ErrPersist, i, end, err)
		}
	}
	return nil
}

// recordObservations appends the prices seen in this scan to the analytics
// store. Failures are logged only.
func (s *Service) recordObservations(ctx context.Context, scan *domain.WalletScan, tokens []*domain.PricedToken) {
	if s.observations == nil {
		return
	}
	var obs []*domain.PriceObservation
	for _, t := range tokens {
		if !t.PriceKnown || t.PriceUSD <= 0 {
			continue
		}
		obs = append(obs, &domain.PriceObservation{
			Chain:        t.Chain,
			TokenAddress: t.ContractAddress,
			Symbol:       t.Symbol,
			PriceUSD:     t.PriceUSD,
			LiquidityUSD: t.LiquidityUSD,
			Source:       t.PriceSource,
			ScanID:       scan.ID,
			ObservedAt:   scan.ScannedAt,
		})
	}
	if len(obs) == 0 {
		return
	}

	start := time.Now()
	err := s.observations.InsertBulk(ctx, obs)
	observability.RecordDBQuery("clickhouse", "insert_observations", time.Since(start).Seconds(), err)
	if err != nil {
		s.log.Warn().Err(err).Str("scan_id", scan.ID).Int("observations", len(obs)).Msg("price observations not stored")
	}
}

func chainIDs(list []domain.Chain) []string {
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	return ids
}
