// Package registry serves the supported-asset registry used for deposits and
// as the last pricing tier.
package registry

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// TokenInfo is a supported token as listed per chain.
type TokenInfo struct {
	Symbol     string            `json:"symbol"`
	Name       string            `json:"name"`
	Address    string            `json:"address"`
	Decimals   int               `json:"decimals"`
	AssetClass domain.AssetClass `json:"assetClass"`
}

// Supported groups the supported tokens by chain.
type Supported struct {
	Chains        []string               `json:"chains"`
	TokensByChain map[string][]TokenInfo `json:"tokensByChain"`
}

// Service reads and seeds the asset registry.
type Service struct {
	store  storage.AssetStore
	chains *chains.Registry
	log    zerolog.Logger
}

// New creates a Service over store. reg supplies the address rules used when
// seeding; nil falls back to the built-in chains.
func New(store storage.AssetStore, reg *chains.Registry, log zerolog.Logger) *Service {
	if reg == nil {
		reg = chains.Default()
	}
	return &Service{
		store:  store,
		chains: reg,
		log:    log.With().Str("component", "registry").Logger(),
	}
}

// List returns assets matching f, ordered by symbol. The chain is matched
// lower-cased.
func (s *Service) List(ctx context.Context, f storage.AssetFilter) ([]*domain.Asset, error) {
	f.Chain = strings.ToLower(strings.TrimSpace(f.Chain))
	f.Search = strings.TrimSpace(f.Search)
	assets, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// SupportedOn returns the supported assets of one chain.
func (s *Service) SupportedOn(ctx context.Context, chain string) ([]*domain.Asset, error) {
	return s.List(ctx, storage.AssetFilter{Chain: chain, SupportedOnly: true})
}

// SupportedByChain groups every supported asset by chain. Chains are sorted;
// tokens keep the symbol order of the store.
func (s *Service) SupportedByChain(ctx context.Context) (*Supported, error) {
	assets, err := s.List(ctx, storage.AssetFilter{SupportedOnly: true})
	if err != nil {
		return nil, err
	}

	out := &Supported{TokensByChain: make(map[string][]TokenInfo)}
	for _, a := range assets {
		if _, ok := out.TokensByChain[a.Chain]; !ok {
			out.Chains = append(out.Chains, a.Chain)
		}
		out.TokensByChain[a.Chain] = append(out.TokensByChain[a.Chain], TokenInfo{
			Symbol:     a.TokenSymbol,
			Name:       a.TokenName,
			Address:    a.TokenAddress,
			Decimals:   a.DecimalsOrDefault(),
			AssetClass: a.ClassOrDefault(),
		})
	}
	sort.Strings(out.Chains)
	if out.Chains == nil {
		out.Chains = []string{}
	}
	return out, nil
}

// Seed upserts assets. Chains are lower-cased and addresses stored in the
// comparison form the price resolver looks them up by.
func (s *Service) Seed(ctx context.Context, assets []*domain.Asset) error {
	for _, a := range assets {
		if a == nil {
			continue
		}
		a.Chain = strings.ToLower(strings.TrimSpace(a.Chain))
		a.TokenAddress = s.normalizeAddress(a.Chain, a.TokenAddress)
		a.TokenSymbol = strings.TrimSpace(a.TokenSymbol)
	}
	if err := s.store.Upsert(ctx, assets); err != nil {
		return fmt.Errorf("seed %d assets: %w", len(assets), err)
	}
	s.log.Info().Int("assets", len(assets)).Msg("asset registry seeded")
	return nil
}

// normalizeAddress applies the chain's address rule. Chains missing from the
// chain registry are matched by address shape.
func (s *Service) normalizeAddress(chainID, addr string) string {
	addr = strings.TrimSpace(addr)
	if c, err := s.chains.Get(chainID); err == nil {
		return c.NormalizeAddress(addr)
	}
	if chains.ValidateAddress(domain.ChainKindEVM, addr) == nil {
		return strings.ToLower(addr)
	}
	return addr
}

//go:embed assets.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in asset list.
func DefaultSeed() ([]*domain.Asset, error) {
	return ParseSeed(defaultSeed)
}

// seedFile is the layout of an asset seed YAML file.
type seedFile struct {
	Assets []*domain.Asset `yaml:"assets"`
}

// ParseSeed decodes an asset seed document.
func ParseSeed(data []byte) ([]*domain.Asset, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse asset seed: %w", err)
	}
	for i, a := range f.Assets {
		if a == nil || strings.TrimSpace(a.Chain) == "" || strings.TrimSpace(a.TokenSymbol) == "" {
			return nil, fmt.Errorf("parse asset seed: entry %d needs chain and symbol", i)
		}
	}
	return f.Assets, nil
}

// LoadSeed reads and decodes an asset seed file, or the built-in list when
// path is empty.
func LoadSeed(path string) ([]*domain.Asset, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset seed: %w", err)
	}
	return ParseSeed(data)
}
