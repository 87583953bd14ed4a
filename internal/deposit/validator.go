// Package deposit checks pooled-deposit requests against the asset registry.
package deposit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// nativeSymbol has no contract address to compare.
const nativeSymbol = "ETH"

// Request is a deposit to validate.
type Request struct {
	Chain         string `json:"chain"`
	TokenSymbol   string `json:"tokenSymbol"`
	TokenAddress  string `json:"tokenAddress"`
	Amount        string `json:"amount"`
	WalletAddress string `json:"walletAddress"`
}

// Result is the validation outcome. A rejected request has Valid false and
// a Reason; the lists are filled when they help the caller pick again.
type Result struct {
	Valid           bool     `json:"valid"`
	Reason          string   `json:"reason,omitempty"`
	AssetName       string   `json:"assetName,omitempty"`
	SupportedChains []string `json:"supportedChains,omitempty"`
	SupportedTokens []string `json:"supportedTokens,omitempty"`
}

// Validator validates deposits.
type Validator struct {
	assets storage.AssetStore
	chains *chains.Registry
	log    zerolog.Logger
}

// NewValidator creates a Validator. chains may be nil, in which case wallet
// addresses are not checked.
func NewValidator(assets storage.AssetStore, reg *chains.Registry, log zerolog.Logger) *Validator {
	return &Validator{
		assets: assets,
		chains: reg,
		log:    log.With().Str("component", "deposit").Logger(),
	}
}

func invalid(format string, args ...any) *Result {
	return &Result{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks req. A non-nil error means the registry could not be read;
// rejections are reported through Result.
func (v *Validator) Validate(ctx context.Context, req Request) (*Result, error) {
	req.Chain = strings.TrimSpace(req.Chain)
	req.TokenSymbol = strings.TrimSpace(req.TokenSymbol)
	req.TokenAddress = strings.TrimSpace(req.TokenAddress)
	req.Amount = strings.TrimSpace(req.Amount)
	req.WalletAddress = strings.TrimSpace(req.WalletAddress)

	if missing := missingFields(req); len(missing) > 0 {
		return invalid("Missing required fields: %s", strings.Join(missing, ", ")), nil
	}

	chain := strings.ToLower(req.Chain)
	assets, err := v.assets.List(ctx, storage.AssetFilter{Chain: chain, SupportedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load supported assets of %s: %w", chain, err)
	}

	if len(assets) == 0 {
		supported, err := v.supportedChains(ctx)
		if err != nil {
			return nil, err
		}
		res := invalid("Chain '%s' not supported for pooled deposits", req.Chain)
		res.SupportedChains = supported
		return res, nil
	}

	match := findSymbol(assets, req.TokenSymbol)
	if match == nil {
		res := invalid("Token '%s' not supported on %s for pooled deposits", req.TokenSymbol, req.Chain)
		for _, a := range assets {
			res.SupportedTokens = append(res.SupportedTokens, a.TokenSymbol)
		}
		return res, nil
	}

	if req.TokenSymbol != nativeSymbol && req.TokenAddress != "" && match.TokenAddress != "" &&
		!strings.EqualFold(match.TokenAddress, req.TokenAddress) {
		return invalid("Token address mismatch for %s on %s", req.TokenSymbol, req.Chain), nil
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		return invalid("Amount must be a positive number"), nil
	}

	if v.chains != nil {
		if c, err := v.chains.Get(chain); err == nil {
			if err := chains.ValidateAddress(c.Kind, req.WalletAddress); err != nil {
				return invalid("Invalid wallet address for %s", req.Chain), nil
			}
		}
	}

	v.log.Info().
		Str("wallet", req.WalletAddress).
		Str("amount", amount.String()).
		Str("token", req.TokenSymbol).
		Str("chain", chain).
		Msg("deposit valid")

	return &Result{Valid: true, AssetName: match.TokenName}, nil
}

func missingFields(req Request) []string {
	var missing []string
	if req.Chain == "" {
		missing = append(missing, "chain")
	}
	if req.TokenSymbol == "" {
		missing = append(missing, "tokenSymbol")
	}
	if req.Amount == "" {
		missing = append(missing, "amount")
	}
	if req.WalletAddress == "" {
		missing = append(missing, "walletAddress")
	}
	return missing
}

func findSymbol(assets []*domain.Asset, symbol string) *domain.Asset {
	for _, a := range assets {
		if strings.EqualFold(a.TokenSymbol, symbol) {
			return a
		}
	}
	return nil
}

func (v *Validator) supportedChains(ctx context.Context) ([]string, error) {
	all, err := v.assets.List(ctx, storage.AssetFilter{SupportedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load supported chains: %w", err)
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, a := range all {
		if _, ok := seen[a.Chain]; ok {
			continue
		}
		seen[a.Chain] = struct{}{}
		out = append(out, a.Chain)
	}
	sort.Strings(out)
	return out, nil
}
