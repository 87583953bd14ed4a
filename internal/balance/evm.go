package balance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/renaobrien/elutio/internal/domain"
)

// Caller is the JSON-RPC surface of go-ethereum's rpc.Client.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// EVMFetcher reads balances through an Alchemy-compatible EVM endpoint.
type EVMFetcher struct {
	rpc Caller
	cfg Config
}

// NewEVMFetcher creates an EVMFetcher over an RPC client.
func NewEVMFetcher(rpc Caller, cfg Config) *EVMFetcher {
	cfg = cfg.withDefaults()
	cfg.Log = cfg.Log.With().Str("component", "evm_fetcher").Logger()
	return &EVMFetcher{rpc: rpc, cfg: cfg}
}

type tokenBalancesResult struct {
	Address       string `json:"address"`
	TokenBalances []struct {
		ContractAddress string  `json:"contractAddress"`
		TokenBalance    string  `json:"tokenBalance"`
		Error           *string `json:"error"`
	} `json:"tokenBalances"`
}

type tokenMetadata struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals *int    `json:"decimals"`
	Logo     *string `json:"logo"`
}

type rawToken struct {
	contract string
	amount   *big.Int
}

// Fetch implements Fetcher.
func (f *EVMFetcher) Fetch(ctx context.Context, chain domain.Chain, wallet string) (*Holdings, error) {
	var native hexutil.Big
	if err := f.rpc.CallContext(ctx, &native, "eth_getBalance", wallet, "latest"); err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	h := &Holdings{Native: nativeBalance(chain, FormatUnits(native.ToInt(), chain.Decimals))}

	var balances tokenBalancesResult
	if err := f.rpc.CallContext(ctx, &balances, "alchemy_getTokenBalances", wallet, "erc20"); err != nil {
		return nil, fmt.Errorf("alchemy_getTokenBalances: %w", err)
	}

	var raws []rawToken
	for _, tb := range balances.TokenBalances {
		if tb.Error != nil && *tb.Error != "" {
			continue
		}
		amount, ok := parseHexAmount(tb.TokenBalance)
		if !ok || amount.Sign() <= 0 {
			continue
		}
		raws = append(raws, rawToken{contract: chain.NormalizeAddress(tb.ContractAddress), amount: amount})
		if len(raws) == f.cfg.MaxTokens {
			break
		}
	}

	h.Tokens = f.withMetadata(ctx, chain, wallet, raws)
	return h, nil
}

// withMetadata resolves symbol and decimals of every token in parallel.
// Tokens whose metadata is missing or fails to load are dropped.
func (f *EVMFetcher) withMetadata(ctx context.Context, chain domain.Chain, wallet string, raws []rawToken) []domain.TokenBalance {
	slots := make([]*domain.TokenBalance, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.MetadataConcurrency)
	for i, raw := range raws {
		g.Go(func() error {
			var md tokenMetadata
			if err := f.rpc.CallContext(gctx, &md, "alchemy_getTokenMetadata", raw.contract); err != nil {
				f.cfg.Log.Debug().Err(err).Str("chain", chain.ID).Str("contract", raw.contract).Msg("token metadata failed")
				return nil
			}
			if md.Symbol == "" || md.Decimals == nil {
				return nil
			}

			tb := domain.TokenBalance{
				Chain:           chain.ID,
				ContractAddress: raw.contract,
				Symbol:          md.Symbol,
				Name:            md.Name,
				Balance:         FormatUnits(raw.amount, *md.Decimals),
				Decimals:        *md.Decimals,
			}
			if tb.Name == "" {
				tb.Name = md.Symbol
			}
			if md.Logo != nil {
				tb.LogoURL = *md.Logo
			}
			if f.cfg.DormancyProbe {
				last, err := f.lastTransfer(gctx, wallet, raw.contract)
				if err != nil {
					f.cfg.Log.Debug().Err(err).Str("contract", raw.contract).Msg("dormancy probe failed")
				}
				tb.LastTransferAt = last
			}
			slots[i] = &tb
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.TokenBalance, 0, len(slots))
	for _, tb := range slots {
		if tb != nil {
			out = append(out, *tb)
		}
	}
	return out
}

type assetTransfersResult struct {
	Transfers []struct {
		Metadata struct {
			BlockTimestamp string `json:"blockTimestamp"`
		} `json:"metadata"`
	} `json:"transfers"`
}

// lastTransfer returns the newest erc20 transfer of contract into or out of
// wallet, in ms. Zero means none was found.
func (f *EVMFetcher) lastTransfer(ctx context.Context, wallet, contract string) (int64, error) {
	var latest int64
	var errs []error
	for _, side := range []string{"fromAddress", "toAddress"} {
		params := map[string]any{
			"fromBlock":         "0x0",
			"toBlock":           "latest",
			side:                wallet,
			"contractAddresses": []string{contract},
			"category":          []string{"erc20"},
			"order":             "desc",
			"maxCount":          "0x1",
			"withMetadata":      true,
			"excludeZeroValue":  true,
		}
		var res assetTransfersResult
		if err := f.rpc.CallContext(ctx, &res, "alchemy_getAssetTransfers", params); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, tr := range res.Transfers {
			ts, err := time.Parse(time.RFC3339, tr.Metadata.BlockTimestamp)
			if err != nil {
				continue
			}
			latest = max(latest, ts.UnixMilli())
		}
	}
	return latest, errors.Join(errs...)
}
