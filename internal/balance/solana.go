package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/renaobrien/elutio/internal/domain"
)

// SolanaClient is the subset of the solana-go RPC client the fetcher uses.
type SolanaClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
}

// SolanaFetcher reads SOL and SPL token balances.
type SolanaFetcher struct {
	client SolanaClient
	cfg    Config
}

// NewSolanaFetcher creates a SolanaFetcher.
func NewSolanaFetcher(client SolanaClient, cfg Config) *SolanaFetcher {
	cfg = cfg.withDefaults()
	cfg.Log = cfg.Log.With().Str("component", "solana_fetcher").Logger()
	return &SolanaFetcher{client: client, cfg: cfg}
}

// parsedTokenAccount is the jsonParsed layout of an SPL token account.
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount   string `json:"amount"`
				Decimals int    `json:"decimals"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

type splHolding struct {
	mint     string
	account  solana.PublicKey
	amount   *big.Int
	decimals int
}

// Fetch implements Fetcher.
func (f *SolanaFetcher) Fetch(ctx context.Context, chain domain.Chain, wallet string) (*Holdings, error) {
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("invalid solana address %q: %w", wallet, err)
	}

	bal, err := f.client.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("getBalance: %w", err)
	}
	h := &Holdings{Native: nativeBalance(chain, FormatUnits(new(big.Int).SetUint64(bal.Value), chain.Decimals))}

	programID := solana.TokenProgramID
	accts, err := f.client.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner: %w", err)
	}

	// One entry per mint, amounts of several accounts summed.
	var order []string
	byMint := make(map[string]*splHolding)
	for _, acct := range accts.Value {
		if acct == nil || acct.Account == nil || acct.Account.Data == nil {
			continue
		}
		raw := acct.Account.Data.GetRawJSON()
		if raw == nil {
			continue
		}
		var parsed parsedTokenAccount
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}
		info := parsed.Parsed.Info
		amount, ok := new(big.Int).SetString(info.TokenAmount.Amount, 10)
		if info.Mint == "" || !ok || amount.Sign() <= 0 {
			continue
		}
		if cur, seen := byMint[info.Mint]; seen {
			cur.amount.Add(cur.amount, amount)
			continue
		}
		if len(order) == f.cfg.MaxTokens {
			continue
		}
		order = append(order, info.Mint)
		byMint[info.Mint] = &splHolding{
			mint:     info.Mint,
			account:  acct.Pubkey,
			amount:   amount,
			decimals: info.TokenAmount.Decimals,
		}
	}

	for _, mint := range order {
		hd := byMint[mint]
		tb := domain.TokenBalance{
			Chain:           chain.ID,
			ContractAddress: mint,
			Symbol:          shortMint(mint),
			Name:            shortMint(mint),
			Balance:         FormatUnits(hd.amount, hd.decimals),
			Decimals:        hd.decimals,
		}
		if f.cfg.DormancyProbe {
			tb.LastTransferAt = f.lastActivity(ctx, hd.account)
		}
		h.Tokens = append(h.Tokens, tb)
	}
	return h, nil
}

// lastActivity returns the block time of the newest signature touching a
// token account, in ms. Zero when unknown.
func (f *SolanaFetcher) lastActivity(ctx context.Context, account solana.PublicKey) int64 {
	limit := 1
	sigs, err := f.client.GetSignaturesForAddressWithOpts(ctx, account, &rpc.GetSignaturesForAddressOpts{Limit: &limit})
	if err != nil {
		f.cfg.Log.Debug().Err(err).Str("account", account.String()).Msg("dormancy probe failed")
		return 0
	}
	if len(sigs) == 0 || sigs[0].BlockTime == nil {
		return 0
	}
	return int64(*sigs[0].BlockTime) * 1000
}
