package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/classify"
	"github.com/renaobrien/elutio/internal/domain"
)

func TestDexScreener_HighestLiquidityPairWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/0xaa,0xbb", r.URL.Path)
		w.Write([]byte(`{"pairs":[
			{"baseToken":{"address":"0xAA"},"priceUsd":"1.10","liquidity":{"usd":5000}},
			{"baseToken":{"address":"0xaa"},"priceUsd":"1.02","liquidity":{"usd":250000}},
			{"baseToken":{"address":"0xaa"},"priceUsd":"0.90"},
			{"baseToken":{"address":"0xbb"},"priceUsd":"0"},
			{"baseToken":{"address":"0xzz"},"priceUsd":"5","liquidity":{"usd":1e9}}
		]}`))
	}))
	defer server.Close()

	got, err := NewDexScreener(WithBaseURL(server.URL)).Resolve(context.Background(), ethereum, []string{"0xaa", "0xbb"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.InDelta(t, 1.02, got["0xaa"].PriceUSD, 1e-12)
	require.NotNil(t, got["0xaa"].LiquidityUSD)
	assert.Equal(t, 250000.0, *got["0xaa"].LiquidityUSD)
	assert.Equal(t, domain.PriceSourceDexScreener, got["0xaa"].Source)
}

func TestDexScreener_BatchesOfThirty(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		addrs := strings.Split(strings.TrimPrefix(r.URL.Path, "/latest/dex/tokens/"), ",")
		assert.LessOrEqual(t, len(addrs), DexScreenerBatchSize)

		var pairs []string
		for _, a := range addrs {
			pairs = append(pairs, fmt.Sprintf(`{"baseToken":{"address":%q},"priceUsd":"2","liquidity":{"usd":10000}}`, a))
		}
		fmt.Fprintf(w, `{"pairs":[%s]}`, strings.Join(pairs, ","))
	}))
	defer server.Close()

	addrs := make([]string, 65)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("0x%04x", i)
	}

	got, err := NewDexScreener(WithBaseURL(server.URL)).Resolve(context.Background(), ethereum, addrs)
	require.NoError(t, err)
	assert.Len(t, got, 65)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDexScreener_FailedBatchIsPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "0x0000") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"pairs":[{"baseToken":{"address":"0x0030"},"priceUsd":"3"}]}`))
	}))
	defer server.Close()

	addrs := make([]string, 31)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("0x%04d", i)
	}

	got, err := NewDexScreener(WithBaseURL(server.URL)).Resolve(context.Background(), ethereum, addrs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 batches failed")
	assert.Len(t, got, 1)
	assert.Nil(t, got["0x0030"].LiquidityUSD)
}

// A token CoinGecko does not list falls through to DexScreener, which prices
// it through a $500 pool; the token is unsafe even though its balance value
// is far above the core threshold.
func TestResolver_IlliquidDexFallbackClassifiesUnsafe(t *testing.T) {
	var geckoCalls atomic.Int32
	gecko := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geckoCalls.Add(1)
		assert.Equal(t, "0xthin", r.URL.Query().Get("contract_addresses"))
		w.Write([]byte(`{}`))
	}))
	defer gecko.Close()

	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/0xthin", r.URL.Path)
		w.Write([]byte(`{"pairs":[{"baseToken":{"address":"0xthin"},"priceUsd":"50","liquidity":{"usd":500}}]}`))
	}))
	defer dex.Close()

	r := NewResolver(zerolog.Nop(),
		NewCoinGecko("", WithBaseURL(gecko.URL)),
		NewDexScreener(WithBaseURL(dex.URL)),
	)
	quotes := r.Resolve(context.Background(), ethereum, []string{"0xTHIN"})

	assert.Equal(t, int32(1), geckoCalls.Load())
	require.Contains(t, quotes, "0xthin")
	quote := quotes["0xthin"]
	assert.Equal(t, domain.PriceSourceDexScreener, quote.Source)
	require.NotNil(t, quote.LiquidityUSD)
	assert.InDelta(t, 500, *quote.LiquidityUSD, 1e-9)

	usd := 100 * quote.PriceUSD
	label := classify.New(classify.DefaultPolicy()).Classify(usd, "THIN", "Thin Token", true, quote.LiquidityUSD)
	assert.Equal(t, domain.ClassificationUnsafe, label)
}
