package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
)

func TestCoinGecko_ResolveTokenPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/token_price/ethereum", r.URL.Path)
		assert.Equal(t, "0xa0b8,0x1f98,0xdead", r.URL.Query().Get("contract_addresses"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		w.Write([]byte(`{"0xa0b8":{"usd":1.0002},"0x1f98":{"usd":7.4},"0xdead":{}}`))
	}))
	defer server.Close()

	cg := NewCoinGecko("demo-key", WithBaseURL(server.URL))
	got, err := cg.Resolve(context.Background(), ethereum, []string{"0xa0b8", "0x1f98", "0xdead"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.InDelta(t, 1.0002, got["0xa0b8"].PriceUSD, 1e-12)
	assert.Equal(t, domain.PriceSourceCoinGecko, got["0x1f98"].Source)
	assert.Nil(t, got["0x1f98"].LiquidityUSD)
}

func TestCoinGecko_ProKeyHeader(t *testing.T) {
	cg := NewCoinGecko("pro-key", WithBaseURL("https://pro-api.coingecko.com/api/v3/"))
	assert.Equal(t, "pro-key", cg.headers["x-cg-pro-api-key"])
	assert.Empty(t, cg.headers["x-cg-demo-api-key"])
	assert.Equal(t, CoinGeckoProURL, cg.baseURL)
}

func TestCoinGecko_NoPlatformSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	unichain := domain.Chain{ID: "unichain", Kind: domain.ChainKindEVM}
	got, err := NewCoinGecko("", WithBaseURL(server.URL)).Resolve(context.Background(), unichain, []string{"0xaa"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, calls.Load())
}

func TestCoinGecko_SolanaMintCase(t *testing.T) {
	mint := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"epjfwdd5aufqssqem2qn1xzybapc8g4weggkzwytdt1v":{"usd":1}}`))
	}))
	defer server.Close()

	got, err := NewCoinGecko("", WithBaseURL(server.URL)).Resolve(context.Background(), solana, []string{mint})
	require.NoError(t, err)
	assert.Contains(t, got, mint)
}

func TestCoinGecko_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewCoinGecko("", WithBaseURL(server.URL)).Resolve(context.Background(), ethereum, []string{"0xaa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCoinGecko_NativePrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "ethereum", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"ethereum":{"usd":3120.55}}`))
	}))
	defer server.Close()

	got, err := NewCoinGecko("", WithBaseURL(server.URL)).NativePrices(context.Background(), []string{"ethereum"})
	require.NoError(t, err)
	assert.InDelta(t, 3120.55, got["ethereum"], 1e-9)
}
