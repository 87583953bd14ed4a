package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
)

type stubNative struct {
	prices map[string]float64
	calls  int
}

func (s *stubNative) NativePrices(_ context.Context, ids []string) (map[string]float64, error) {
	s.calls++
	out := make(map[string]float64)
	for _, id := range ids {
		if p, ok := s.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func TestCached_HitsSkipInner(t *testing.T) {
	inner := &fakeStrategy{name: "inner", quotes: map[string]domain.Quote{"0xaa": {PriceUSD: 1}}}
	c := NewCached(inner, 16, time.Minute)

	first, err := c.Resolve(context.Background(), ethereum, []string{"0xaa", "0xbb"})
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := c.Resolve(context.Background(), ethereum, []string{"0xaa", "0xbb"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, inner.calls, 2)
	assert.Equal(t, []string{"0xbb"}, inner.calls[1], "cached address must not be refetched")
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, "inner", c.Name())
}

func TestCached_KeyedByChain(t *testing.T) {
	inner := &fakeStrategy{name: "inner", quotes: map[string]domain.Quote{"0xaa": {PriceUSD: 1}}}
	c := NewCached(inner, 16, time.Minute)

	_, _ = c.Resolve(context.Background(), ethereum, []string{"0xaa"})
	_, _ = c.Resolve(context.Background(), domain.Chain{ID: "base", Kind: domain.ChainKindEVM}, []string{"0xaa"})
	assert.Len(t, inner.calls, 2)
}

func TestNativePricer_Caches(t *testing.T) {
	src := &stubNative{prices: map[string]float64{"ethereum": 3000}}
	p := NewNativePricer(src, time.Minute)
	eth := domain.Chain{ID: "ethereum", NativeCoinGeckoID: "ethereum"}

	for i := 0; i < 3; i++ {
		v, err := p.NativePrice(context.Background(), eth)
		require.NoError(t, err)
		assert.Equal(t, 3000.0, v)
	}
	assert.Equal(t, 1, src.calls)

	v, err := p.NativePrice(context.Background(), domain.Chain{ID: "x"})
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.Equal(t, 1, src.calls)
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(1000, 1, "test")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}

	slow := NewLimiter(0.001, 1, "test")
	require.NoError(t, slow.Wait(ctx))
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, slow.Wait(canceled), context.Canceled)

	var nilLimiter *Limiter
	assert.NoError(t, nilLimiter.Wait(ctx))
}
