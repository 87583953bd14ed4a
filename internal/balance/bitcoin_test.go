package balance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/jsonrpc"
)

var btcChain = domain.Chain{ID: "bitcoin", Kind: domain.ChainKindBitcoin, NativeSymbol: "BTC", NativeName: "Bitcoin", Decimals: 8}

func btcNode(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
			Params []any  `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		assert.Equal(t, "getBalance", req.Method)
		assert.Equal(t, []any{"bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"}, req.Params)
		w.Write([]byte(`{"jsonrpc":"2.0","id":` + jsonNumber(req.ID) + `,"result":` + result + `}`))
	}))
}

func jsonNumber(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestBitcoinFetcher_ResultShapes(t *testing.T) {
	tests := []struct {
		name   string
		result string
		want   string
	}{
		{"wrapped", `{"value":150000000}`, "1.5"},
		{"bare", `2500`, "0.000025"},
		{"null", `null`, "0"},
		{"missing value", `{}`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := btcNode(t, tt.result)
			defer server.Close()

			f := NewBitcoinFetcher(jsonrpc.NewClient(server.URL))
			h, err := f.Fetch(context.Background(), btcChain, "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh")
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Native.Balance)
			assert.Equal(t, "BTC", h.Native.Symbol)
			assert.Empty(t, h.Tokens)
		})
	}
}

func TestParseSatoshis_Invalid(t *testing.T) {
	_, err := parseSatoshis(json.RawMessage(`"abc"`))
	assert.Error(t, err)
	_, err = parseSatoshis(json.RawMessage(`-5`))
	assert.Error(t, err)
}
