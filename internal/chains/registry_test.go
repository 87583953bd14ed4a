package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
)

func TestDefault_ContainsAllKinds(t *testing.T) {
	r := Default()

	eth, err := r.Get("ethereum")
	require.NoError(t, err)
	assert.Equal(t, domain.ChainKindEVM, eth.Kind)
	assert.Equal(t, "ethereum", eth.Platform)
	assert.Equal(t, 18, eth.Decimals)

	sol, err := r.Get("SOLANA")
	require.NoError(t, err)
	assert.Equal(t, domain.ChainKindSolana, sol.Kind)
	assert.Equal(t, 9, sol.Decimals)

	btc, err := r.Get("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, domain.ChainKindBitcoin, btc.Kind)
	assert.Empty(t, btc.Platform)

	uni, err := r.Get("unichain")
	require.NoError(t, err)
	assert.Empty(t, uni.Platform)

	assert.Equal(t, "ethereum", r.IDs()[0])
	assert.Len(t, r.IDs(), 13)
}

func TestRegistry_Get_Unknown(t *testing.T) {
	_, err := Default().Get("dogechain")
	assert.ErrorIs(t, err, ErrUnknownChain)
}

func TestRegistry_Resolve(t *testing.T) {
	r := Default()

	known, unknown := r.Resolve([]string{"base", "nope", "Ethereum", "base", ""})
	require.Len(t, known, 2)
	assert.Equal(t, "base", known[0].ID)
	assert.Equal(t, "ethereum", known[1].ID)
	assert.Equal(t, []string{"nope"}, unknown)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("- id: x\n  kind: cosmos\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("- id: a\n  kind: evm\n- id: A\n  kind: evm\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("- kind: evm\n"))
	assert.Error(t, err)
}

func TestChain_RPCEndpointAndNormalize(t *testing.T) {
	eth, err := Default().Get("ethereum")
	require.NoError(t, err)
	assert.Equal(t, "https://eth-mainnet.g.alchemy.com/v2/k123", eth.RPCEndpoint("k123"))
	assert.Equal(t, "0xabcdef", eth.NormalizeAddress(" 0xABCDEF "))

	sol, err := Default().Get("solana")
	require.NoError(t, err)
	assert.Equal(t, "So11111111111111111111111111111111111111112", sol.NormalizeAddress("So11111111111111111111111111111111111111112"))
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.ChainKind
		addr    string
		wantErr bool
	}{
		{"evm ok", domain.ChainKindEVM, "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", false},
		{"evm no prefix", domain.ChainKindEVM, "d8dA6BF26964aF9D7eEd9e03E53415D37aA96045", true},
		{"evm short", domain.ChainKindEVM, "0x1234", true},
		{"evm upper prefix", domain.ChainKindEVM, "0Xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", true},
		{"evm non hex", domain.ChainKindEVM, "0xg8dA6BF26964aF9D7eEd9e03E53415D37aA96045", true},
		{"solana ok", domain.ChainKindSolana, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", false},
		{"solana bad alphabet", domain.ChainKindSolana, "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl", true},
		{"solana wrong length", domain.ChainKindSolana, "111111111111111111111111111111111", true},
		{"bitcoin bech32", domain.ChainKindBitcoin, "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", false},
		{"bitcoin p2pkh", domain.ChainKindBitcoin, "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", false},
		{"bitcoin bad", domain.ChainKindBitcoin, "xyz", true},
		{"unknown kind", domain.ChainKind("cosmos"), "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.kind, tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
