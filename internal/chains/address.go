package chains

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"github.com/renaobrien/elutio/internal/domain"
)

var (
	solanaAddressRe  = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
	bitcoinAddressRe = regexp.MustCompile(`^(bc1|[13])[a-zA-HJ-NP-Z0-9]{25,62}$`)
)

// ValidateAddress checks a wallet address against the rules of a chain kind.
func ValidateAddress(kind domain.ChainKind, addr string) error {
	switch kind {
	case domain.ChainKindEVM:
		// IsHexAddress also accepts a bare or 0X prefix.
		if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid EVM address")
		}
	case domain.ChainKindSolana:
		if !solanaAddressRe.MatchString(addr) {
			return fmt.Errorf("invalid Solana address")
		}
		raw, err := base58.Decode(addr)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("invalid Solana address")
		}
	case domain.ChainKindBitcoin:
		if !bitcoinAddressRe.MatchString(addr) {
			return fmt.Errorf("invalid Bitcoin address")
		}
	default:
		return fmt.Errorf("unsupported chain kind %q", kind)
	}
	return nil
}
