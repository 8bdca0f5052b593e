package chains

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network describes the chain the gateway operates on.
type Network struct {
	Name    string
	ChainID int64

	// Routers maps well-known DEX integration names to their router
	// contract address on this chain.
	Routers map[string]common.Address
}

// Spender is a resolved approval target.
type Spender struct {
	// Integration is the DEX name when the spender was given by name,
	// empty when it was a literal address.
	Integration string
	Address     common.Address
}

// ParseSpender resolves a spender given either as a known integration
// name or as a literal hex address.
func (n Network) ParseSpender(raw string) (Spender, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spender{}, fmt.Errorf("empty spender")
	}

	if name := strings.ToLower(raw); n.Routers != nil {
		if address, ok := n.Routers[name]; ok {
			return Spender{Integration: name, Address: address}, nil
		}
	}

	if !common.IsHexAddress(raw) {
		return Spender{}, fmt.Errorf("spender %q is neither a known integration nor a hex address", raw)
	}
	return Spender{Address: common.HexToAddress(raw)}, nil
}
