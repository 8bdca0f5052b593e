package tokens

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnknownToken is returned when a symbol isn't present in the registry.
var ErrUnknownToken = errors.New("unknown token symbol")

// Token describes an ERC20 contract the gateway knows about.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

// Registry maps case-insensitive symbols to token definitions.
type Registry struct {
	tokens map[string]Token
}

// NewRegistry creates a registry from the provided token list.
// Symbols must be unique ignoring case.
func NewRegistry(list []Token) (*Registry, error) {
	tokens := make(map[string]Token, len(list))
	for _, t := range list {
		symbol := strings.ToUpper(t.Symbol)
		if symbol == "" {
			return nil, errors.New("token with empty symbol")
		}
		if _, ok := tokens[symbol]; ok {
			return nil, fmt.Errorf("duplicated token symbol %s", symbol)
		}
		if t.Decimals < 0 || t.Decimals > 77 {
			return nil, fmt.Errorf("token %s has invalid decimals %d", symbol, t.Decimals)
		}
		t.Symbol = symbol
		tokens[symbol] = t
	}
	return &Registry{tokens: tokens}, nil
}

// Lookup returns the token registered under symbol.
func (r *Registry) Lookup(symbol string) (Token, error) {
	t, ok := r.tokens[strings.ToUpper(symbol)]
	if !ok {
		return Token{}, fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return t, nil
}

// List returns every registered token.
func (r *Registry) List() []Token {
	list := make([]Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		list = append(list, t)
	}
	return list
}
