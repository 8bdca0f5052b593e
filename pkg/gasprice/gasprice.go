package gasprice

import (
	"context"
	"errors"
	"math/big"
	"time"
)

// ErrUnavailable indicates that no gas price could be produced, neither
// fresh from the oracle nor from a previously cached quote.
var ErrUnavailable = errors.New("gas price unavailable")

// Level selects the oracle speed tier.
type Level string

// Available speed tiers.
const (
	LevelSafeLow Level = "safeLow"
	LevelAverage Level = "average"
	LevelFast    Level = "fast"
)

// Source tells where a quote came from.
type Source string

// Quote sources.
const (
	SourceManual Source = "manual"
	SourceOracle Source = "oracle"
)

// Quote is a gas price with its provenance.
type Quote struct {
	Wei       *big.Int
	Source    Source
	FetchedAt time.Time
}

// Oracle fetches current gas prices from an external service.
type Oracle interface {
	FetchPrice(ctx context.Context, level Level) (*big.Int, error)
}

// Resolver produces the gas price to be used in the next transaction.
type Resolver interface {
	GasPrice(ctx context.Context) (Quote, error)
}
