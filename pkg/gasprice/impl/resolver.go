package impl

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/chaingate/go-chaingate/pkg/gasprice"
	logger "github.com/rs/zerolog/log"
)

var log = logger.With().Str("component", "gasprice").Logger()

// CachedResolver resolves gas prices from an oracle with a TTL cache,
// falling back to the last stale quote when the oracle is down. A
// configured manual price bypasses the oracle entirely.
type CachedResolver struct {
	oracle gasprice.Oracle
	level  gasprice.Level
	ttl    time.Duration

	manualWei *big.Int

	mu        sync.Mutex
	cachedWei *big.Int
	fetchedAt time.Time

	metrics *resolverMetrics
}

var _ gasprice.Resolver = (*CachedResolver)(nil)

// NewCachedResolver creates a resolver that refreshes oracle quotes at
// most once per ttl. If manualWei is non-nil every call returns it and
// the oracle is never contacted.
func NewCachedResolver(
	oracle gasprice.Oracle,
	level gasprice.Level,
	ttl time.Duration,
	manualWei *big.Int,
) (*CachedResolver, error) {
	r := &CachedResolver{
		oracle:    oracle,
		level:     level,
		ttl:       ttl,
		manualWei: manualWei,
	}
	metrics, err := newResolverMetrics()
	if err != nil {
		return nil, fmt.Errorf("initializing metrics: %s", err)
	}
	r.metrics = metrics
	return r, nil
}

// GasPrice returns the gas price to use in the next transaction.
func (r *CachedResolver) GasPrice(ctx context.Context) (gasprice.Quote, error) {
	if r.manualWei != nil {
		return gasprice.Quote{
			Wei:       new(big.Int).Set(r.manualWei),
			Source:    gasprice.SourceManual,
			FetchedAt: time.Now(),
		}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedWei != nil && time.Since(r.fetchedAt) < r.ttl {
		return r.quoteLocked(), nil
	}

	wei, err := r.oracle.FetchPrice(ctx, r.level)
	if err != nil {
		r.metrics.mOracleFailures.Add(ctx, 1, r.metrics.baseLabels...)
		if r.cachedWei != nil {
			log.Warn().
				Err(err).
				Time("fetchedAt", r.fetchedAt).
				Msg("oracle fetch failed, serving stale quote")
			r.metrics.mStaleServed.Add(ctx, 1, r.metrics.baseLabels...)
			return r.quoteLocked(), nil
		}
		return gasprice.Quote{}, fmt.Errorf("%w: %s", gasprice.ErrUnavailable, err)
	}

	r.cachedWei = wei
	r.fetchedAt = time.Now()
	r.metrics.setLastPrice(wei)

	return r.quoteLocked(), nil
}

func (r *CachedResolver) quoteLocked() gasprice.Quote {
	return gasprice.Quote{
		Wei:       new(big.Int).Set(r.cachedWei),
		Source:    gasprice.SourceOracle,
		FetchedAt: r.fetchedAt,
	}
}
