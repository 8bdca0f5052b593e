package impl

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chaingate/go-chaingate/pkg/metrics"
	"go.uber.org/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
)

type resolverMetrics struct {
	baseLabels []attribute.KeyValue

	mOracleFailures instrument.Int64Counter
	mStaleServed    instrument.Int64Counter

	lastPriceWei atomic.Int64
}

func newResolverMetrics() (*resolverMetrics, error) {
	m := &resolverMetrics{
		baseLabels: append([]attribute.KeyValue{}, metrics.BaseAttrs...),
	}

	meter := global.MeterProvider().Meter("chaingate")

	var err error
	m.mOracleFailures, err = meter.Int64Counter("chaingate.gasprice.oracle.failures")
	if err != nil {
		return nil, fmt.Errorf("creating oracle failures metric: %s", err)
	}
	m.mStaleServed, err = meter.Int64Counter("chaingate.gasprice.stale.served")
	if err != nil {
		return nil, fmt.Errorf("creating stale served metric: %s", err)
	}

	mLastPrice, err := meter.Int64ObservableGauge("chaingate.gasprice.last.wei")
	if err != nil {
		return nil, fmt.Errorf("creating last price metric: %s", err)
	}

	if _, err := meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(mLastPrice, m.lastPriceWei.Load(), m.baseLabels...)
			return nil
		}, []instrument.Asynchronous{
			mLastPrice,
		}...); err != nil {
		return nil, fmt.Errorf("registering async metric callback: %s", err)
	}

	return m, nil
}

func (m *resolverMetrics) setLastPrice(wei *big.Int) {
	if wei.IsInt64() {
		m.lastPriceWei.Store(wei.Int64())
	}
}
