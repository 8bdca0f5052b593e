package impl

import (
	"context"
	"fmt"

	"github.com/chaingate/go-chaingate/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
)

func (t *LocalTracker) initMetrics(chainID int64) error {
	meter := global.MeterProvider().Meter("chaingate")
	t.mBaseLabels = append([]attribute.KeyValue{
		attribute.Int64("chain_id", chainID),
	}, metrics.BaseAttrs...)

	var err error
	t.mNoncesHanded, err = meter.Int64Counter("chaingate.noncetracker.nonces.handed")
	if err != nil {
		return fmt.Errorf("creating nonces handed metric: %s", err)
	}
	t.mNetworkSyncs, err = meter.Int64Counter("chaingate.noncetracker.network.syncs")
	if err != nil {
		return fmt.Errorf("creating network syncs metric: %s", err)
	}

	mPendingTxns, err := meter.Int64ObservableGauge("chaingate.noncetracker.pending.txns")
	if err != nil {
		return fmt.Errorf("creating pending txns metric: %s", err)
	}
	mTrackedAddresses, err := meter.Int64ObservableGauge("chaingate.noncetracker.tracked.addresses")
	if err != nil {
		return fmt.Errorf("creating tracked addresses metric: %s", err)
	}

	if _, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			t.pendingMu.Lock()
			pendingCount := int64(len(t.pendingTxs))
			t.pendingMu.Unlock()

			t.mu.Lock()
			addressCount := int64(len(t.accounts))
			t.mu.Unlock()

			o.ObserveInt64(mPendingTxns, pendingCount, t.mBaseLabels...)
			o.ObserveInt64(mTrackedAddresses, addressCount, t.mBaseLabels...)

			return nil
		}, []instrument.Asynchronous{
			mPendingTxns,
			mTrackedAddresses,
		}...); err != nil {
		return fmt.Errorf("registering async metric callback: %s", err)
	}

	return nil
}
