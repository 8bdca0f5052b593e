package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/chaingate/go-chaingate/pkg/metrics"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"
)

// InstrumentedGateway implements an instrumented Gateway.
type InstrumentedGateway struct {
	gateway          Gateway
	callCount        instrument.Int64Counter
	latencyHistogram instrument.Int64Histogram
}

var _ (Gateway) = (*InstrumentedGateway)(nil)

// NewInstrumentedGateway creates a new InstrumentedGateway.
func NewInstrumentedGateway(gateway Gateway) (Gateway, error) {
	meter := global.MeterProvider().Meter("chaingate")
	callCount, err := meter.Int64Counter("chaingate.gateway.call.count")
	if err != nil {
		return &InstrumentedGateway{}, fmt.Errorf("registering call counter: %s", err)
	}
	latencyHistogram, err := meter.Int64Histogram("chaingate.gateway.call.latency")
	if err != nil {
		return &InstrumentedGateway{}, fmt.Errorf("registering latency histogram: %s", err)
	}

	return &InstrumentedGateway{gateway, callCount, latencyHistogram}, nil
}

// AllocateNonce implements gateway.Gateway.
func (g *InstrumentedGateway) AllocateNonce(ctx context.Context, privateKey string) (NonceResult, error) {
	start := time.Now()
	result, err := g.gateway.AllocateNonce(ctx, privateKey)
	g.record(ctx, "AllocateNonce", start, err)
	return result, err
}

// GetBalances implements gateway.Gateway.
func (g *InstrumentedGateway) GetBalances(
	ctx context.Context,
	privateKey string,
	symbols []string,
) (BalancesResult, error) {
	start := time.Now()
	result, err := g.gateway.GetBalances(ctx, privateKey, symbols)
	g.record(ctx, "GetBalances", start, err)
	return result, err
}

// GetAllowances implements gateway.Gateway.
func (g *InstrumentedGateway) GetAllowances(
	ctx context.Context,
	privateKey string,
	spender string,
	symbols []string,
) (AllowancesResult, error) {
	start := time.Now()
	result, err := g.gateway.GetAllowances(ctx, privateKey, spender, symbols)
	g.record(ctx, "GetAllowances", start, err)
	return result, err
}

// Approve implements gateway.Gateway.
func (g *InstrumentedGateway) Approve(ctx context.Context, params ApproveParams) (ApprovalResult, error) {
	start := time.Now()
	result, err := g.gateway.Approve(ctx, params)
	g.record(ctx, "Approve", start, err)
	return result, err
}

// PollTransaction implements gateway.Gateway.
func (g *InstrumentedGateway) PollTransaction(ctx context.Context, hash common.Hash) (TxStatusResult, error) {
	start := time.Now()
	result, err := g.gateway.PollTransaction(ctx, hash)
	g.record(ctx, "PollTransaction", start, err)
	return result, err
}

func (g *InstrumentedGateway) record(ctx context.Context, method string, start time.Time, err error) {
	latency := time.Since(start).Milliseconds()

	attributes := append([]attribute.KeyValue{
		{Key: "method", Value: attribute.StringValue(method)},
		{Key: "success", Value: attribute.BoolValue(err == nil)},
	}, metrics.BaseAttrs...)

	g.callCount.Add(ctx, 1, attributes...)
	g.latencyHistogram.Record(ctx, latency, attributes...)
}
