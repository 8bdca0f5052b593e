package impl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chaingate/go-chaingate/pkg/nonce"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/instrument"
)

var log = logger.With().Str("component", "nonce").Logger()

// LocalTracker keeps per-address nonce counters in memory. Counters are
// lazily initialized from the network on the first GetNonce for an
// address and advance locally afterwards.
type LocalTracker struct {
	chainID     int64
	chainClient nonce.ChainClient

	mu       sync.Mutex
	accounts map[common.Address]*account

	pendingMu  sync.Mutex
	pendingTxs map[common.Hash]nonce.PendingTx

	// metrics
	mBaseLabels   []attribute.KeyValue
	mNoncesHanded instrument.Int64Counter
	mNetworkSyncs instrument.Int64Counter
}

type account struct {
	mu          sync.Mutex
	initialized bool
	nextNonce   int64
}

// NewLocalTracker creates a tracker for the given chain.
func NewLocalTracker(chainID int64, chainClient nonce.ChainClient) (*LocalTracker, error) {
	t := &LocalTracker{
		chainID:     chainID,
		chainClient: chainClient,
		accounts:    map[common.Address]*account{},
		pendingTxs:  map[common.Hash]nonce.PendingTx{},
	}
	if err := t.initMetrics(chainID); err != nil {
		return nil, fmt.Errorf("initializing metrics: %s", err)
	}
	return t, nil
}

// GetNonce returns the next nonce for address and advances the counter.
func (t *LocalTracker) GetNonce(ctx context.Context, address common.Address) (int64, error) {
	acc := t.account(address)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	if !acc.initialized {
		networkNonce, err := t.chainClient.PendingNonceAt(ctx, address)
		if err != nil {
			return 0, fmt.Errorf("get pending nonce at: %w", err)
		}
		acc.nextNonce = int64(networkNonce)
		acc.initialized = true
		t.mNetworkSyncs.Add(ctx, 1, t.mBaseLabels...)

		log.Info().
			Str("address", address.Hex()).
			Int64("nonce", acc.nextNonce).
			Msg("initialized nonce from network")
	}

	n := acc.nextNonce
	acc.nextNonce++
	t.mNoncesHanded.Add(ctx, 1, t.mBaseLabels...)

	return n, nil
}

// RegisterPendingTx records a broadcasted tx for bookkeeping.
func (t *LocalTracker) RegisterPendingTx(address common.Address, n int64, hash common.Hash) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()

	t.pendingTxs[hash] = nonce.PendingTx{
		ChainID:   t.chainID,
		Hash:      hash,
		Nonce:     n,
		Address:   address,
		CreatedAt: time.Now(),
	}
}

// DiscardPendingTx removes a tx after a terminal receipt was seen.
func (t *LocalTracker) DiscardPendingTx(hash common.Hash) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	delete(t.pendingTxs, hash)
}

// GetPendingCount returns the number of pending txs across all addresses.
func (t *LocalTracker) GetPendingCount(_ context.Context) int {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	return len(t.pendingTxs)
}

// Resync drops the cached counter so the next GetNonce re-queries the network.
func (t *LocalTracker) Resync(_ context.Context, address common.Address) error {
	acc := t.account(address)

	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.initialized = false

	log.Info().Str("address", address.Hex()).Msg("nonce counter dropped, will resync from network")
	return nil
}

func (t *LocalTracker) account(address common.Address) *account {
	t.mu.Lock()
	defer t.mu.Unlock()

	acc, ok := t.accounts[address]
	if !ok {
		acc = &account{}
		t.accounts[address] = acc
	}
	return acc
}
