package nonce

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PendingTx represents a broadcasted tx whose receipt hasn't been seen yet.
type PendingTx struct {
	ChainID   int64
	Hash      common.Hash
	Nonce     int64
	Address   common.Address
	CreatedAt time.Time
}

// NonceTracker hands out sequential nonces per address.
type NonceTracker interface {
	// GetNonce returns the next nonce for address and advances the
	// internal counter. A consumed nonce is never handed out again,
	// even if the caller fails to broadcast a transaction with it.
	GetNonce(ctx context.Context, address common.Address) (int64, error)

	// RegisterPendingTx records a broadcasted tx for bookkeeping.
	RegisterPendingTx(address common.Address, nonce int64, hash common.Hash)

	// DiscardPendingTx removes a tx after a terminal receipt was seen.
	DiscardPendingTx(hash common.Hash)

	// GetPendingCount returns the number of pending txs across all addresses.
	GetPendingCount(ctx context.Context) int

	// Resync drops the cached counter for address so the next GetNonce
	// re-queries the network.
	Resync(ctx context.Context, address common.Address) error
}

// ChainClient provides the chain api a NonceTracker needs.
type ChainClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}
