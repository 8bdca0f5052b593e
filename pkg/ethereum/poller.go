package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Status is the confirmation state of a transaction.
type Status string

// Transaction confirmation states.
const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// Outcome is a snapshot of a transaction's state at poll time.
type Outcome struct {
	Status      Status
	BlockNumber *big.Int
	GasUsed     uint64
	Logs        []*types.Log
	Reason      string
}

// Poller resolves transaction confirmation state with a single
// receipt lookup. It holds no state between calls.
type Poller struct {
	client *Client
}

// NewPoller creates a poller over client.
func NewPoller(client *Client) *Poller {
	return &Poller{client: client}
}

// Poll looks up the receipt for hash once and maps it to an outcome.
// A missing receipt means the tx is still pending.
func (p *Poller) Poll(ctx context.Context, hash common.Hash) (Outcome, error) {
	receipt, found, err := p.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		return Outcome{Status: StatusPending}, nil
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		return Outcome{
			Status:      StatusConfirmed,
			BlockNumber: receipt.BlockNumber,
			GasUsed:     receipt.GasUsed,
			Logs:        receipt.Logs,
		}, nil
	}

	return Outcome{
		Status:      StatusFailed,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
		Reason:      "transaction reverted",
	}, nil
}
