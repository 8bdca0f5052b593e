package ethereum

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the node api the gateway needs. It's satisfied by
// *ethclient.Client and by the simulated backend used in tests.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Client wraps a Backend translating failures into typed errors.
type Client struct {
	backend Backend
}

// NewClient creates a client over backend.
func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// PendingNonceAt returns the account nonce including pending txs.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, &ChainQueryError{Op: "pending nonce at", Err: err}
	}
	return nonce, nil
}

// TransactionReceipt looks up a receipt by hash. The second return
// value is false when the tx isn't mined yet.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, bool, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, false, nil
		}
		return nil, false, &ChainQueryError{Op: "transaction receipt", Err: err}
	}
	return receipt, true, nil
}

// SendTransaction broadcasts a signed tx.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return &BroadcastError{Err: err}
	}
	return nil
}

// CallContract executes a read-only contract call.
func (c *Client) CallContract(ctx context.Context, call ethereum.CallMsg) ([]byte, error) {
	output, err := c.backend.CallContract(ctx, call, nil)
	if err != nil {
		return nil, &ChainQueryError{Op: "call contract", Err: err}
	}
	return output, nil
}

// BalanceAt returns the native balance of account at the latest block.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, &ChainQueryError{Op: "balance at", Err: err}
	}
	return balance, nil
}

// SuggestGasPrice asks the node for a gas price.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &ChainQueryError{Op: "suggest gas price", Err: err}
	}
	return price, nil
}
