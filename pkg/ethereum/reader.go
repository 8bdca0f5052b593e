package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chaingate/go-chaingate/pkg/erc20"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// Reader runs read-only ERC20 queries through eth_call.
type Reader struct {
	client *Client
}

// NewReader creates a reader over client.
func NewReader(client *Client) *Reader {
	return &Reader{client: client}
}

// BalanceOf returns the token balance of owner.
func (r *Reader) BalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	calldata, err := erc20.PackBalanceOf(owner)
	if err != nil {
		return nil, fmt.Errorf("packing balanceOf calldata: %s", err)
	}

	output, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: calldata})
	if err != nil {
		return nil, err
	}

	balance, err := erc20.UnpackAmount("balanceOf", output)
	if err != nil {
		return nil, fmt.Errorf("decoding balanceOf output: %s", err)
	}
	return balance, nil
}

// Allowance returns how much spender may spend on behalf of owner.
func (r *Reader) Allowance(
	ctx context.Context,
	token common.Address,
	owner common.Address,
	spender common.Address,
) (*big.Int, error) {
	calldata, err := erc20.PackAllowance(owner, spender)
	if err != nil {
		return nil, fmt.Errorf("packing allowance calldata: %s", err)
	}

	output, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: calldata})
	if err != nil {
		return nil, err
	}

	allowance, err := erc20.UnpackAmount("allowance", output)
	if err != nil {
		return nil, fmt.Errorf("decoding allowance output: %s", err)
	}
	return allowance, nil
}

// NativeBalance returns the chain-native balance of owner in wei.
func (r *Reader) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return r.client.BalanceAt(ctx, owner)
}
