package erc20

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const abiJSON = `[
	{
		"constant": false,
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

var (
	parsedABI abi.ABI
	parseOnce sync.Once
	parseErr  error
)

func contractABI() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(abiJSON))
	})
	return parsedABI, parseErr
}

// PackApprove encodes the calldata of approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	contract, err := contractABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract abi: %s", err)
	}
	data, err := contract.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("packing approve call: %s", err)
	}
	return data, nil
}

// PackBalanceOf encodes the calldata of balanceOf(owner).
func PackBalanceOf(owner common.Address) ([]byte, error) {
	contract, err := contractABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract abi: %s", err)
	}
	data, err := contract.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("packing balanceOf call: %s", err)
	}
	return data, nil
}

// PackAllowance encodes the calldata of allowance(owner, spender).
func PackAllowance(owner common.Address, spender common.Address) ([]byte, error) {
	contract, err := contractABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract abi: %s", err)
	}
	data, err := contract.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("packing allowance call: %s", err)
	}
	return data, nil
}

// UnpackAmount decodes the uint256 return value of balanceOf or allowance.
func UnpackAmount(method string, output []byte) (*big.Int, error) {
	contract, err := contractABI()
	if err != nil {
		return nil, fmt.Errorf("parsing contract abi: %s", err)
	}
	values, err := contract.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s output: %s", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s output length %d", method, len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type", method)
	}
	return amount, nil
}
