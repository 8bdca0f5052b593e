package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestReaderBalanceOf(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendMock{
		callOutput: common.BigToHash(big.NewInt(1500000)).Bytes(),
	}
	reader := NewReader(NewClient(backend))

	balance, err := reader.BalanceOf(
		ctx,
		common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e"),
		common.HexToAddress("0xd43c59d5694ec111eb9e986c233200b14249558d"),
	)
	require.NoError(t, err)
	require.Equal(t, "1500000", balance.String())
}

func TestReaderAllowance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendMock{
		callOutput: common.BigToHash(big.NewInt(42)).Bytes(),
	}
	reader := NewReader(NewClient(backend))

	allowance, err := reader.Allowance(
		ctx,
		common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e"),
		common.HexToAddress("0xd43c59d5694ec111eb9e986c233200b14249558d"),
		common.HexToAddress("0xb2f1c0f1b1a0e6c1a6a4d1c4b9e3f1d2a0b1c2d3"),
	)
	require.NoError(t, err)
	require.Equal(t, "42", allowance.String())
}

func TestReaderNativeBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	owner := common.HexToAddress("0xd43c59d5694ec111eb9e986c233200b14249558d")
	backend := &backendMock{
		balances: map[common.Address]*big.Int{
			owner: big.NewInt(1000000000000000000),
		},
	}
	reader := NewReader(NewClient(backend))

	balance, err := reader.NativeBalance(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", balance.String())
}
