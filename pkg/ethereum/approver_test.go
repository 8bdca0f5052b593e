package ethereum

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/chaingate/go-chaingate/pkg/gasprice"
	gaspriceimpl "github.com/chaingate/go-chaingate/pkg/gasprice/impl"
	nonceimpl "github.com/chaingate/go-chaingate/pkg/nonce/impl"
	"github.com/chaingate/go-chaingate/pkg/tokens"
	"github.com/chaingate/go-chaingate/pkg/wallet"
	"github.com/chaingate/go-chaingate/tests"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestApproveAndPoll(t *testing.T) {
	ctx := context.Background()
	chain := tests.NewSimulatedChain(t)

	key := chain.CreateAccountWithBalance(t)
	w, err := wallet.NewWallet(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	client := NewClient(chain.Backend)
	tracker, err := nonceimpl.NewLocalTracker(chain.ChainID, client)
	require.NoError(t, err)

	suggested, err := chain.Backend.SuggestGasPrice(ctx)
	require.NoError(t, err)
	resolver, err := gaspriceimpl.NewCachedResolver(nil, gasprice.LevelFast, time.Minute, suggested)
	require.NoError(t, err)

	approver := NewApprover(client, tracker, resolver, chain.ChainID, 60000)

	token := common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e")
	spender := common.HexToAddress("0xb2f1c0f1b1a0e6c1a6a4d1c4b9e3f1d2a0b1c2d3")

	result, err := approver.Approve(ctx, ApproveRequest{
		Wallet:  w,
		Token:   token,
		Spender: spender,
		Amount:  tokens.MaxApproval,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), result.Nonce)
	require.Equal(t, 1, tracker.GetPendingCount(ctx))

	poller := NewPoller(client)

	// Not mined yet.
	outcome, err := poller.Poll(ctx, result.Hash)
	require.NoError(t, err)
	require.Equal(t, StatusPending, outcome.Status)

	chain.Backend.Commit()

	outcome, err = poller.Poll(ctx, result.Hash)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, outcome.Status)
	require.NotNil(t, outcome.BlockNumber)
	require.NotZero(t, outcome.GasUsed)

	// A second approval advances the nonce.
	result2, err := approver.Approve(ctx, ApproveRequest{
		Wallet:  w,
		Token:   token,
		Spender: spender,
		Amount:  big.NewInt(1000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), result2.Nonce)
}

func TestApproveWithNonceOverride(t *testing.T) {
	ctx := context.Background()
	chain := tests.NewSimulatedChain(t)

	key := chain.CreateAccountWithBalance(t)
	w, err := wallet.NewWallet(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	client := NewClient(chain.Backend)
	tracker, err := nonceimpl.NewLocalTracker(chain.ChainID, client)
	require.NoError(t, err)

	suggested, err := chain.Backend.SuggestGasPrice(ctx)
	require.NoError(t, err)
	resolver, err := gaspriceimpl.NewCachedResolver(nil, gasprice.LevelFast, time.Minute, suggested)
	require.NoError(t, err)

	approver := NewApprover(client, tracker, resolver, chain.ChainID, 60000)

	override := int64(0)
	result, err := approver.Approve(ctx, ApproveRequest{
		Wallet:        w,
		Token:         common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e"),
		Spender:       common.HexToAddress("0xb2f1c0f1b1a0e6c1a6a4d1c4b9e3f1d2a0b1c2d3"),
		Amount:        tokens.MaxApproval,
		NonceOverride: &override,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), result.Nonce)
}

func TestApproveRetriesOnNonceTooLow(t *testing.T) {
	ctx := context.Background()

	backend := &backendMock{
		pendingNonce: 3,
		sendErrs:     []error{errors.New("nonce too low")},
	}
	client := NewClient(backend)
	tracker, err := nonceimpl.NewLocalTracker(1337, client)
	require.NoError(t, err)

	resolver, err := gaspriceimpl.NewCachedResolver(nil, gasprice.LevelFast, time.Minute, big.NewInt(1_000_000_000))
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w, err := wallet.NewWallet(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	approver := NewApprover(client, tracker, resolver, 1337, 60000)

	// Warm up the tracker at nonce 3, then move the network ahead
	// behind its back.
	n, err := tracker.GetNonce(ctx, w.Address())
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	backend.pendingNonce = 7

	// The stale broadcast is rejected. The tracker must resync from
	// the network and the retry succeed with the refreshed nonce.
	result, err := approver.Approve(ctx, ApproveRequest{
		Wallet:  w,
		Token:   common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e"),
		Spender: common.HexToAddress("0xb2f1c0f1b1a0e6c1a6a4d1c4b9e3f1d2a0b1c2d3"),
		Amount:  tokens.MaxApproval,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), result.Nonce)
	require.Equal(t, 2, backend.sendCalls)
}

func TestApproveGasPriceUnavailable(t *testing.T) {
	ctx := context.Background()

	backend := &backendMock{}
	client := NewClient(backend)
	tracker, err := nonceimpl.NewLocalTracker(1337, client)
	require.NoError(t, err)

	resolver, err := gaspriceimpl.NewCachedResolver(&failingOracle{}, gasprice.LevelFast, time.Minute, nil)
	require.NoError(t, err)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w, err := wallet.NewWallet(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	approver := NewApprover(client, tracker, resolver, 1337, 60000)

	_, err = approver.Approve(ctx, ApproveRequest{
		Wallet:  w,
		Token:   common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e"),
		Spender: common.HexToAddress("0xb2f1c0f1b1a0e6c1a6a4d1c4b9e3f1d2a0b1c2d3"),
		Amount:  tokens.MaxApproval,
	})
	require.ErrorIs(t, err, gasprice.ErrUnavailable)
	require.Zero(t, backend.sendCalls)
}

func TestPollFailedTx(t *testing.T) {
	ctx := context.Background()

	backend := &backendMock{
		receipts: map[common.Hash]*types.Receipt{
			common.HexToHash("0x01"): {
				Status:      types.ReceiptStatusFailed,
				BlockNumber: big.NewInt(10),
				GasUsed:     21000,
			},
		},
	}
	poller := NewPoller(NewClient(backend))

	outcome, err := poller.Poll(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, StatusFailed, outcome.Status)
	require.Equal(t, "transaction reverted", outcome.Reason)
	require.Equal(t, int64(10), outcome.BlockNumber.Int64())
}

type failingOracle struct{}

func (o *failingOracle) FetchPrice(ctx context.Context, level gasprice.Level) (*big.Int, error) {
	return nil, errors.New("oracle down")
}
