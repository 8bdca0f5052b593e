package gateway

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/chaingate/go-chaingate/internal/chains"
	goeth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/chaingate/go-chaingate/pkg/ethereum"
	"github.com/chaingate/go-chaingate/pkg/gasprice"
	gaspriceimpl "github.com/chaingate/go-chaingate/pkg/gasprice/impl"
	nonceimpl "github.com/chaingate/go-chaingate/pkg/nonce/impl"
	"github.com/chaingate/go-chaingate/pkg/tokens"
)

func TestAllocateNonce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newTestGateway(t, &backendStub{pendingNonce: 4})
	key := newKey(t)

	result, err := svc.AllocateNonce(ctx, key)
	require.NoError(t, err)
	require.Equal(t, int64(4), result.Nonce)
	require.True(t, common.IsHexAddress(result.Address))

	// A second allocation advances the counter.
	result, err = svc.AllocateNonce(ctx, key)
	require.NoError(t, err)
	require.Equal(t, int64(5), result.Nonce)

	_, err = svc.AllocateNonce(ctx, "nothex")
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestGetBalances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendStub{
		callOutput: common.BigToHash(big.NewInt(1500000)).Bytes(),
		balance:    big.NewInt(2000000000000000000),
	}
	svc, _ := newTestGateway(t, backend)

	result, err := svc.GetBalances(ctx, newKey(t), []string{"usdc", "ETH"})
	require.NoError(t, err)
	require.Len(t, result.Balances, 2)
	require.Equal(t, TokenAmount{Symbol: "USDC", Amount: "1.5"}, result.Balances[0])
	require.Equal(t, TokenAmount{Symbol: "ETH", Amount: "2"}, result.Balances[1])
}

func TestGetBalancesUnknownTokenFailsWholeBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendStub{callOutput: common.BigToHash(big.NewInt(1)).Bytes()}
	svc, _ := newTestGateway(t, backend)

	_, err := svc.GetBalances(ctx, newKey(t), []string{"USDC", "WBTC"})
	require.ErrorIs(t, err, tokens.ErrUnknownToken)
	// The unknown symbol must be rejected before any chain read.
	require.Zero(t, backend.callCalls)
}

func TestGetAllowancesUnknownTokenFailsWholeBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendStub{callOutput: common.BigToHash(big.NewInt(1)).Bytes()}
	svc, _ := newTestGateway(t, backend)

	_, err := svc.GetAllowances(ctx, newKey(t), "uniswap", []string{"USDC", "WBTC"})
	require.ErrorIs(t, err, tokens.ErrUnknownToken)
	require.Zero(t, backend.callCalls)
}

func TestGetAllowances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendStub{callOutput: common.BigToHash(big.NewInt(42000000)).Bytes()}
	svc, _ := newTestGateway(t, backend)

	result, err := svc.GetAllowances(ctx, newKey(t), "uniswap", []string{"USDC"})
	require.NoError(t, err)
	require.Equal(t, routerAddr.Hex(), result.Spender)
	require.Equal(t, TokenAmount{Symbol: "USDC", Amount: "42"}, result.Allowances[0])

	_, err = svc.GetAllowances(ctx, newKey(t), "not-a-spender", []string{"USDC"})
	require.ErrorIs(t, err, ErrInvalidSpender)
}

func TestApprove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendStub{}
	svc, _ := newTestGateway(t, backend)

	result, err := svc.Approve(ctx, ApproveParams{
		PrivateKey: newKey(t),
		Spender:    "uniswap",
		Token:      "USDC",
		Amount:     "1.5",
	})
	require.NoError(t, err)
	require.Equal(t, "1500000", result.Amount)
	require.Equal(t, routerAddr.Hex(), result.Spender)
	require.Equal(t, usdcAddr.Hex(), result.TokenAddress)
	require.Equal(t, int64(0), result.Nonce)
	require.NotEmpty(t, result.TxnHash)
	require.Equal(t, 1, backend.sendCalls)
}

func TestApproveDefaultsToInfinite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newTestGateway(t, &backendStub{})

	result, err := svc.Approve(ctx, ApproveParams{
		PrivateKey: newKey(t),
		Spender:    routerAddr.Hex(),
		Token:      "USDC",
	})
	require.NoError(t, err)
	require.Equal(t, tokens.MaxApproval.String(), result.Amount)
}

func TestApproveValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendStub{}
	svc, _ := newTestGateway(t, backend)
	key := newKey(t)

	_, err := svc.Approve(ctx, ApproveParams{PrivateKey: key, Spender: "uniswap", Token: "WBTC"})
	require.ErrorIs(t, err, tokens.ErrUnknownToken)

	_, err = svc.Approve(ctx, ApproveParams{PrivateKey: key, Spender: "uniswap", Token: "USDC", Amount: "-3"})
	require.ErrorIs(t, err, tokens.ErrInvalidAmount)

	_, err = svc.Approve(ctx, ApproveParams{PrivateKey: key, Spender: "", Token: "USDC"})
	require.ErrorIs(t, err, ErrInvalidSpender)

	// None of the rejected requests may reach the chain.
	require.Zero(t, backend.sendCalls)
	require.Zero(t, backend.callCalls)
}

func TestPollTransactionDiscardsPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	hash := common.HexToHash("0x119f50bf7f1ff2daa4712119af9dbd429ab727690565f93193f63650b020bc30")
	backend := &backendStub{
		receipts: map[common.Hash]*types.Receipt{
			hash: {Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7), GasUsed: 21000},
		},
	}
	svc, tracker := newTestGateway(t, backend)

	tracker.RegisterPendingTx(common.Address{}, 0, hash)
	require.Equal(t, 1, tracker.GetPendingCount(ctx))

	result, err := svc.PollTransaction(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, "CONFIRMED", result.Status)
	require.Equal(t, int64(7), result.BlockNumber)
	require.Equal(t, 0, tracker.GetPendingCount(ctx))
}

func TestPollTransactionPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	svc, _ := newTestGateway(t, &backendStub{})

	result, err := svc.PollTransaction(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.Equal(t, "PENDING", result.Status)
	require.Zero(t, result.BlockNumber)
}

var (
	usdcAddr   = common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e")
	routerAddr = common.HexToAddress("0xb2f1c0f1b1a0e6c1a6a4d1c4b9e3f1d2a0b1c2d3")
)

func newTestGateway(t *testing.T, backend *backendStub) (Gateway, *nonceimpl.LocalTracker) {
	registry, err := tokens.NewRegistry([]tokens.Token{
		{Symbol: "USDC", Address: usdcAddr, Decimals: 6},
	})
	require.NoError(t, err)

	network := chains.Network{
		Name:    "mainnet",
		ChainID: 1,
		Routers: map[string]common.Address{"uniswap": routerAddr},
	}

	client := ethereum.NewClient(backend)
	tracker, err := nonceimpl.NewLocalTracker(network.ChainID, client)
	require.NoError(t, err)

	resolver, err := gaspriceimpl.NewCachedResolver(nil, gasprice.LevelFast, time.Minute, big.NewInt(1_000_000_000))
	require.NoError(t, err)

	approver := ethereum.NewApprover(client, tracker, resolver, network.ChainID, 60000)
	reader := ethereum.NewReader(client)
	poller := ethereum.NewPoller(client)

	svc, err := NewGateway(network, registry, tracker, approver, reader, poller)
	require.NoError(t, err)
	return svc, tracker
}

func newKey(t *testing.T) string {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return hex.EncodeToString(crypto.FromECDSA(key))
}

type backendStub struct {
	mu           sync.Mutex
	pendingNonce uint64
	sendCalls    int
	callCalls    int
	receipts     map[common.Hash]*types.Receipt
	callOutput   []byte
	balance      *big.Int
}

func (m *backendStub) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return m.pendingNonce, nil
}

func (m *backendStub) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, ok := m.receipts[txHash]
	if !ok {
		return nil, goeth.NotFound
	}
	return receipt, nil
}

func (m *backendStub) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls++
	return nil
}

func (m *backendStub) CallContract(ctx context.Context, call goeth.CallMsg, blockNumber *big.Int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCalls++
	return m.callOutput, nil
}

func (m *backendStub) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if m.balance != nil {
		return m.balance, nil
	}
	return big.NewInt(0), nil
}

func (m *backendStub) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}
