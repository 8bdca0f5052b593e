package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestClientReceiptNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := NewClient(&backendMock{})

	_, found, err := client.TransactionReceipt(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientQueryErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendMock{
		callErr:    errors.New("connection refused"),
		balanceErr: errors.New("connection refused"),
	}
	client := NewClient(backend)

	token := common.HexToAddress("0x68d24fcbc4d9c1b0a9e9c5b1dc13b522a1ea022e")
	_, err := client.CallContract(ctx, goethereum.CallMsg{To: &token})
	var queryErr *ChainQueryError
	require.ErrorAs(t, err, &queryErr)
	require.Equal(t, "call contract", queryErr.Op)

	_, err = client.BalanceAt(ctx, token)
	require.ErrorAs(t, err, &queryErr)
}

func TestClientBroadcastError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &backendMock{sendErrs: []error{errors.New("txpool full")}}
	client := NewClient(backend)

	err := client.SendTransaction(ctx, types.NewTx(&types.LegacyTx{}))
	var broadcastErr *BroadcastError
	require.ErrorAs(t, err, &broadcastErr)
}

// backendMock implements Backend for tests that don't need a
// simulated chain.
type backendMock struct {
	mu sync.Mutex

	pendingNonce uint64
	nonceErr     error

	sendErrs  []error
	sendCalls int

	receipts map[common.Hash]*types.Receipt

	callOutput []byte
	callErr    error

	balances   map[common.Address]*big.Int
	balanceErr error

	gasPrice *big.Int
}

func (m *backendMock) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nonceErr != nil {
		return 0, m.nonceErr
	}
	return m.pendingNonce, nil
}

func (m *backendMock) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receipts[txHash]
	if !ok {
		return nil, goethereum.NotFound
	}
	return receipt, nil
}

func (m *backendMock) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls++
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		return err
	}
	return nil
}

func (m *backendMock) CallContract(
	ctx context.Context,
	call goethereum.CallMsg,
	blockNumber *big.Int,
) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callErr != nil {
		return nil, m.callErr
	}
	return m.callOutput, nil
}

func (m *backendMock) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	if balance, ok := m.balances[account]; ok {
		return balance, nil
	}
	return big.NewInt(0), nil
}

func (m *backendMock) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gasPrice != nil {
		return m.gasPrice, nil
	}
	return big.NewInt(1_000_000_000), nil
}
