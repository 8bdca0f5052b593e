package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chaingate/go-chaingate/internal/chains"
	"github.com/chaingate/go-chaingate/pkg/ethereum"
	"github.com/chaingate/go-chaingate/pkg/nonce"
	"github.com/chaingate/go-chaingate/pkg/tokens"
	"github.com/chaingate/go-chaingate/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var log = logger.With().Str("component", "gateway").Logger()

// ErrInvalidPrivateKey indicates the request carried a malformed private key.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// ErrInvalidSpender indicates the spender is neither a known
// integration nor a valid address.
var ErrInvalidSpender = errors.New("invalid spender")

// NativeSymbol is the pseudo-symbol for the chain-native coin.
const NativeSymbol = "ETH"

const nativeDecimals = 18

// NonceResult is the response of a nonce allocation.
type NonceResult struct {
	Address string `json:"address"`
	Nonce   int64  `json:"nonce"`
}

// TokenAmount is a per-token entry of an aggregate read.
type TokenAmount struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

// BalancesResult is the response of an aggregate balance read.
type BalancesResult struct {
	Address  string        `json:"address"`
	Balances []TokenAmount `json:"balances"`
}

// AllowancesResult is the response of an aggregate allowance read.
type AllowancesResult struct {
	Address    string        `json:"address"`
	Spender    string        `json:"spender"`
	Allowances []TokenAmount `json:"allowances"`
}

// ApproveParams carries an approval request.
type ApproveParams struct {
	PrivateKey string
	Spender    string
	Token      string

	// Amount is a decimal string in token units. Empty means an
	// infinite approval.
	Amount string

	// Nonce, when non-nil, bypasses the nonce tracker.
	Nonce *int64
}

// ApprovalResult is the response of a broadcasted approval.
type ApprovalResult struct {
	TxnHash      string `json:"txnHash"`
	Nonce        int64  `json:"nonce"`
	GasPrice     string `json:"gasPrice"`
	Spender      string `json:"spender"`
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

// TxStatusResult is the response of a transaction poll.
type TxStatusResult struct {
	TxnHash     string `json:"txnHash"`
	Status      string `json:"status"`
	BlockNumber int64  `json:"blockNumber,omitempty"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Gateway defines the gateway operations.
type Gateway interface {
	AllocateNonce(ctx context.Context, privateKey string) (NonceResult, error)
	GetBalances(ctx context.Context, privateKey string, symbols []string) (BalancesResult, error)
	GetAllowances(ctx context.Context, privateKey string, spender string, symbols []string) (AllowancesResult, error)
	Approve(ctx context.Context, params ApproveParams) (ApprovalResult, error)
	PollTransaction(ctx context.Context, hash common.Hash) (TxStatusResult, error)
}

// GatewayService implements the Gateway interface over a single chain.
type GatewayService struct {
	network  chains.Network
	registry *tokens.Registry
	tracker  nonce.NonceTracker
	approver *ethereum.Approver
	reader   *ethereum.Reader
	poller   *ethereum.Poller
}

var _ (Gateway) = (*GatewayService)(nil)

// NewGateway creates a new gateway service.
func NewGateway(
	network chains.Network,
	registry *tokens.Registry,
	tracker nonce.NonceTracker,
	approver *ethereum.Approver,
	reader *ethereum.Reader,
	poller *ethereum.Poller,
) (Gateway, error) {
	if registry == nil {
		return nil, errors.New("token registry is required")
	}
	return &GatewayService{
		network:  network,
		registry: registry,
		tracker:  tracker,
		approver: approver,
		reader:   reader,
		poller:   poller,
	}, nil
}

// AllocateNonce consumes and returns the next nonce for the key's address.
func (g *GatewayService) AllocateNonce(ctx context.Context, privateKey string) (NonceResult, error) {
	w, err := g.wallet(privateKey)
	if err != nil {
		return NonceResult{}, err
	}

	n, err := g.tracker.GetNonce(ctx, w.Address())
	if err != nil {
		return NonceResult{}, fmt.Errorf("get nonce: %w", err)
	}

	return NonceResult{Address: w.Address().Hex(), Nonce: n}, nil
}

// GetBalances reads the balances of every requested token concurrently.
// Symbols are resolved before any chain read, so an unknown token fails
// the call without touching the node. A single failing read fails the
// whole call.
func (g *GatewayService) GetBalances(
	ctx context.Context,
	privateKey string,
	symbols []string,
) (BalancesResult, error) {
	w, err := g.wallet(privateKey)
	if err != nil {
		return BalancesResult{}, err
	}

	type query struct {
		token  tokens.Token
		native bool
	}
	queries := make([]query, len(symbols))
	for i, symbol := range symbols {
		if strings.EqualFold(symbol, NativeSymbol) {
			queries[i] = query{native: true}
			continue
		}
		token, err := g.registry.Lookup(symbol)
		if err != nil {
			return BalancesResult{}, err
		}
		queries[i] = query{token: token}
	}

	balances := make([]TokenAmount, len(symbols))
	eg, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		eg.Go(func() error {
			if q.native {
				balance, err := g.reader.NativeBalance(gctx, w.Address())
				if err != nil {
					return err
				}
				balances[i] = TokenAmount{
					Symbol: NativeSymbol,
					Amount: tokens.FormatAmount(balance, nativeDecimals),
				}
				return nil
			}
			balance, err := g.reader.BalanceOf(gctx, q.token.Address, w.Address())
			if err != nil {
				return err
			}
			balances[i] = TokenAmount{
				Symbol: q.token.Symbol,
				Amount: tokens.FormatAmount(balance, q.token.Decimals),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return BalancesResult{}, err
	}

	return BalancesResult{Address: w.Address().Hex(), Balances: balances}, nil
}

// GetAllowances reads the allowances granted to spender for every
// requested token concurrently. Symbols are resolved before any chain
// read. A single failing read fails the whole call.
func (g *GatewayService) GetAllowances(
	ctx context.Context,
	privateKey string,
	spender string,
	symbols []string,
) (AllowancesResult, error) {
	w, err := g.wallet(privateKey)
	if err != nil {
		return AllowancesResult{}, err
	}

	resolved, err := g.network.ParseSpender(spender)
	if err != nil {
		return AllowancesResult{}, fmt.Errorf("%w: %s", ErrInvalidSpender, err)
	}

	resolvedTokens := make([]tokens.Token, len(symbols))
	for i, symbol := range symbols {
		token, err := g.registry.Lookup(symbol)
		if err != nil {
			return AllowancesResult{}, err
		}
		resolvedTokens[i] = token
	}

	allowances := make([]TokenAmount, len(symbols))
	eg, gctx := errgroup.WithContext(ctx)
	for i, token := range resolvedTokens {
		i, token := i, token
		eg.Go(func() error {
			amount, err := g.reader.Allowance(gctx, token.Address, w.Address(), resolved.Address)
			if err != nil {
				return err
			}
			allowances[i] = TokenAmount{
				Symbol: token.Symbol,
				Amount: tokens.FormatAmount(amount, token.Decimals),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return AllowancesResult{}, err
	}

	return AllowancesResult{
		Address:    w.Address().Hex(),
		Spender:    resolved.Address.Hex(),
		Allowances: allowances,
	}, nil
}

// Approve builds, signs and broadcasts an ERC20 approval.
func (g *GatewayService) Approve(ctx context.Context, params ApproveParams) (ApprovalResult, error) {
	w, err := g.wallet(params.PrivateKey)
	if err != nil {
		return ApprovalResult{}, err
	}

	token, err := g.registry.Lookup(params.Token)
	if err != nil {
		return ApprovalResult{}, err
	}

	spender, err := g.network.ParseSpender(params.Spender)
	if err != nil {
		return ApprovalResult{}, fmt.Errorf("%w: %s", ErrInvalidSpender, err)
	}

	amount := tokens.MaxApproval
	if params.Amount != "" {
		amount, err = tokens.ParseAmount(params.Amount, token.Decimals)
		if err != nil {
			return ApprovalResult{}, err
		}
	}

	result, err := g.approver.Approve(ctx, ethereum.ApproveRequest{
		Wallet:        w,
		Token:         token.Address,
		Spender:       spender.Address,
		Amount:        amount,
		NonceOverride: params.Nonce,
	})
	if err != nil {
		return ApprovalResult{}, err
	}

	return ApprovalResult{
		TxnHash:      result.Hash.Hex(),
		Nonce:        result.Nonce,
		GasPrice:     result.GasPriceWei.String(),
		Spender:      spender.Address.Hex(),
		TokenAddress: token.Address.Hex(),
		Amount:       amount.String(),
	}, nil
}

// PollTransaction checks the confirmation state of a transaction with
// a single receipt lookup.
func (g *GatewayService) PollTransaction(ctx context.Context, hash common.Hash) (TxStatusResult, error) {
	outcome, err := g.poller.Poll(ctx, hash)
	if err != nil {
		return TxStatusResult{}, err
	}

	result := TxStatusResult{
		TxnHash: hash.Hex(),
		Status:  string(outcome.Status),
		GasUsed: outcome.GasUsed,
		Reason:  outcome.Reason,
	}
	if outcome.BlockNumber != nil {
		result.BlockNumber = outcome.BlockNumber.Int64()
	}

	if outcome.Status != ethereum.StatusPending {
		g.tracker.DiscardPendingTx(hash)
	}

	return result, nil
}

func (g *GatewayService) wallet(privateKey string) (*wallet.Wallet, error) {
	w, err := wallet.NewWallet(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		log.Debug().Err(err).Msg("rejecting malformed private key")
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrivateKey, err)
	}
	return w, nil
}
