package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/chaingate/go-chaingate/pkg/erc20"
	"github.com/chaingate/go-chaingate/pkg/gasprice"
	"github.com/chaingate/go-chaingate/pkg/nonce"
	"github.com/chaingate/go-chaingate/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logger "github.com/rs/zerolog/log"
)

var log = logger.With().Str("component", "ethereum").Logger()

// ApproveRequest carries everything needed to build an approval tx.
type ApproveRequest struct {
	Wallet  *wallet.Wallet
	Token   common.Address
	Spender common.Address
	Amount  *big.Int

	// NonceOverride, when non-nil, skips the tracker and uses the
	// given nonce verbatim.
	NonceOverride *int64
}

// ApproveResult describes a broadcasted approval tx.
type ApproveResult struct {
	Hash        common.Hash
	Nonce       int64
	GasPriceWei *big.Int
}

// Approver builds, signs and broadcasts ERC20 approve transactions.
type Approver struct {
	client   *Client
	tracker  nonce.NonceTracker
	gasPrice gasprice.Resolver
	chainID  int64
	gasLimit uint64
}

// NewApprover creates an approver for the given chain.
func NewApprover(
	client *Client,
	tracker nonce.NonceTracker,
	gasPrice gasprice.Resolver,
	chainID int64,
	gasLimit uint64,
) *Approver {
	return &Approver{
		client:   client,
		tracker:  tracker,
		gasPrice: gasPrice,
		chainID:  chainID,
		gasLimit: gasLimit,
	}
}

// Approve submits an approve(spender, amount) call on the token
// contract. On a nonce rejection from the node the tracker is resynced
// and the call retried once.
func (a *Approver) Approve(ctx context.Context, req ApproveRequest) (ApproveResult, error) {
	quote, err := a.gasPrice.GasPrice(ctx)
	if err != nil {
		return ApproveResult{}, fmt.Errorf("resolving gas price: %w", err)
	}

	calldata, err := erc20.PackApprove(req.Spender, req.Amount)
	if err != nil {
		return ApproveResult{}, fmt.Errorf("packing approve calldata: %s", err)
	}

	result, err := a.callWithRetry(ctx, req, func() (ApproveResult, error) {
		return a.sendApprove(ctx, req, quote.Wei, calldata)
	})
	if err != nil {
		return ApproveResult{}, fmt.Errorf("retryable approve call: %w", err)
	}

	log.Info().
		Str("hash", result.Hash.Hex()).
		Int64("nonce", result.Nonce).
		Str("token", req.Token.Hex()).
		Str("spender", req.Spender.Hex()).
		Str("gasPrice", result.GasPriceWei.String()).
		Msg("approval broadcasted")

	return result, nil
}

func (a *Approver) sendApprove(
	ctx context.Context,
	req ApproveRequest,
	gasPriceWei *big.Int,
	calldata []byte,
) (ApproveResult, error) {
	var n int64
	if req.NonceOverride != nil {
		n = *req.NonceOverride
	} else {
		var err error
		n, err = a.tracker.GetNonce(ctx, req.Wallet.Address())
		if err != nil {
			return ApproveResult{}, fmt.Errorf("get nonce: %w", err)
		}
	}

	token := req.Token
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(n),
		GasPrice: gasPriceWei,
		Gas:      a.gasLimit,
		To:       &token,
		Data:     calldata,
	})

	signedTx, err := types.SignTx(tx, types.NewLondonSigner(big.NewInt(a.chainID)), req.Wallet.PrivateKey())
	if err != nil {
		return ApproveResult{}, &SigningError{Err: err}
	}

	if err := a.client.SendTransaction(ctx, signedTx); err != nil {
		return ApproveResult{}, err
	}

	a.tracker.RegisterPendingTx(req.Wallet.Address(), n, signedTx.Hash())

	return ApproveResult{
		Hash:        signedTx.Hash(),
		Nonce:       n,
		GasPriceWei: gasPriceWei,
	}, nil
}

func (a *Approver) callWithRetry(
	ctx context.Context,
	req ApproveRequest,
	f func() (ApproveResult, error),
) (ApproveResult, error) {
	result, err := f()

	possibleErrMgs := []string{"nonce too low", "invalid transaction nonce"}
	if err != nil && req.NonceOverride == nil {
		for _, errMsg := range possibleErrMgs {
			if strings.Contains(err.Error(), errMsg) {
				log.Warn().Err(err).Msg("retrying approve call")
				if err := a.tracker.Resync(ctx, req.Wallet.Address()); err != nil {
					return ApproveResult{}, fmt.Errorf("resync: %s", err)
				}
				return f()
			}
		}
	}

	return result, err
}
