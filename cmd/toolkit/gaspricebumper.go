package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
)

var gasPriceBumperCmd = &cobra.Command{
	Use:   "gaspricebump",
	Short: "Replaces a stuck transaction with a higher-fee copy",
	Long: `Replaces a stuck transaction with a copy paying at least 25% more,
reusing the stuck nonce. Pairs with the approve nonce override for
recovering an address whose approvals are blocked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, err := cmd.Flags().GetString("privatekey")
		if err != nil {
			return errors.New("failed to parse privatekey")
		}
		endpoint, err := cmd.Flags().GetString("endpoint")
		if err != nil {
			return errors.New("failed to parse endpoint")
		}

		pk, err := crypto.HexToECDSA(privateKey)
		if err != nil {
			return fmt.Errorf("decoding private key: %s", err)
		}
		conn, err := ethclient.Dial(endpoint)
		if err != nil {
			return fmt.Errorf("connecting to ethereum endpoint: %s", err)
		}

		newHash, err := bumpFee(cmd.Context(), conn, pk, common.HexToHash(args[0]))
		if err != nil {
			return fmt.Errorf("bumping txn fee: %s", err)
		}
		fmt.Printf("Replacement transaction hash: %s\n", newHash)

		return nil
	},
}

func bumpFee(
	ctx context.Context,
	conn *ethclient.Client,
	pk *ecdsa.PrivateKey,
	stuckHash common.Hash,
) (common.Hash, error) {
	stuckTxn, isPending, err := conn.TransactionByHash(ctx, stuckHash)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get txn from the mempool: %s", err)
	}
	if !isPending {
		return common.Hash{}, fmt.Errorf("the transaction %s isn't pending", stuckHash)
	}

	suggested, err := conn.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get suggested gas price: %s", err)
	}
	// The replacement must pay at least 25% more than the stuck txn,
	// and never less than the node's current suggestion.
	bumped := big.NewInt(0).Div(big.NewInt(0).Mul(stuckTxn.GasPrice(), big.NewInt(125)), big.NewInt(100))
	if bumped.Cmp(suggested) < 0 {
		bumped = suggested
	}

	fmt.Printf("Stuck txn gas price: %s\n", stuckTxn.GasPrice())
	fmt.Printf("Replacement gas price: %s\n", bumped)

	chainID, err := conn.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get chain id: %s", err)
	}
	txn, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    stuckTxn.Nonce(),
		GasPrice: bumped,
		Gas:      stuckTxn.Gas(),
		To:       stuckTxn.To(),
		Value:    stuckTxn.Value(),
		Data:     stuckTxn.Data(),
	}), types.NewLondonSigner(chainID), pk)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing txn: %s", err)
	}
	if err := conn.SendTransaction(ctx, txn); err != nil {
		return common.Hash{}, fmt.Errorf("sending txn: %s", err)
	}

	return txn.Hash(), nil
}
