package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet utilities for gateway operators",
	Long:  `Wallet utilities for gateway operators`,
	Args:  cobra.ExactArgs(1),
}

var walletCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generates a key and saves it as hex",
	Long:  `Generates a secp256k1 key and saves its hex representation to a file`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, err := cmd.Flags().GetString("filename")
		if err != nil {
			return errors.New("failed to parse filename")
		}
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("generating key: %s", err)
		}

		keyHex := hexutil.Encode(crypto.FromECDSA(privateKey))[2:]
		if err := os.WriteFile(filename, []byte(keyHex), 0o644); err != nil {
			return fmt.Errorf("saving key to %s: %s", filename, err)
		}

		fmt.Printf("Created wallet %s\n", crypto.PubkeyToAddress(privateKey.PublicKey))
		fmt.Printf("Private key saved in %s\n", filename)

		return nil
	},
}

var walletAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Derives the address of a hex private key",
	Long:  `Derives the address of a hex private key`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, err := crypto.HexToECDSA(args[0])
		if err != nil {
			return fmt.Errorf("decoding key: %s", err)
		}

		fmt.Printf("Wallet address is %s\n", crypto.PubkeyToAddress(privateKey.PublicKey))

		return nil
	},
}
