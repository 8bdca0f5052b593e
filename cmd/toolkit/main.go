package main

import (
	"github.com/spf13/cobra"
)

var cliName = "toolkit"

var rootCmd = &cobra.Command{
	Use:   cliName,
	Short: "toolkit is a CLI for gateway operators",
	Long:  `toolkit is a CLI for gateway operators executing mundane tasks`,
	Args:  cobra.ExactArgs(0),
}

func main() {
	rootCmd.Execute() //nolint
}

func init() {
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(gasPriceCmd)
	rootCmd.AddCommand(gasPriceBumperCmd)

	walletCreateCmd.Flags().String("filename", "privatekey.hex", "Filename to store hex representation of private key")
	walletCmd.AddCommand(walletCreateCmd)
	walletCmd.AddCommand(walletAddressCmd)

	gasPriceCmd.Flags().String("oracle-url", "https://ethgasstation.info/api/ethgasAPI.json", "gas station URL")
	gasPriceCmd.Flags().String("level", "fast", "speed tier (safeLow, average, fast)")

	gasPriceBumperCmd.PersistentFlags().String("privatekey", "", "hex private key that signs the replacement")
	gasPriceBumperCmd.PersistentFlags().String("endpoint", "", "URL of an Ethereum node API (i.e: Alchemy/Infura)")
}
