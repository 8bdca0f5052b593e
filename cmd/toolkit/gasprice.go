package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaingate/go-chaingate/pkg/gasprice"
	gaspriceimpl "github.com/chaingate/go-chaingate/pkg/gasprice/impl"
)

var gasPriceCmd = &cobra.Command{
	Use:   "gasprice",
	Short: "Queries the gas price oracle",
	Long:  `Queries the gas price oracle for the configured speed tier`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		oracleURL, err := cmd.Flags().GetString("oracle-url")
		if err != nil {
			return errors.New("failed to parse oracle-url")
		}
		level, err := cmd.Flags().GetString("level")
		if err != nil {
			return errors.New("failed to parse level")
		}

		oracle := gaspriceimpl.NewStationOracle(oracleURL, 10*time.Second)
		wei, err := oracle.FetchPrice(context.Background(), gasprice.Level(level))
		if err != nil {
			return fmt.Errorf("fetching gas price: %s", err)
		}

		fmt.Printf("Gas price (%s): %s wei\n", level, wei)

		return nil
	},
}
