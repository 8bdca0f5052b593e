package main

import (
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/chaingate/go-chaingate/buildinfo"
	"github.com/chaingate/go-chaingate/internal/chains"
	"github.com/chaingate/go-chaingate/internal/gateway"
	"github.com/chaingate/go-chaingate/internal/router"
	"github.com/chaingate/go-chaingate/pkg/ethereum"
	"github.com/chaingate/go-chaingate/pkg/gasprice"
	gaspriceimpl "github.com/chaingate/go-chaingate/pkg/gasprice/impl"
	"github.com/chaingate/go-chaingate/pkg/logging"
	"github.com/chaingate/go-chaingate/pkg/metrics"
	nonceimpl "github.com/chaingate/go-chaingate/pkg/nonce/impl"
	"github.com/chaingate/go-chaingate/pkg/tokens"
)

func main() {
	config := setupConfig()
	logging.SetupLogger(buildinfo.GitCommit, config.Log.Debug, config.Log.Human)

	if err := metrics.SetupInstrumentation(":"+config.Metrics.Port, "chaingate:api"); err != nil {
		log.Fatal().Err(err).Str("port", config.Metrics.Port).Msg("could not setup instrumentation")
	}

	conn, err := ethclient.Dial(config.Gateway.EthEndpoint)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("ethEndpoint", config.Gateway.EthEndpoint).
			Msg("failed to connect to ethereum endpoint")
	}
	defer conn.Close()

	network, err := buildNetwork(config)
	if err != nil {
		log.Fatal().Err(err).Msg("building network configuration")
	}

	registry, err := buildRegistry(config)
	if err != nil {
		log.Fatal().Err(err).Msg("building token registry")
	}

	client := ethereum.NewClient(conn)

	tracker, err := nonceimpl.NewLocalTracker(network.ChainID, client)
	if err != nil {
		log.Fatal().Err(err).Msg("creating nonce tracker")
	}

	resolver, err := buildGasPriceResolver(config)
	if err != nil {
		log.Fatal().Err(err).Msg("creating gas price resolver")
	}

	approver := ethereum.NewApprover(client, tracker, resolver, network.ChainID, config.Gateway.GasLimit)
	reader := ethereum.NewReader(client)
	poller := ethereum.NewPoller(client)

	svc, err := gateway.NewGateway(network, registry, tracker, approver, reader, poller)
	if err != nil {
		log.Fatal().Err(err).Msg("creating gateway service")
	}

	rateLimInterval, err := config.rateLimInterval()
	if err != nil {
		log.Fatal().Err(err).Msg("parsing rate limit interval")
	}

	r, err := router.ConfiguredRouter(svc, config.HTTP.MaxRequestPerInterval, rateLimInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("configuring router")
	}

	log.Info().
		Str("port", config.HTTP.Port).
		Str("chain", network.Name).
		Int64("chainId", network.ChainID).
		Msg("starting gateway")

	server := &http.Server{
		Addr:              ":" + config.HTTP.Port,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Str("port", config.HTTP.Port).Msg("could not start server")
	}
}

func buildNetwork(conf *config) (chains.Network, error) {
	routers := make(map[string]common.Address, len(conf.Routers))
	for _, r := range conf.Routers {
		if !common.IsHexAddress(r.Address) {
			return chains.Network{}, fmt.Errorf("router %s has invalid address %s", r.Name, r.Address)
		}
		routers[r.Name] = common.HexToAddress(r.Address)
	}
	return chains.Network{
		Name:    conf.Gateway.ChainName,
		ChainID: conf.Gateway.ChainID,
		Routers: routers,
	}, nil
}

func buildRegistry(conf *config) (*tokens.Registry, error) {
	list := make([]tokens.Token, len(conf.Tokens))
	for i, t := range conf.Tokens {
		if !common.IsHexAddress(t.Address) {
			return nil, fmt.Errorf("token %s has invalid address %s", t.Symbol, t.Address)
		}
		list[i] = tokens.Token{
			Symbol:   t.Symbol,
			Address:  common.HexToAddress(t.Address),
			Decimals: t.Decimals,
		}
	}
	return tokens.NewRegistry(list)
}

func buildGasPriceResolver(conf *config) (gasprice.Resolver, error) {
	var manualWei *big.Int
	if conf.GasPrice.ManualWei != "" {
		wei, ok := new(big.Int).SetString(conf.GasPrice.ManualWei, 10)
		if !ok {
			return nil, fmt.Errorf("invalid manual gas price %q", conf.GasPrice.ManualWei)
		}
		manualWei = wei
	}

	ttl, err := conf.gasPriceCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("parsing gas price cache ttl: %s", err)
	}

	oracle := gaspriceimpl.NewStationOracle(conf.GasPrice.OracleURL, 10*time.Second)
	return gaspriceimpl.NewCachedResolver(oracle, gasprice.Level(conf.GasPrice.Level), ttl, manualWei)
}
