package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/omeid/uconfig"
)

// configFilename is the filename of the config file automatically loaded.
var configFilename = "config.json"

type config struct {
	HTTP struct {
		Port string `default:"8080"` // HTTP port (e.g. 8080)

		RateLimInterval       string `default:"1s"`
		MaxRequestPerInterval uint64 `default:"10"`
	}
	Gateway struct {
		EthEndpoint string `default:"http://localhost:8545"`
		ChainName   string `default:"mainnet"`
		ChainID     int64  `default:"1"`
		GasLimit    uint64 `default:"60000"`
	}
	GasPrice struct {
		OracleURL string `default:"https://ethgasstation.info/api/ethgasAPI.json"`
		Level     string `default:"fast"`
		CacheTTL  string `default:"30s"`

		// ManualWei disables the oracle when non-empty.
		ManualWei string `default:""`
	}
	Tokens  []tokenConfig
	Routers []routerConfig
	Metrics struct {
		Port string `default:"9090"`
	}
	Log struct {
		Human bool `default:"false"`
		Debug bool `default:"false"`
	}
}

type tokenConfig struct {
	Symbol   string
	Address  string
	Decimals int
}

type routerConfig struct {
	Name    string
	Address string
}

func setupConfig() *config {
	conf := &config{}
	confFiles := uconfig.Files{
		{configFilename, json.Unmarshal},
	}

	c, err := uconfig.Classic(&conf, confFiles)
	if err != nil {
		c.Usage()
		os.Exit(1)
	}

	return conf
}

func (c *config) rateLimInterval() (time.Duration, error) {
	return time.ParseDuration(c.HTTP.RateLimInterval)
}

func (c *config) gasPriceCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.GasPrice.CacheTTL)
}
