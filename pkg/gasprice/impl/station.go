package impl

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/chaingate/go-chaingate/pkg/gasprice"
	jsoniter "github.com/json-iterator/go"
)

// tenthGweiToWei converts the station's tenths-of-gwei unit to wei.
var tenthGweiToWei = big.NewInt(100_000_000)

// StationOracle fetches gas prices from an ETH Gas Station compatible
// JSON endpoint. Prices come in tenths of gwei.
type StationOracle struct {
	url        string
	httpClient *http.Client
}

var _ gasprice.Oracle = (*StationOracle)(nil)

// NewStationOracle creates an oracle client for url.
func NewStationOracle(url string, requestTimeout time.Duration) *StationOracle {
	return &StationOracle{
		url:        url,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type stationResponse struct {
	Fast    float64 `json:"fast"`
	Fastest float64 `json:"fastest"`
	SafeLow float64 `json:"safeLow"`
	Average float64 `json:"average"`
}

// FetchPrice queries the station and returns the price in wei for level.
func (o *StationOracle) FetchPrice(ctx context.Context, level gasprice.Level) (*big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %s", err)
	}

	res, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gas station: %s", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gas station returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %s", err)
	}

	var prices stationResponse
	if err := jsoniter.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %s", err)
	}

	var tenths float64
	switch level {
	case gasprice.LevelSafeLow:
		tenths = prices.SafeLow
	case gasprice.LevelAverage:
		tenths = prices.Average
	case gasprice.LevelFast:
		tenths = prices.Fast
	default:
		return nil, fmt.Errorf("unknown gas price level %q", level)
	}
	if tenths <= 0 {
		return nil, fmt.Errorf("gas station returned non-positive price %f for level %s", tenths, level)
	}

	wei := new(big.Int).Mul(big.NewInt(int64(tenths)), tenthGweiToWei)
	return wei, nil
}
