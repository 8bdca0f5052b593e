package tokens

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func addr(s string) common.Address {
	return common.HexToAddress(s)
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{name: "whole", amount: "25", decimals: 6, want: "25000000"},
		{name: "fractional", amount: "1.5", decimals: 6, want: "1500000"},
		{name: "full precision", amount: "0.000001", decimals: 6, want: "1"},
		{name: "leading dot", amount: ".5", decimals: 2, want: "50"},
		{name: "zero decimals", amount: "42", decimals: 0, want: "42"},
		{name: "eighteen decimals", amount: "1.000000000000000001", decimals: 18, want: "1000000000000000001"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAmount(tc.amount, tc.decimals)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	t.Parallel()

	for _, amount := range []string{"", "-1", "1.2345", "abc", "1.2.3", ".", "+1.5", "+1", "1e3", " 1 0"} {
		_, err := ParseAmount(amount, 3)
		require.ErrorIs(t, err, ErrInvalidAmount, "amount %q", amount)
	}
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1.5", FormatAmount(big.NewInt(1500000), 6))
	require.Equal(t, "25", FormatAmount(big.NewInt(25000000), 6))
	require.Equal(t, "0.000001", FormatAmount(big.NewInt(1), 6))
	require.Equal(t, "42", FormatAmount(big.NewInt(42), 0))
}

func TestMaxApproval(t *testing.T) {
	t.Parallel()

	require.Equal(
		t,
		"115792089237316195423570985008687907853269984665640564039457584007913129639935",
		MaxApproval.String(),
	)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry([]Token{
		{Symbol: "usdc", Address: addr("0x1"), Decimals: 6},
		{Symbol: "DAI", Address: addr("0x2"), Decimals: 18},
	})
	require.NoError(t, err)

	usdc, err := registry.Lookup("USDC")
	require.NoError(t, err)
	require.Equal(t, 6, usdc.Decimals)

	_, err = registry.Lookup("WBTC")
	require.ErrorIs(t, err, ErrUnknownToken)

	_, err = NewRegistry([]Token{
		{Symbol: "usdc", Decimals: 6},
		{Symbol: "USDC", Decimals: 6},
	})
	require.Error(t, err)
}
