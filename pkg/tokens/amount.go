package tokens

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount is returned when a decimal amount string can't be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// MaxApproval is the maximum uint256 value, used for infinite approvals.
var MaxApproval = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseAmount converts a decimal string like "1.5" into the token's
// smallest unit using its decimals. The fractional part can't have more
// digits than the token supports.
func ParseAmount(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, amount)
	}

	parts := strings.SplitN(amount, ".", 2)
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, decimals)
	}
	// Only bare digits are accepted, no sign or exponent notation.
	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
		}
	}

	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return value, nil
}

// FormatAmount renders a smallest-unit value as a decimal string,
// trimming trailing zeros from the fractional part.
func FormatAmount(value *big.Int, decimals int) string {
	if decimals == 0 {
		return value.String()
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(value, divisor, new(big.Int))

	fracStr := strings.TrimRight(fmt.Sprintf("%0*d", decimals, frac), "0")
	if fracStr == "" {
		return whole.String()
	}
	return fmt.Sprintf("%s.%s", whole, fracStr)
}
