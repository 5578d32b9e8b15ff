// internal/market/amount.go
package market

import (
	"fmt"
	"strconv"
	"strings"
)

// Decimals is the fixed-point precision of the ledger's smallest unit.
const Decimals = 8

// ParseAmount converts a user-entered decimal string ("1.5") into the
// ledger's smallest unit. It rejects malformed input before any network
// call is made.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("amount must not be negative")
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return 0, fmt.Errorf("amount has more than %d decimal places", Decimals)
	}
	frac += strings.Repeat("0", Decimals-len(frac))

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseUint(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	const unit = 100_000_000
	if w > (1<<64-1)/unit {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	v := w * unit
	if v > (1<<64-1)-f {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return v + f, nil
}

// FormatAmount renders a smallest-unit value as a decimal string with
// trailing zeros trimmed.
func FormatAmount(v uint64) string {
	const unit = 100_000_000
	whole := v / unit
	frac := v % unit
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	fracStr := fmt.Sprintf("%08d", frac)
	fracStr = strings.TrimRight(fracStr, "0")
	return strconv.FormatUint(whole, 10) + "." + fracStr
}
