// internal/addr/addr.go
package addr

import "strings"

// Width is the ledger address width in hex characters (32 bytes).
const Width = 64

// Normalize canonicalizes a ledger address: the optional "0x" prefix is
// stripped, hex digits are lowercased and the result is left-padded with
// zeros to the full address width. The empty string normalizes to the empty
// string and is used as a "no value" sentinel.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.ToLower(s)
	if len(s) < Width {
		s = strings.Repeat("0", Width-len(s)) + s
	}
	return "0x" + s
}

// Equal reports whether two addresses refer to the same account regardless
// of representation (prefix, case, leading-zero padding).
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Short returns a display form of an address: first and last four hex
// digits of the canonical representation.
func Short(s string) string {
	n := Normalize(s)
	if n == "" {
		return ""
	}
	return n[:6] + "..." + n[len(n)-4:]
}
