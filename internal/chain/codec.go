// internal/chain/codec.go
package chain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/floorlab/floorbot/internal/addr"
)

// The fullnode encodes view results as a JSON tuple: addresses as hex
// strings, u64 as decimal strings (they exceed JSON-safe integers).

// DecodeAddress decodes a tuple element into a canonical address.
func DecodeAddress(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode address: %w", err)
	}
	if s == "" {
		return "", fmt.Errorf("decode address: empty value")
	}
	return addr.Normalize(s), nil
}

// DecodeU64 decodes a tuple element into a uint64. Both string and
// numeric encodings are accepted.
func DecodeU64(raw json.RawMessage) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode u64 %q: %w", s, err)
		}
		return v, nil
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode u64: %w", err)
	}
	return n, nil
}

// DecodeBool decodes a tuple element into a bool.
func DecodeBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, fmt.Errorf("decode bool: %w", err)
	}
	return b, nil
}

// FormatU64 encodes a uint64 argument in the string form the ledger
// expects.
func FormatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}
