// internal/market/collection.go
package market

import (
	"context"
	"fmt"

	"github.com/floorlab/floorbot/internal/chain"
)

// Enumerator resolves the collection identity and its current supply.
// Both are single view calls; the scan engine owns failure policy.
type Enumerator struct {
	viewer   chain.Viewer
	contract Contract
}

// NewEnumerator creates a collection enumerator.
func NewEnumerator(viewer chain.Viewer, contract Contract) *Enumerator {
	return &Enumerator{viewer: viewer, contract: contract}
}

// CollectionAddress resolves the collection object created by the given
// creator account.
func (e *Enumerator) CollectionAddress(ctx context.Context, creator string) (string, error) {
	out, err := e.viewer.View(ctx, e.contract.CollectionAddressFn(), nil, []any{creator})
	if err != nil {
		return "", fmt.Errorf("resolve collection for %s: %w", creator, err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("resolve collection for %s: empty result", creator)
	}
	return chain.DecodeAddress(out[0])
}

// Supply returns the number of tokens minted so far. Token indices run
// in [1, supply].
func (e *Enumerator) Supply(ctx context.Context, collection string) (uint64, error) {
	out, err := e.viewer.View(ctx, e.contract.SupplyFn(), nil, []any{collection})
	if err != nil {
		return 0, fmt.Errorf("fetch supply of %s: %w", collection, err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("fetch supply of %s: empty result", collection)
	}
	return chain.DecodeU64(out[0])
}
