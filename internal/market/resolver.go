// internal/market/resolver.go
package market

import (
	"context"
	"fmt"

	"github.com/floorlab/floorbot/internal/chain"
)

// Resolver maps a sequential token index to its on-ledger object address.
// One view call per index; batching is the scan engine's job. A burned or
// never-minted index surfaces as a ledger abort.
type Resolver struct {
	viewer   chain.Viewer
	contract Contract
}

// NewResolver creates a token resolver.
func NewResolver(viewer chain.Viewer, contract Contract) *Resolver {
	return &Resolver{viewer: viewer, contract: contract}
}

// TokenAtIndex resolves token index i within the collection.
func (r *Resolver) TokenAtIndex(ctx context.Context, collection string, i uint64) (string, error) {
	out, err := r.viewer.View(ctx, r.contract.TokenByIndexFn(), nil,
		[]any{collection, chain.FormatU64(i)})
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", fmt.Errorf("token_by_index(%d): empty result", i)
	}
	return chain.DecodeAddress(out[0])
}
