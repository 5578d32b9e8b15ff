// internal/market/prober.go
package market

import (
	"context"
	"fmt"

	"github.com/floorlab/floorbot/internal/chain"
)

// ProbeStatus distinguishes "definitely absent" from "could not
// determine". The ledger signals absence by aborting the view call, so a
// raw error cannot tell the two apart; the prober classifies before the
// scan engine decides what to do.
type ProbeStatus int

const (
	ProbeFound ProbeStatus = iota
	ProbeNotFound
	ProbeTransportError
)

// OwnerProbe is the outcome of a direct-ownership probe.
type OwnerProbe struct {
	Status ProbeStatus
	Owner  string
	Err    error
}

// ListingProbe is the outcome of a marketplace escrow probe.
type ListingProbe struct {
	Status ProbeStatus
	Seller string
	Price  uint64
	Err    error
}

// Prober reads ownership and listing state for a resolved token object.
type Prober struct {
	viewer   chain.Viewer
	contract Contract
}

// NewProber creates an ownership/listing prober.
func NewProber(viewer chain.Viewer, contract Contract) *Prober {
	return &Prober{viewer: viewer, contract: contract}
}

// ProbeOwner fetches the direct owner of the token object. For an
// escrowed token this is the marketplace construct, not the seller.
func (p *Prober) ProbeOwner(ctx context.Context, token string) OwnerProbe {
	out, err := p.viewer.View(ctx, p.contract.OwnerOfFn(), nil, []any{token})
	if err != nil {
		return OwnerProbe{Status: classifyProbe(err), Err: err}
	}
	if len(out) == 0 {
		return OwnerProbe{Status: ProbeTransportError, Err: fmt.Errorf("owner_of(%s): empty result", token)}
	}
	owner, err := chain.DecodeAddress(out[0])
	if err != nil {
		return OwnerProbe{Status: ProbeTransportError, Err: err}
	}
	return OwnerProbe{Status: ProbeFound, Owner: owner}
}

// ProbeListing fetches the escrow record for the token. The ledger
// aborts the call when no listing exists; that abort IS the "absent"
// signal, not an error.
func (p *Prober) ProbeListing(ctx context.Context, token string) ListingProbe {
	out, err := p.viewer.View(ctx, p.contract.ListingFn(), nil, []any{token})
	if err != nil {
		return ListingProbe{Status: classifyProbe(err), Err: err}
	}
	if len(out) < 2 {
		return ListingProbe{Status: ProbeTransportError, Err: fmt.Errorf("listing(%s): short result", token)}
	}
	seller, err := chain.DecodeAddress(out[0])
	if err != nil {
		return ListingProbe{Status: ProbeTransportError, Err: err}
	}
	price, err := chain.DecodeU64(out[1])
	if err != nil {
		return ListingProbe{Status: ProbeTransportError, Err: err}
	}
	return ListingProbe{Status: ProbeFound, Seller: seller, Price: price}
}

func classifyProbe(err error) ProbeStatus {
	if chain.IsAbort(err) {
		return ProbeNotFound
	}
	return ProbeTransportError
}
