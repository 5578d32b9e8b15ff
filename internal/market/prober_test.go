// internal/market/prober_test.go
package market

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type viewerFunc func(ctx context.Context, function string, typeArgs []string, args []any) ([]json.RawMessage, error)

func (f viewerFunc) View(ctx context.Context, function string, typeArgs []string, args []any) ([]json.RawMessage, error) {
	return f(ctx, function, typeArgs, args)
}

func TestProbeListingOutcomes(t *testing.T) {
	contract := Contract{ModuleAddress: testCreator}

	tests := []struct {
		name       string
		viewer     viewerFunc
		wantStatus ProbeStatus
		wantSeller string
		wantPrice  uint64
	}{
		{
			name: "active listing",
			viewer: func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
				return tuple("0xbbbb", "500"), nil
			},
			wantStatus: ProbeFound,
			wantSeller: "0xbbbb",
			wantPrice:  500,
		},
		{
			name: "ledger abort means not listed",
			viewer: func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
				return nil, abortErr()
			},
			wantStatus: ProbeNotFound,
		},
		{
			name: "transport failure is not absence",
			viewer: func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
				return nil, transportErr()
			},
			wantStatus: ProbeTransportError,
		},
		{
			name: "short tuple",
			viewer: func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
				return tuple("0xbbbb"), nil
			},
			wantStatus: ProbeTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := NewProber(tt.viewer, contract)
			probe := prober.ProbeListing(context.Background(), "0xa1")

			assert.Equal(t, tt.wantStatus, probe.Status)
			if tt.wantStatus == ProbeFound {
				assert.True(t, probe.Seller != "" && probe.Price == tt.wantPrice)
			} else {
				assert.Error(t, probe.Err)
			}
		})
	}
}

func TestProbeOwnerOutcomes(t *testing.T) {
	contract := Contract{ModuleAddress: testCreator}

	found := NewProber(viewerFunc(func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
		return tuple("0xaaaa"), nil
	}), contract)
	probe := found.ProbeOwner(context.Background(), "0xa1")
	assert.Equal(t, ProbeFound, probe.Status)
	assert.NotEmpty(t, probe.Owner)

	absent := NewProber(viewerFunc(func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
		return nil, abortErr()
	}), contract)
	probe = absent.ProbeOwner(context.Background(), "0xa1")
	assert.Equal(t, ProbeNotFound, probe.Status)

	down := NewProber(viewerFunc(func(_ context.Context, _ string, _ []string, _ []any) ([]json.RawMessage, error) {
		return nil, transportErr()
	}), contract)
	probe = down.ProbeOwner(context.Background(), "0xa1")
	assert.Equal(t, ProbeTransportError, probe.Status)
}
