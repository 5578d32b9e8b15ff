// internal/amm/pool_test.go
package amm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/floorlab/floorbot/internal/chain"
)

type fakePoolLedger struct {
	base, quote uint64
	quoteOut    uint64
	viewErr     error

	mu        sync.Mutex
	submitted []chain.EntryFunctionPayload

	entered chan struct{}
	block   chan struct{}
}

func (f *fakePoolLedger) View(_ context.Context, function string, _ []string, args []any) ([]json.RawMessage, error) {
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	switch {
	case function == "0xcafe::amm::reserves":
		return tuple(chain.FormatU64(f.base), chain.FormatU64(f.quote)), nil
	case function == "0xcafe::amm::quote":
		return tuple(chain.FormatU64(f.quoteOut)), nil
	}
	return nil, fmt.Errorf("unexpected view %s with %d args", function, len(args))
}

func (f *fakePoolLedger) Submit(_ context.Context, signed chain.SignedTransaction) (chain.TxHandle, error) {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}

	var payload chain.EntryFunctionPayload
	if err := json.Unmarshal(signed, &payload); err != nil {
		return chain.TxHandle{}, err
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, payload)
	n := len(f.submitted)
	f.mu.Unlock()
	return chain.TxHandle{Hash: fmt.Sprintf("0xswap%d", n)}, nil
}

func (f *fakePoolLedger) WaitForConfirmation(_ context.Context, _ chain.TxHandle) error {
	return nil
}

func tuple(vals ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(vals))
	for i, v := range vals {
		b, _ := json.Marshal(v)
		out[i] = b
	}
	return out
}

type passthroughSigner struct{}

func (passthroughSigner) Address() string { return "0xbbbb" }

func (passthroughSigner) Sign(_ context.Context, payload chain.EntryFunctionPayload) (chain.SignedTransaction, error) {
	b, err := json.Marshal(payload)
	return chain.SignedTransaction(b), err
}

func newTestPool(ledger *fakePoolLedger) *Pool {
	return NewPool(PoolConfig{
		Viewer:        ledger,
		Submitter:     ledger,
		Signer:        passthroughSigner{},
		ModuleAddress: "0xcafe",
		Logger:        zap.NewNop(),
	})
}

func TestReserves(t *testing.T) {
	pool := newTestPool(&fakePoolLedger{base: 1_000, quote: 50_000})

	reserves, err := pool.Reserves(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Reserves{Base: 1_000, Quote: 50_000}, reserves)
}

func TestQuoteComesFromLedger(t *testing.T) {
	ledger := &fakePoolLedger{quoteOut: 4_950}
	pool := newTestPool(ledger)

	out, err := pool.Quote(context.Background(), 100, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_950), out)
}

func TestSwapPayload(t *testing.T) {
	ledger := &fakePoolLedger{}
	pool := newTestPool(ledger)

	hash, err := pool.Swap(context.Background(), 100, 95, true)
	require.NoError(t, err)
	assert.Equal(t, "0xswap1", hash)

	require.Len(t, ledger.submitted, 1)
	payload := ledger.submitted[0]
	assert.Equal(t, "0xcafe::amm::swap", payload.Function)
	assert.Equal(t, []any{"100", "95", true}, payload.Arguments)
}

func TestSwapRejectsZeroAmount(t *testing.T) {
	pool := newTestPool(&fakePoolLedger{})
	_, err := pool.Swap(context.Background(), 0, 0, true)
	assert.Error(t, err)

	_, err = pool.Wrap(context.Background(), 0)
	assert.Error(t, err)
}

func TestSwapGuardIsPerDirection(t *testing.T) {
	ledger := &fakePoolLedger{
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	pool := newTestPool(ledger)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := pool.Swap(ctx, 100, 95, true)
		done <- err
	}()

	select {
	case <-ledger.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first swap never reached submit")
	}

	_, err := pool.Swap(ctx, 200, 190, true)
	assert.ErrorIs(t, err, ErrSwapPending, "same direction must be rejected while in flight")

	close(ledger.block)
	require.NoError(t, <-done)
}

func TestWrapPayload(t *testing.T) {
	ledger := &fakePoolLedger{}
	pool := newTestPool(ledger)

	_, err := pool.Wrap(context.Background(), 500)
	require.NoError(t, err)

	require.Len(t, ledger.submitted, 1)
	assert.Equal(t, "0xcafe::amm::wrap", ledger.submitted[0].Function)
	assert.Equal(t, []any{"500"}, ledger.submitted[0].Arguments)
}
