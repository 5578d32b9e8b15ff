// internal/amm/pool.go
package amm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/floorlab/floorbot/internal/chain"
	"github.com/floorlab/floorbot/internal/events"
	"github.com/floorlab/floorbot/internal/metrics"
	"github.com/floorlab/floorbot/internal/wallet"
)

const ammModule = "amm"

// ErrSwapPending is returned when a swap in the same direction is
// already in flight for this client.
var ErrSwapPending = errors.New("swap already pending")

// Reserves is a point-in-time snapshot of the pool.
type Reserves struct {
	Base  uint64 `json:"base"`
	Quote uint64 `json:"quote"`
}

// Pool is the dashboard client for the AMM liquidity pool. Pricing stays
// on the ledger: quotes come from a view call, never from a client-side
// formula.
type Pool struct {
	viewer    chain.Viewer
	submitter chain.Submitter
	signer    wallet.Signer
	bus       *events.Bus
	collector *metrics.Collector
	logger    *zap.Logger
	module    string

	mu      sync.Mutex
	pending map[string]struct{}
}

// PoolConfig configures the AMM pool client.
type PoolConfig struct {
	Viewer        chain.Viewer
	Submitter     chain.Submitter
	Signer        wallet.Signer
	ModuleAddress string
	Bus           *events.Bus
	Collector     *metrics.Collector
	Logger        *zap.Logger
}

// NewPool creates an AMM pool client.
func NewPool(cfg PoolConfig) *Pool {
	return &Pool{
		viewer:    cfg.Viewer,
		submitter: cfg.Submitter,
		signer:    cfg.Signer,
		bus:       cfg.Bus,
		collector: cfg.Collector,
		logger:    cfg.Logger.Named("amm_pool"),
		module:    cfg.ModuleAddress,
		pending:   make(map[string]struct{}),
	}
}

func (p *Pool) fn(name string) string {
	return chain.FunctionID(p.module, ammModule, name)
}

// Reserves fetches the current pool reserves.
func (p *Pool) Reserves(ctx context.Context) (Reserves, error) {
	out, err := p.viewer.View(ctx, p.fn("reserves"), nil, nil)
	if err != nil {
		return Reserves{}, fmt.Errorf("fetch reserves: %w", err)
	}
	if len(out) < 2 {
		return Reserves{}, fmt.Errorf("fetch reserves: short result")
	}
	base, err := chain.DecodeU64(out[0])
	if err != nil {
		return Reserves{}, err
	}
	quote, err := chain.DecodeU64(out[1])
	if err != nil {
		return Reserves{}, err
	}
	return Reserves{Base: base, Quote: quote}, nil
}

// Quote asks the ledger for the expected output of a swap. Display only;
// the executed price is whatever the pool gives at inclusion time,
// bounded by minOut on the swap itself.
func (p *Pool) Quote(ctx context.Context, amountIn uint64, baseToQuote bool) (uint64, error) {
	out, err := p.viewer.View(ctx, p.fn("quote"), nil,
		[]any{chain.FormatU64(amountIn), baseToQuote})
	if err != nil {
		return 0, fmt.Errorf("fetch quote: %w", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("fetch quote: empty result")
	}
	return chain.DecodeU64(out[0])
}

// Swap submits a swap of amountIn with slippage bound minOut.
func (p *Pool) Swap(ctx context.Context, amountIn, minOut uint64, baseToQuote bool) (string, error) {
	if amountIn == 0 {
		return "", fmt.Errorf("swap amount must be positive")
	}
	key := "swap:quote_to_base"
	if baseToQuote {
		key = "swap:base_to_quote"
	}
	payload := chain.NewEntryFunctionPayload(p.fn("swap"), nil,
		[]any{chain.FormatU64(amountIn), chain.FormatU64(minOut), baseToQuote})
	return p.execute(ctx, "swap", key, payload)
}

// Wrap deposits the native coin into its wrapped pool asset.
func (p *Pool) Wrap(ctx context.Context, amount uint64) (string, error) {
	if amount == 0 {
		return "", fmt.Errorf("wrap amount must be positive")
	}
	payload := chain.NewEntryFunctionPayload(p.fn("wrap"), nil,
		[]any{chain.FormatU64(amount)})
	return p.execute(ctx, "wrap", "wrap", payload)
}

func (p *Pool) execute(ctx context.Context, action, guardKey string, payload chain.EntryFunctionPayload) (string, error) {
	if err := p.acquire(guardKey); err != nil {
		return "", err
	}
	defer p.release(guardKey)

	sender := p.signer.Address()

	signed, err := p.signer.Sign(ctx, payload)
	if err != nil {
		p.recordTransaction(action, false)
		return "", fmt.Errorf("signing failed: %w", err)
	}

	handle, err := p.submitter.Submit(ctx, signed)
	if err != nil {
		p.recordTransaction(action, false)
		p.publish(&events.TransactionFailedEvent{
			BaseEvent: events.NewBase(events.TransactionFailed),
			Action:    action, Sender: sender, Error: err,
		})
		return "", err
	}

	p.publish(&events.TransactionSubmittedEvent{
		BaseEvent: events.NewBase(events.TransactionSubmitted),
		Action:    action, TxHash: handle.Hash, Sender: sender,
	})

	if err := p.submitter.WaitForConfirmation(ctx, handle); err != nil {
		p.recordTransaction(action, false)
		p.publish(&events.TransactionFailedEvent{
			BaseEvent: events.NewBase(events.TransactionFailed),
			Action:    action, TxHash: handle.Hash, Sender: sender, Error: err,
		})
		return handle.Hash, err
	}

	p.recordTransaction(action, true)
	p.publish(&events.TransactionConfirmedEvent{
		BaseEvent: events.NewBase(events.TransactionConfirmed),
		Action:    action, TxHash: handle.Hash, Sender: sender,
	})

	p.logger.Info("Pool transaction confirmed",
		zap.String("action", action),
		zap.String("tx_hash", handle.Hash))
	return handle.Hash, nil
}

func (p *Pool) acquire(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.pending[key]; busy {
		return ErrSwapPending
	}
	p.pending[key] = struct{}{}
	return nil
}

func (p *Pool) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, key)
}

func (p *Pool) publish(event events.Event) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(event); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

func (p *Pool) recordTransaction(action string, success bool) {
	if p.collector != nil {
		p.collector.RecordTransaction(action, success)
	}
}
