// internal/market/actions.go
package market

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

// ErrActionPending is returned when a transaction for the same item is
// already in flight. The guard is keyed per item: a pending action for
// token X blocks only actions on token X.
var ErrActionPending = errors.New("action already pending for this item")

// Actions is the write path of the marketplace: it builds entry function
// payloads, hands them to the wallet boundary for signing, submits and
// waits for confirmation. Failures are surfaced verbatim, never retried;
// the user re-triggers the action.
type Actions struct {
	submitter chain.Submitter
	signer    wallet.Signer
	contract  Contract
	bus       *events.Bus
	collector *metrics.Collector
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// ActionsConfig configures the marketplace write path.
type ActionsConfig struct {
	Submitter chain.Submitter
	Signer    wallet.Signer
	Contract  Contract
	Bus       *events.Bus
	Collector *metrics.Collector
	Logger    *zap.Logger
}

// NewActions creates the marketplace write path.
func NewActions(cfg ActionsConfig) *Actions {
	return &Actions{
		submitter: cfg.Submitter,
		signer:    cfg.Signer,
		contract:  cfg.Contract,
		bus:       cfg.Bus,
		collector: cfg.Collector,
		logger:    cfg.Logger.Named("market_actions"),
		pending:   make(map[string]struct{}),
	}
}

// Mint mints the next token of the collection to the signer.
func (a *Actions) Mint(ctx context.Context) (string, error) {
	payload := chain.NewEntryFunctionPayload(a.contract.MintFn(), nil, nil)
	return a.execute(ctx, "mint", "mint:"+a.signer.Address(), "", payload)
}

// List escrows the token with the marketplace at the given price.
func (a *Actions) List(ctx context.Context, token string, price uint64) (string, error) {
	if price == 0 {
		return "", fmt.Errorf("listing price must be positive")
	}
	payload := chain.NewEntryFunctionPayload(a.contract.ListFn(), nil,
		[]any{token, chain.FormatU64(price)})
	return a.execute(ctx, "list", token, token, payload)
}

// Delist withdraws the token from marketplace escrow.
func (a *Actions) Delist(ctx context.Context, token string) (string, error) {
	payload := chain.NewEntryFunctionPayload(a.contract.DelistFn(), nil, []any{token})
	return a.execute(ctx, "delist", token, token, payload)
}

// Buy purchases the listed token at its recorded price.
func (a *Actions) Buy(ctx context.Context, token string) (string, error) {
	payload := chain.NewEntryFunctionPayload(a.contract.BuyFn(), nil, []any{token})
	return a.execute(ctx, "buy", token, token, payload)
}

// Burn burns the given amount of the reward token held by the signer.
func (a *Actions) Burn(ctx context.Context, amount uint64) (string, error) {
	if amount == 0 {
		return "", fmt.Errorf("burn amount must be positive")
	}
	payload := chain.NewEntryFunctionPayload(a.contract.BurnFn(), nil,
		[]any{chain.FormatU64(amount)})
	return a.execute(ctx, "burn", "burn:"+a.signer.Address(), "", payload)
}

// execute runs the sign-submit-confirm pipeline under the per-item guard.
func (a *Actions) execute(ctx context.Context, action, guardKey, token string, payload chain.EntryFunctionPayload) (string, error) {
	if err := a.acquire(guardKey); err != nil {
		return "", err
	}
	defer a.release(guardKey)

	sender := a.signer.Address()

	signed, err := a.signer.Sign(ctx, payload)
	if err != nil {
		a.recordTransaction(action, false)
		return "", fmt.Errorf("signing failed: %w", err)
	}

	handle, err := a.submitter.Submit(ctx, signed)
	if err != nil {
		a.recordTransaction(action, false)
		a.publish(&events.TransactionFailedEvent{
			BaseEvent: events.NewBase(events.TransactionFailed),
			Action:    action, Sender: sender, Token: token, Error: err,
		})
		return "", err
	}

	a.publish(&events.TransactionSubmittedEvent{
		BaseEvent: events.NewBase(events.TransactionSubmitted),
		Action:    action, TxHash: handle.Hash, Sender: sender, Token: token,
	})

	if err := a.submitter.WaitForConfirmation(ctx, handle); err != nil {
		a.recordTransaction(action, false)
		a.publish(&events.TransactionFailedEvent{
			BaseEvent: events.NewBase(events.TransactionFailed),
			Action:    action, TxHash: handle.Hash, Sender: sender, Token: token, Error: err,
		})
		return handle.Hash, err
	}

	a.recordTransaction(action, true)
	a.publish(&events.TransactionConfirmedEvent{
		BaseEvent: events.NewBase(events.TransactionConfirmed),
		Action:    action, TxHash: handle.Hash, Sender: sender, Token: token,
	})

	a.logger.Info("Transaction confirmed",
		zap.String("action", action),
		zap.String("tx_hash", handle.Hash),
		zap.String("token", token))
	return handle.Hash, nil
}

func (a *Actions) acquire(key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.pending[key]; busy {
		return ErrActionPending
	}
	a.pending[key] = struct{}{}
	return nil
}

func (a *Actions) release(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, key)
}

func (a *Actions) publish(event events.Event) {
	if a.bus == nil {
		return
	}
	if err := a.bus.Publish(event); err != nil {
		a.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

func (a *Actions) recordTransaction(action string, success bool) {
	if a.collector != nil {
		a.collector.RecordTransaction(action, success)
	}
}
