// internal/treasury/strategy.go
package treasury

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/floorlab/floorbot/internal/market"
	"github.com/floorlab/floorbot/internal/poller"
)

// ErrSweepInFlight is returned when a sweep is already running. Only one
// sweep executes at a time.
var ErrSweepInFlight = errors.New("sweep already in flight")

// Views is the derived-state surface the strategy reads.
// *poller.Service implements it.
type Views interface {
	Floor(ctx context.Context) market.FloorResult
	Invalidate(keys ...string)
}

// Trader is the write surface the strategy drives. *market.Actions
// implements it.
type Trader interface {
	Buy(ctx context.Context, token string) (string, error)
	Burn(ctx context.Context, amount uint64) (string, error)
}

// Config configures the sweep strategy.
type Config struct {
	Views  Views
	Trader Trader
	// Budget is the highest floor price the strategy will pay, in the
	// ledger's smallest unit. Zero disables sweeping.
	Budget uint64
	// BurnAmount is burned after each successful sweep. Zero skips the
	// burn step.
	BurnAmount uint64
	Interval   time.Duration
	Logger     *zap.Logger
}

// Strategy periodically buys the floor-priced listing when it fits the
// budget and burns the reward token afterwards. The scan engine already
// excludes the treasury's own listings from the floor, so the strategy
// never buys back its own relisted inventory.
type Strategy struct {
	views      Views
	trader     Trader
	budget     uint64
	burnAmount uint64
	interval   time.Duration
	logger     *zap.Logger

	sweeping atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewStrategy creates the sweep strategy.
func NewStrategy(cfg Config) *Strategy {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Strategy{
		views:      cfg.Views,
		trader:     cfg.Trader,
		budget:     cfg.Budget,
		burnAmount: cfg.BurnAmount,
		interval:   interval,
		logger:     cfg.Logger.Named("treasury"),
	}
}

// Start launches the periodic sweep loop.
func (s *Strategy) Start(ctx context.Context) {
	if s.budget == 0 {
		s.logger.Info("Sweep budget is zero, strategy disabled")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SweepOnce(ctx); err != nil && !errors.Is(err, ErrSweepInFlight) {
					s.logger.Error("Sweep failed, waiting for next interval", zap.Error(err))
				}
			}
		}
	}()
}

// Stop shuts the strategy down. An in-flight sweep finishes on its own.
func (s *Strategy) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SweepOnce evaluates the floor once and, if it fits the budget, buys it
// and burns the configured reward amount. Failures surface to the caller
// and are never retried automatically.
func (s *Strategy) SweepOnce(ctx context.Context) error {
	if !s.sweeping.CompareAndSwap(false, true) {
		return ErrSweepInFlight
	}
	defer s.sweeping.Store(false)

	result := s.views.Floor(ctx)
	if result.Floor == nil {
		s.logger.Debug("No eligible floor listing")
		return nil
	}

	floor := result.Floor
	if floor.Price > s.budget {
		s.logger.Debug("Floor above budget",
			zap.String("price", market.FormatAmount(floor.Price)),
			zap.String("budget", market.FormatAmount(s.budget)),
			zap.Uint64("token_index", floor.Token.Index))
		return nil
	}

	s.logger.Info("Sweeping floor listing",
		zap.Uint64("token_index", floor.Token.Index),
		zap.String("token", floor.Token.Object),
		zap.String("seller", floor.Seller),
		zap.String("price", market.FormatAmount(floor.Price)))

	txHash, err := s.trader.Buy(ctx, floor.Token.Object)
	if err != nil {
		return err
	}
	s.logger.Info("Floor listing bought", zap.String("tx_hash", txHash))

	if s.burnAmount > 0 {
		burnTx, err := s.trader.Burn(ctx, s.burnAmount)
		if err != nil {
			// The buy already settled; the burn failing is its own event.
			s.logger.Error("Burn after sweep failed", zap.Error(err))
			return err
		}
		s.logger.Info("Reward token burned",
			zap.String("tx_hash", burnTx),
			zap.String("amount", market.FormatAmount(s.burnAmount)))
	}

	s.views.Invalidate(poller.KeyFloor, poller.KeyListings)
	return nil
}
