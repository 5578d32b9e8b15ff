// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/floorlab/floorbot/internal/addr"
	"github.com/floorlab/floorbot/internal/amm"
	"github.com/floorlab/floorbot/internal/chain"
	"github.com/floorlab/floorbot/internal/config"
	"github.com/floorlab/floorbot/internal/events"
	"github.com/floorlab/floorbot/internal/market"
	"github.com/floorlab/floorbot/internal/metrics"
	"github.com/floorlab/floorbot/internal/poller"
	"github.com/floorlab/floorbot/internal/treasury"
	"github.com/floorlab/floorbot/internal/wallet"
)

// Runner wires the daemon together: chain client, scan engine, poller,
// AMM pool client and the treasury sweep strategy.
type Runner struct {
	logger     *zap.Logger
	config     *config.Config
	client     *chain.Client
	bus        *events.Bus
	collector  *metrics.Collector
	registry   *prometheus.Registry
	poller     *poller.Service
	pool       *amm.Pool
	strategy   *treasury.Strategy
	accounts   map[string]wallet.Account
	shutdownCh chan os.Signal
}

// NewRunner builds the daemon from configuration. Every dependency is
// constructed here once and injected; nothing is ambient.
func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	endpoint, err := cfg.Endpoint()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	client := chain.NewClient(endpoint, logger, chain.Options{
		ConfirmTimeout: time.Duration(cfg.ConfirmTimeout) * time.Millisecond,
		Collector:      collector,
	})

	bus := events.NewBus(logger, 256)

	contract := market.Contract{ModuleAddress: cfg.ModuleAddress}
	scanner := market.NewScanner(market.ScannerConfig{
		Viewer:     client,
		Contract:   contract,
		Creator:    cfg.ModuleAddress,
		Treasury:   cfg.TreasuryAddress,
		BatchWidth: cfg.BatchWidth,
		Logger:     logger,
		Collector:  collector,
	})

	pollerSvc := poller.NewService(poller.Config{
		Scans:           scanner,
		Bus:             bus,
		Collector:       collector,
		Logger:          logger,
		RefreshInterval: time.Duration(cfg.RefreshDelay) * time.Millisecond,
		StaleTime:       time.Duration(cfg.StaleDelay) * time.Millisecond,
		RefetchOnFocus:  cfg.RefetchOnFocus,
	})

	r := &Runner{
		logger:     logger.Named("runner"),
		config:     cfg,
		client:     client,
		bus:        bus,
		collector:  collector,
		registry:   registry,
		poller:     pollerSvc,
		shutdownCh: make(chan os.Signal, 1),
	}

	if cfg.WalletsFile != "" {
		accounts, err := wallet.LoadAccounts(cfg.WalletsFile)
		if err != nil {
			return nil, fmt.Errorf("load account book: %w", err)
		}
		r.accounts = accounts
	}

	// The write path and the strategy need a signer; without a bridge the
	// daemon runs read-only.
	if cfg.WalletBridgeURL != "" {
		signer := wallet.NewBridgeSigner(cfg.WalletBridgeURL, cfg.TreasuryAddress)

		actions := market.NewActions(market.ActionsConfig{
			Submitter: client,
			Signer:    signer,
			Contract:  contract,
			Bus:       bus,
			Collector: collector,
			Logger:    logger,
		})

		r.pool = amm.NewPool(amm.PoolConfig{
			Viewer:        client,
			Submitter:     client,
			Signer:        signer,
			ModuleAddress: cfg.ModuleAddress,
			Bus:           bus,
			Collector:     collector,
			Logger:        logger,
		})

		r.strategy = treasury.NewStrategy(treasury.Config{
			Views:      pollerSvc,
			Trader:     actions,
			Budget:     cfg.SweepBudget,
			BurnAmount: cfg.BurnAmount,
			Interval:   time.Duration(cfg.SweepDelay) * time.Millisecond,
			Logger:     logger,
		})
	} else {
		r.logger.Info("No wallet bridge configured, running read-only")
	}

	return r, nil
}

// Run starts all services and blocks until a shutdown signal arrives.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sig := <-r.shutdownCh
		r.logger.Info("Signal received: " + sig.String())
		cancel()
	}()

	shutdown := NewShutdownHandler(r.logger, 30*time.Second)

	metricsSrv := r.startMetricsServer()
	shutdown.Add("metrics_server", CloseFunc(func() error {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		return metricsSrv.Shutdown(sctx)
	}))

	r.poller.Start(runCtx)
	shutdown.Add("poller", CloseFunc(func() error {
		r.poller.Stop()
		return nil
	}))

	if r.strategy != nil {
		r.strategy.Start(runCtx)
		shutdown.Add("treasury_strategy", CloseFunc(func() error {
			r.strategy.Stop()
			return nil
		}))
	}

	shutdown.Add("event_bus", CloseFunc(func() error {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		return r.bus.Shutdown(sctx)
	}))

	r.prime(runCtx)

	r.logger.Info("Daemon started",
		zap.String("network", r.config.Network),
		zap.String("module_address", r.config.ModuleAddress),
		zap.Int("batch_width", r.config.BatchWidth))

	<-runCtx.Done()
	shutdown.Shutdown()
	return nil
}

// prime seeds the poller with every view the daemon tracks so the
// background refresh loop keeps them warm from the start.
func (r *Runner) prime(ctx context.Context) {
	listings := r.poller.Listings(ctx)
	floor := r.poller.Floor(ctx)

	r.logger.Info("Initial scan complete",
		zap.Int("listings", listings.Total),
		zap.Int("eligible_listings", floor.TotalListings))

	for name, account := range r.accounts {
		holdings := r.poller.Holdings(ctx, account.Address)
		r.logger.Info("Account holdings",
			zap.String("account", name),
			zap.String("address", addr.Short(account.Address)),
			zap.Int("tokens", holdings.Total))
	}

	if r.pool != nil {
		reserves, err := r.pool.Reserves(ctx)
		if err != nil {
			r.logger.Warn("Failed to fetch pool reserves", zap.Error(err))
			return
		}
		r.logger.Info("Pool reserves",
			zap.String("base", market.FormatAmount(reserves.Base)),
			zap.String("quote", market.FormatAmount(reserves.Quote)))
	}
}

func (r *Runner) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              r.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		r.logger.Info("Metrics server listening", zap.String("addr", r.config.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	return srv
}

// Version is set at build time.
var Version = "dev"

// Banner returns the startup banner line.
func Banner() string {
	return fmt.Sprintf("floorbot %s", Version)
}
