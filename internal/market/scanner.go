// internal/market/scanner.go
package market

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/floorlab/floorbot/internal/addr"
	"github.com/floorlab/floorbot/internal/chain"
	"github.com/floorlab/floorbot/internal/metrics"
)

// DefaultBatchWidth bounds concurrent view calls per scan round.
const DefaultBatchWidth = 10

// Scanner enumerates the full token-index space and derives aggregate
// views. There is no ledger-side index to lean on, so every scan is a
// clean-slate reconstruction from point queries: resolve the collection
// and its supply, then walk [1, supply] in bounded-concurrency batches,
// probing each token.
//
// Failure policy: a per-item failure drops that item and nothing else; a
// collection/supply failure degrades the whole scan to the view's empty
// form. Neither ever escapes as an error.
type Scanner struct {
	enumerator *Enumerator
	resolver   *Resolver
	prober     *Prober
	creator    string
	treasury   string
	batchWidth int
	logger     *zap.Logger
	collector  *metrics.Collector
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	Viewer   chain.Viewer
	Contract Contract
	// Creator is the collection creator account.
	Creator string
	// Treasury is the self-dealing exclusion: its listings never count
	// toward the floor.
	Treasury   string
	BatchWidth int
	Logger     *zap.Logger
	Collector  *metrics.Collector
}

// NewScanner creates a scan engine.
func NewScanner(cfg ScannerConfig) *Scanner {
	width := cfg.BatchWidth
	if width <= 0 {
		width = DefaultBatchWidth
	}
	return &Scanner{
		enumerator: NewEnumerator(cfg.Viewer, cfg.Contract),
		resolver:   NewResolver(cfg.Viewer, cfg.Contract),
		prober:     NewProber(cfg.Viewer, cfg.Contract),
		creator:    addr.Normalize(cfg.Creator),
		treasury:   addr.Normalize(cfg.Treasury),
		batchWidth: width,
		logger:     cfg.Logger.Named("scanner"),
		collector:  cfg.Collector,
	}
}

// Holdings scans for tokens claimed by owner: directly owned, or held in
// marketplace escrow with owner recorded as seller. A listed token
// accrues to its seller, never to the escrow construct that technically
// owns it.
func (s *Scanner) Holdings(ctx context.Context, owner string) HoldingsResult {
	start := time.Now()
	target := addr.Normalize(owner)
	result := HoldingsResult{Items: []Holding{}}

	collection, supply, ok := s.enumerate(ctx)
	if !ok {
		s.recordScan("holdings", 0, start)
		return result
	}

	var mu sync.Mutex
	s.forEachToken(ctx, collection, supply, func(ctx context.Context, ref TokenRef) {
		listing := s.prober.ProbeListing(ctx, ref.Object)
		switch listing.Status {
		case ProbeFound:
			if addr.Equal(listing.Seller, target) {
				mu.Lock()
				result.Items = append(result.Items, Holding{
					Token:  ref,
					Owner:  target,
					Listed: true,
					Price:  listing.Price,
				})
				mu.Unlock()
			}
			return
		case ProbeTransportError:
			s.dropItem("listing", ref, listing.Err)
			return
		}

		ownerProbe := s.prober.ProbeOwner(ctx, ref.Object)
		if ownerProbe.Status != ProbeFound {
			s.dropItem("owner", ref, ownerProbe.Err)
			return
		}
		if addr.Equal(ownerProbe.Owner, target) {
			mu.Lock()
			result.Items = append(result.Items, Holding{Token: ref, Owner: ownerProbe.Owner})
			mu.Unlock()
		}
	})

	sortHoldings(result.Items)
	result.Total = len(result.Items)
	s.recordScan("holdings", result.Total, start)
	return result
}

// Listings scans for all active listings, any seller.
func (s *Scanner) Listings(ctx context.Context) ListingsResult {
	start := time.Now()
	result := ListingsResult{Items: []Listing{}}

	collection, supply, ok := s.enumerate(ctx)
	if !ok {
		s.recordScan("listings", 0, start)
		return result
	}

	var mu sync.Mutex
	s.forEachToken(ctx, collection, supply, func(ctx context.Context, ref TokenRef) {
		listing := s.prober.ProbeListing(ctx, ref.Object)
		switch listing.Status {
		case ProbeFound:
			mu.Lock()
			result.Items = append(result.Items, Listing{
				Token:  ref,
				Seller: listing.Seller,
				Price:  listing.Price,
			})
			mu.Unlock()
		case ProbeTransportError:
			s.dropItem("listing", ref, listing.Err)
		}
	})

	sortListings(result.Items)
	result.Total = len(result.Items)
	s.recordScan("listings", result.Total, start)
	return result
}

// Floor scans for the cheapest active listing, excluding listings whose
// seller is the treasury (the strategy must not buy back its own
// inventory). Ties resolve to whichever listing settled first; within a
// batch that order is not deterministic, and any listing tied for the
// minimum is an acceptable floor.
func (s *Scanner) Floor(ctx context.Context) FloorResult {
	start := time.Now()
	result := FloorResult{}

	collection, supply, ok := s.enumerate(ctx)
	if !ok {
		s.recordScan("floor", 0, start)
		return result
	}

	var mu sync.Mutex
	s.forEachToken(ctx, collection, supply, func(ctx context.Context, ref TokenRef) {
		listing := s.prober.ProbeListing(ctx, ref.Object)
		switch listing.Status {
		case ProbeFound:
			if addr.Equal(listing.Seller, s.treasury) {
				return
			}
			mu.Lock()
			result.TotalListings++
			if result.Floor == nil || listing.Price < result.Floor.Price {
				result.Floor = &Listing{Token: ref, Seller: listing.Seller, Price: listing.Price}
			}
			mu.Unlock()
		case ProbeTransportError:
			s.dropItem("listing", ref, listing.Err)
		}
	})

	s.recordScan("floor", result.TotalListings, start)
	return result
}

// enumerate resolves the collection and its supply. Any failure here
// degrades to an empty scan: the caller cannot distinguish "genuinely
// empty" from "fullnode unreachable" through the view boundary, so the
// error level log and the metric are the operational escape hatch.
func (s *Scanner) enumerate(ctx context.Context) (string, uint64, bool) {
	collection, err := s.enumerator.CollectionAddress(ctx, s.creator)
	if err != nil {
		s.logger.Error("Collection resolution failed, returning empty view",
			zap.String("creator", s.creator),
			zap.Error(err))
		s.recordEnumerationFailure()
		return "", 0, false
	}

	supply, err := s.enumerator.Supply(ctx, collection)
	if err != nil {
		s.logger.Error("Supply lookup failed, returning empty view",
			zap.String("collection", collection),
			zap.Error(err))
		s.recordEnumerationFailure()
		return "", 0, false
	}
	return collection, supply, true
}

// forEachToken walks [1, supply] in contiguous batches of batchWidth:
// concurrent within a batch, a full settle barrier between batches. The
// barrier is deliberate backpressure against the fullnode, not a
// throughput optimization.
func (s *Scanner) forEachToken(ctx context.Context, collection string, supply uint64, pipeline func(context.Context, TokenRef)) {
	width := uint64(s.batchWidth)
	for batchStart := uint64(1); batchStart <= supply; batchStart += width {
		batchEnd := batchStart + width - 1
		if batchEnd > supply {
			batchEnd = supply
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := batchStart; i <= batchEnd; i++ {
			index := i
			g.Go(func() error {
				token, err := s.resolver.TokenAtIndex(gctx, collection, index)
				if err != nil {
					// Burned or unreachable: this index contributes nothing.
					s.dropItem("resolve", TokenRef{Index: index, Collection: collection}, err)
					return nil
				}
				pipeline(gctx, TokenRef{Index: index, Object: token, Collection: collection})
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			s.logger.Debug("Scan cancelled between batches",
				zap.Uint64("last_index", batchEnd))
			return
		}
	}
}

func (s *Scanner) dropItem(stage string, ref TokenRef, err error) {
	s.logger.Debug("Dropping token from scan",
		zap.String("stage", stage),
		zap.Uint64("index", ref.Index),
		zap.String("token", ref.Object),
		zap.Error(err))
	if s.collector != nil {
		s.collector.RecordProbeFailure(stage)
	}
}

func (s *Scanner) recordScan(view string, items int, start time.Time) {
	if s.collector != nil {
		s.collector.RecordScan(view, items, time.Since(start))
	}
}

func (s *Scanner) recordEnumerationFailure() {
	if s.collector != nil {
		s.collector.RecordEnumerationFailure()
	}
}

func sortHoldings(items []Holding) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Token.Index < items[j].Token.Index
	})
}

func sortListings(items []Listing) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Token.Index < items[j].Token.Index
	})
}
