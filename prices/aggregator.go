// Package prices merges two independent USD price sources against the asset registry.
package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/defistate/assetregistry-client-go/amount"
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/protocols/tokenregistry/indexer"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// OracleQuote is one oracle answer. USD is nil when the oracle has no USD price.
type OracleQuote struct {
	USD amount.Numberish
}

type OracleFetcher interface {
	// FetchOraclePrices is best-effort: ids the oracle does not know are simply missing.
	FetchOraclePrices(ctx context.Context, ids []string) (map[string]OracleQuote, error)
}

type PrimaryFeedFetcher interface {
	// FetchPrimaryFeedPrices returns USD prices keyed by asset address.
	FetchPrimaryFeedPrices(ctx context.Context) (map[string]amount.Numberish, error)
}

// SnapshotSource provides the registry snapshot a refresh prices against.
type SnapshotSource interface {
	Snapshot() indexer.IndexedTokenSystem
}

type Config struct {
	Registry    SnapshotSource
	Oracle      OracleFetcher
	PrimaryFeed PrimaryFeedFetcher
	Metrics     prometheus.Registerer
	Logger      Logger
}

func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Oracle == nil {
		return errors.New("config: Oracle cannot be nil")
	}
	if c.PrimaryFeed == nil {
		return errors.New("config: PrimaryFeed cannot be nil")
	}
	if c.Metrics == nil {
		return errors.New("config: Metrics cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// Aggregator owns the live address -> price mapping.
type Aggregator struct {
	registry    SnapshotSource
	oracle      OracleFetcher
	primaryFeed PrimaryFeedFetcher
	metrics     *Metrics
	logger      Logger

	mu   sync.Mutex // serializes refreshes
	live atomic.Pointer[map[string]Price]
}

func New(cfg *Config) (*Aggregator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &Aggregator{
		registry:    cfg.Registry,
		oracle:      cfg.Oracle,
		primaryFeed: cfg.PrimaryFeed,
		metrics:     NewMetrics(cfg.Metrics),
		logger:      cfg.Logger,
	}
	empty := map[string]Price{}
	a.live.Store(&empty)
	return a, nil
}

// Refresh rebuilds the price mapping. The oracle pass runs first; the primary-feed pass then
// overwrites any entry for the same address. preloaded, when non-nil, replaces the primary
// feed fetch. Non-positive prices are skipped: absence means no known price.
// On error the previous mapping stays live.
func (a *Aggregator) Refresh(ctx context.Context, preloaded map[string]amount.Numberish) (map[string]Price, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	timer := prometheus.NewTimer(a.metrics.refreshDuration)
	defer timer.ObserveDuration()

	next, err := a.build(ctx, preloaded)
	if err != nil {
		a.metrics.refreshesTotal.WithLabelValues(outcomeFailure).Inc()
		a.logger.Error("Price refresh failed", "error", err)
		return nil, err
	}

	a.live.Store(&next)
	a.metrics.refreshesTotal.WithLabelValues(outcomeSuccess).Inc()
	return copyPrices(next), nil
}

func (a *Aggregator) build(ctx context.Context, preloaded map[string]amount.Numberish) (map[string]Price, error) {
	snap := a.registry.Snapshot()
	next := make(map[string]Price)

	// --- oracle pass ---
	var oracleTokens []tokenregistry.Token
	var ids []string
	seen := make(map[string]struct{})
	for _, t := range snap.All() {
		if !t.HasOracle() || t.Address == tokenregistry.DefaultPublicKey {
			continue
		}
		oracleTokens = append(oracleTokens, t)
		id := t.Extensions.CoingeckoID
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	oracleCount := 0
	if len(ids) > 0 {
		quotes, err := a.oracle.FetchOraclePrices(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch oracle prices: %w", err)
		}
		for _, t := range oracleTokens {
			q, ok := quotes[t.Extensions.CoingeckoID]
			if !ok || q.USD == nil {
				continue
			}
			if a.put(next, t, q.USD, SourceOracle) {
				oracleCount++
			}
		}
	}

	// --- primary feed pass ---
	feed := preloaded
	if feed == nil {
		var err error
		feed, err = a.primaryFeed.FetchPrimaryFeedPrices(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch primary feed prices: %w", err)
		}
	}

	primaryCount, overwritten := 0, 0
	for address, n := range feed {
		t, ok := snap.GetByAddress(tokenregistry.NormalizeAddress(address))
		if !ok {
			continue
		}
		_, had := next[t.Address]
		if a.put(next, t, n, SourcePrimaryFeed) {
			primaryCount++
			if had {
				overwritten++
			}
		}
	}

	a.metrics.priced.WithLabelValues(SourceOracle.String()).Set(float64(oracleCount - overwritten))
	a.metrics.priced.WithLabelValues(SourcePrimaryFeed.String()).Set(float64(primaryCount))
	a.logger.Info("Prices refreshed",
		"oracle_ids", len(ids),
		"oracle_prices", oracleCount,
		"primary_prices", primaryCount,
		"overwritten", overwritten,
		"total", len(next),
	)
	return next, nil
}

// put stores the price for t unless it is malformed or non-positive.
func (a *Aggregator) put(dst map[string]Price, t tokenregistry.Token, n amount.Numberish, src Source) bool {
	p, err := FromNumber(t, n, true)
	if err != nil {
		a.logger.Warn("Skipping malformed price", "address", t.Address, "source", src, "error", err)
		return false
	}
	if p.Value.Sign() <= 0 {
		return false
	}
	p.Source = src
	dst[t.Address] = p
	return true
}

// Price returns the live price for address.
func (a *Aggregator) Price(address string) (Price, bool) {
	p, ok := (*a.live.Load())[tokenregistry.NormalizeAddress(address)]
	return p, ok
}

// Prices returns a copy of the live mapping.
func (a *Aggregator) Prices() map[string]Price {
	return copyPrices(*a.live.Load())
}

func copyPrices(m map[string]Price) map[string]Price {
	out := make(map[string]Price, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
