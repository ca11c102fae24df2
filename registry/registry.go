// Package registry maintains the merged, deduplicated catalogue of asset descriptors.
//
// A full rebuild merges the catalogues into a fresh immutable snapshot which is published
// by swapping an atomic pointer. Readers never take a lock and observe either the old or the
// new snapshot, never a mix. Writers (rebuilds and single-asset insertions) serialize on a mutex.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/protocols/tokenregistry/indexer"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the collaborators and dependencies of a Registry.
type Config struct {
	Catalogues CatalogueFetcher
	Metadata   MetadataFetcher
	Ledger     LedgerFetcher
	DecodeMint MintDecoder
	// Store is optional; without it the supplemental list lives only in memory.
	Store SupplementalStore
	// NativeAsset defaults to tokenregistry.NativeSOL.
	NativeAsset *tokenregistry.Token
	// NativeAliases are extra addresses that resolve to the native descriptor.
	// Defaults to the wrapped-native mint.
	NativeAliases []string
	Registry      prometheus.Registerer
	Logger        Logger
}

func (c *Config) validate() error {
	if c.Catalogues == nil {
		return errors.New("config: Catalogues cannot be nil")
	}
	if c.Metadata == nil {
		return errors.New("config: Metadata cannot be nil")
	}
	if c.Ledger == nil {
		return errors.New("config: Ledger cannot be nil")
	}
	if c.DecodeMint == nil {
		return errors.New("config: DecodeMint cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.NativeAsset != nil && tokenregistry.NormalizeAddress(c.NativeAsset.Address) == "" {
		return errors.New("config: NativeAsset must have an address")
	}
	return nil
}

// snapshot is one published registry state. It is never mutated after publication.
type snapshot struct {
	system     indexer.IndexedTokenSystem
	tokens     []tokenregistry.Token
	blacklist  []tokenregistry.Token
	generation uint64
}

type Registry struct {
	catalogues CatalogueFetcher
	metadata   MetadataFetcher
	ledger     LedgerFetcher
	decodeMint MintDecoder
	store      SupplementalStore
	native     tokenregistry.Token
	aliases    map[string]struct{}
	indexer    *indexer.Indexer
	metrics    *Metrics
	logger     Logger

	mu           sync.RWMutex
	supplemental []tokenregistry.Token
	current      atomic.Pointer[snapshot]
}

// New creates a Registry holding only the native descriptor until the first Load.
func New(cfg *Config) (*Registry, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	native := tokenregistry.NativeSOL
	if cfg.NativeAsset != nil {
		native = *cfg.NativeAsset
	}
	native = native.WithProvenance(tokenregistry.ProvenanceOfficial)

	aliasList := cfg.NativeAliases
	if aliasList == nil {
		aliasList = []string{tokenregistry.NativeMint}
	}
	aliases := make(map[string]struct{}, len(aliasList)+1)
	aliases[native.Address] = struct{}{}
	for _, a := range aliasList {
		aliases[tokenregistry.NormalizeAddress(a)] = struct{}{}
	}

	r := &Registry{
		catalogues: cfg.Catalogues,
		metadata:   cfg.Metadata,
		ledger:     cfg.Ledger,
		decodeMint: cfg.DecodeMint,
		store:      cfg.Store,
		native:     native,
		aliases:    aliases,
		indexer:    indexer.New(),
		metrics:    NewMetrics(cfg.Registry),
		logger:     cfg.Logger,
	}

	initial := Merge(native, Catalogues{}, nil)
	r.current.Store(&snapshot{
		system:    r.indexer.Index(initial.Tokens, initial.Blacklist),
		tokens:    initial.Tokens,
		blacklist: initial.Blacklist,
	})
	r.observe(r.current.Load())
	return r, nil
}

// Load fetches the catalogues and publishes a rebuilt snapshot. On any error the
// previously published snapshot stays in place.
func (r *Registry) Load(ctx context.Context, params LoadParams) (tokenregistry.TokenSystemDiff, error) {
	timer := prometheus.NewTimer(r.metrics.loadDuration)
	defer timer.ObserveDuration()

	cats, err := r.catalogues.FetchAssetCatalogues(ctx, params.ForceUpdate)
	if err != nil {
		r.metrics.loadsTotal.WithLabelValues(outcomeFailure).Inc()
		r.logger.Error("Failed to fetch asset catalogues", "error", err)
		return tokenregistry.TokenSystemDiff{}, fmt.Errorf("fetch asset catalogues: %w", err)
	}
	if err := ctx.Err(); err != nil {
		r.metrics.loadsTotal.WithLabelValues(outcomeFailure).Inc()
		return tokenregistry.TokenSystemDiff{}, err
	}

	diff := r.Publish(cats)
	r.metrics.loadsTotal.WithLabelValues(outcomeSuccess).Inc()
	return diff, nil
}

// Publish rebuilds the registry from already fetched catalogues and the current supplemental
// list, then swaps the new snapshot in. It returns the change versus the previous snapshot.
func (r *Registry) Publish(cats Catalogues) tokenregistry.TokenSystemDiff {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := Merge(r.native, cats, r.supplemental)
	prev := r.current.Load()
	next := &snapshot{
		system:     r.indexer.Index(merged.Tokens, merged.Blacklist),
		tokens:     merged.Tokens,
		blacklist:  merged.Blacklist,
		generation: prev.generation + 1,
	}
	diff := tokenregistry.Differ(prev.tokens, next.tokens)
	r.current.Store(next)

	r.observe(next)
	r.recordDiff(diff)
	groups := next.system.Groups()
	r.logger.Info("Registry snapshot published",
		"generation", next.generation,
		"assets", next.system.Len(),
		"blacklisted", len(next.blacklist),
		"official", groups.Official.Cardinality(),
		"secondary", groups.Secondary.Cardinality(),
		"supplemental", groups.Supplemental.Cardinality(),
		"additions", len(diff.Additions),
		"updates", len(diff.Updates),
		"deletions", len(diff.Deletions),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return diff
}

// ResolveAsset returns the descriptor for address, looking it up outside the catalogues when
// the registry does not hold it. Attempts, each terminal on success: the native asset, the
// published snapshot, the metadata collaborator, the ledger account.
// Newly resolved assets are inserted without downgrading an existing entry and are appended
// to the supplemental list. Collaborator errors are returned unchanged in the chain.
func (r *Registry) ResolveAsset(ctx context.Context, address string) (tokenregistry.Token, error) {
	addr := tokenregistry.NormalizeAddress(address)
	if addr == "" {
		return tokenregistry.Token{}, fmt.Errorf("%w: empty address", ErrAssetNotFound)
	}

	if _, ok := r.aliases[addr]; ok {
		r.metrics.resolvesTotal.WithLabelValues(pathNative).Inc()
		return r.native.Clone(), nil
	}

	if t, ok := r.current.Load().system.GetByAddress(addr); ok {
		r.metrics.resolvesTotal.WithLabelValues(pathCached).Inc()
		return t, nil
	}

	start := time.Now()
	t, path, err := r.resolveExternal(ctx, addr)
	r.metrics.resolvesTotal.WithLabelValues(path).Inc()
	r.metrics.resolveLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		return tokenregistry.Token{}, err
	}
	return r.insert(t), nil
}

func (r *Registry) resolveExternal(ctx context.Context, addr string) (tokenregistry.Token, string, error) {
	meta, err := r.metadata.FetchSingleAssetMetadata(ctx, addr)
	if err != nil {
		r.logger.Warn("Asset metadata lookup failed", "address", addr, "error", err)
		return tokenregistry.Token{}, pathError, fmt.Errorf("fetch asset metadata for %s: %w", addr, err)
	}
	if meta != nil {
		t := meta.WithProvenance(tokenregistry.ProvenanceSupplemental)
		t.Address = addr
		if t.Symbol == "" {
			t.Symbol = tokenregistry.TruncatedSymbol(addr)
		}
		if t.Name == "" {
			t.Name = tokenregistry.TruncatedSymbol(addr)
		}
		r.logger.Debug("Asset resolved from metadata index", "address", addr, "symbol", t.Symbol)
		return t, pathMetadata, nil
	}

	acct, err := r.ledger.FetchLedgerAccount(ctx, addr)
	if err != nil {
		r.logger.Warn("Ledger account lookup failed", "address", addr, "error", err)
		return tokenregistry.Token{}, pathError, fmt.Errorf("fetch ledger account %s: %w", addr, err)
	}
	if acct == nil {
		r.logger.Debug("Asset not found on ledger", "address", addr)
		return tokenregistry.Token{}, pathNotFound, fmt.Errorf("%w: %w: %s", ErrAssetNotFound, ErrLedgerAccountNotFound, addr)
	}

	layout, err := r.decodeMint(acct.Data)
	if err != nil {
		return tokenregistry.Token{}, pathError, fmt.Errorf("decode mint %s: %w", addr, err)
	}

	symbol := tokenregistry.TruncatedSymbol(addr)
	t := tokenregistry.Token{
		ChainID:   r.native.ChainID,
		Address:   addr,
		ProgramID: acct.Owner,
		Symbol:    symbol,
		Name:      symbol,
		Decimals:  layout.Decimals,
		Tags:      []string{},
	}
	if layout.FreezeAuthority != "" {
		t.Tags = append(t.Tags, tokenregistry.TagHasFreeze)
	}
	t = t.WithProvenance(tokenregistry.ProvenanceOnChainFallback)
	r.logger.Debug("Asset resolved from ledger account", "address", addr, "decimals", t.Decimals)
	return t, pathLedger, nil
}

// insert adds t to the published snapshot unless an entry already exists for its address,
// in which case the existing entry is returned. Blacklisted assets are returned but not inserted.
func (r *Registry) insert(t tokenregistry.Token) tokenregistry.Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	if existing, ok := cur.system.GetByAddress(t.Address); ok {
		return existing
	}
	if cur.system.IsBlacklisted(t.Address) {
		r.logger.Warn("Resolved asset is blacklisted, not inserting", "address", t.Address)
		return t
	}

	diff := tokenregistry.TokenSystemDiff{Additions: []tokenregistry.Token{t}}
	tokens, err := tokenregistry.Patcher(cur.tokens, diff)
	if err != nil {
		// additions never fail to patch
		r.logger.Error("Failed to patch snapshot", "address", t.Address, "error", err)
		return t
	}

	next := &snapshot{
		system:     r.indexer.Index(tokens, cur.blacklist),
		tokens:     tokens,
		blacklist:  cur.blacklist,
		generation: cur.generation + 1,
	}
	r.current.Store(next)
	r.appendSupplementalLocked(t)

	r.observe(next)
	r.recordDiff(diff)
	r.logger.Info("Asset added to registry", "address", t.Address, "provenance", t.Provenance, "generation", next.generation)
	return t.Clone()
}

func (r *Registry) observe(s *snapshot) {
	counts := map[tokenregistry.Provenance]int{
		tokenregistry.ProvenanceOfficial:        0,
		tokenregistry.ProvenanceSecondary:       0,
		tokenregistry.ProvenanceSupplemental:    0,
		tokenregistry.ProvenanceOnChainFallback: 0,
	}
	for _, t := range s.tokens {
		counts[t.Provenance]++
	}
	for p, n := range counts {
		r.metrics.assets.WithLabelValues(p.String()).Set(float64(n))
	}
	r.metrics.blacklisted.Set(float64(len(s.blacklist)))
}

func (r *Registry) recordDiff(diff tokenregistry.TokenSystemDiff) {
	r.metrics.snapshotDiff.WithLabelValues("addition").Add(float64(len(diff.Additions)))
	r.metrics.snapshotDiff.WithLabelValues("update").Add(float64(len(diff.Updates)))
	r.metrics.snapshotDiff.WithLabelValues("deletion").Add(float64(len(diff.Deletions)))
}

// --- Read Methods ---

// Snapshot returns the currently published snapshot. It is immutable and safe to share.
func (r *Registry) Snapshot() indexer.IndexedTokenSystem {
	return r.current.Load().system
}

// Generation counts published snapshots since construction.
func (r *Registry) Generation() uint64 {
	return r.current.Load().generation
}

// Native returns the native descriptor.
func (r *Registry) Native() tokenregistry.Token {
	return r.native.Clone()
}

// GetByAddress looks address up in the published snapshot.
func (r *Registry) GetByAddress(address string) (tokenregistry.Token, bool) {
	return r.current.Load().system.GetByAddress(tokenregistry.NormalizeAddress(address))
}

// TokenList returns the live assets in insertion order.
func (r *Registry) TokenList() []tokenregistry.Token {
	return r.current.Load().system.All()
}

func (r *Registry) TokenMap() map[string]tokenregistry.Token {
	return r.current.Load().system.Map()
}

func (r *Registry) BlacklistMap() map[string]tokenregistry.Token {
	return r.current.Load().system.Blacklist()
}

func (r *Registry) Groups() indexer.Groups {
	return r.current.Load().system.Groups()
}
