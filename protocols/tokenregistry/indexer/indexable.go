package indexer

import (
	mapset "github.com/deckarep/golang-set/v2"
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
)

// Indexer is the concrete implementation of the registry's snapshot builder.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed snapshot from the merged token list and the blacklist.
func (i *Indexer) Index(tokens, blacklist []tokenregistry.Token) IndexedTokenSystem {
	return NewIndexableTokenSystem(tokens, blacklist)
}

// Groups holds the address sets tracking provenance for downstream filtering.
// They are derived from the tokens' provenance and are never authoritative on their own.
type Groups struct {
	Official     mapset.Set[string]
	Secondary    mapset.Set[string]
	Supplemental mapset.Set[string]
}

func newGroups() Groups {
	return Groups{
		Official:     mapset.NewThreadUnsafeSet[string](),
		Secondary:    mapset.NewThreadUnsafeSet[string](),
		Supplemental: mapset.NewThreadUnsafeSet[string](),
	}
}

func (g Groups) add(t tokenregistry.Token) {
	switch t.Provenance {
	case tokenregistry.ProvenanceOfficial:
		g.Official.Add(t.Address)
	case tokenregistry.ProvenanceSecondary:
		g.Secondary.Add(t.Address)
	case tokenregistry.ProvenanceSupplemental, tokenregistry.ProvenanceOnChainFallback:
		g.Supplemental.Add(t.Address)
	}
}

func (g Groups) clone() Groups {
	return Groups{
		Official:     g.Official.Clone(),
		Secondary:    g.Secondary.Clone(),
		Supplemental: g.Supplemental.Clone(),
	}
}

// IndexableTokenSystem provides fast, indexed access to one published registry snapshot.
// It is immutable after construction; every accessor hands out copies.
type IndexableTokenSystem struct {
	byAddress map[string]tokenregistry.Token
	all       []tokenregistry.Token
	blacklist map[string]tokenregistry.Token
	groups    Groups
}

// NewIndexableTokenSystem creates a new indexed snapshot. tokens must already be deduplicated;
// a repeated address keeps its first occurrence. Blacklisted addresses are dropped from the
// live mapping.
func NewIndexableTokenSystem(tokens, blacklist []tokenregistry.Token) *IndexableTokenSystem {
	bl := make(map[string]tokenregistry.Token, len(blacklist))
	for _, t := range blacklist {
		bl[t.Address] = t
	}

	byAddress := make(map[string]tokenregistry.Token, len(tokens))
	all := make([]tokenregistry.Token, 0, len(tokens))
	groups := newGroups()

	for _, t := range tokens {
		if _, blocked := bl[t.Address]; blocked {
			continue
		}
		if _, dup := byAddress[t.Address]; dup {
			continue
		}
		byAddress[t.Address] = t
		all = append(all, t)
		groups.add(t)
	}

	return &IndexableTokenSystem{
		byAddress: byAddress,
		all:       all,
		blacklist: bl,
		groups:    groups,
	}
}

// GetByAddress retrieves a token by its address.
func (its *IndexableTokenSystem) GetByAddress(address string) (tokenregistry.Token, bool) {
	t, ok := its.byAddress[address]
	if !ok {
		return tokenregistry.Token{}, false
	}
	return t.Clone(), true
}

// All returns a copy of the tokens in insertion order.
func (its *IndexableTokenSystem) All() []tokenregistry.Token {
	allCopy := make([]tokenregistry.Token, len(its.all))
	for i, t := range its.all {
		allCopy[i] = t.Clone()
	}
	return allCopy
}

// Map returns a copy of the address -> token mapping.
func (its *IndexableTokenSystem) Map() map[string]tokenregistry.Token {
	m := make(map[string]tokenregistry.Token, len(its.byAddress))
	for k, t := range its.byAddress {
		m[k] = t.Clone()
	}
	return m
}

func (its *IndexableTokenSystem) Len() int {
	return len(its.all)
}

func (its *IndexableTokenSystem) IsBlacklisted(address string) bool {
	_, ok := its.blacklist[address]
	return ok
}

// Blacklist returns a copy of the blacklist mapping.
func (its *IndexableTokenSystem) Blacklist() map[string]tokenregistry.Token {
	m := make(map[string]tokenregistry.Token, len(its.blacklist))
	for k, t := range its.blacklist {
		m[k] = t.Clone()
	}
	return m
}

// Groups returns copies of the provenance group sets.
func (its *IndexableTokenSystem) Groups() Groups {
	return its.groups.clone()
}
