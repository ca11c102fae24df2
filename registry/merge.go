package registry

import (
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
)

// Merged is the result of one ordered-pass merge.
type Merged struct {
	// Tokens in insertion order: native first, then primary, secondary and supplemental.
	Tokens    []tokenregistry.Token
	Blacklist []tokenregistry.Token
}

// Merge builds a fresh registry state from the catalogues. Precedence is encoded by pass
// order alone: the first pass to insert an address wins and later passes skip it. Priorities
// are never compared. The inputs are not modified.
//
// The native descriptor is inserted unconditionally; a blacklist entry for its address is dropped.
func Merge(native tokenregistry.Token, cats Catalogues, supplemental []tokenregistry.Token) Merged {
	native = native.WithProvenance(tokenregistry.ProvenanceOfficial)

	blacklist := make([]tokenregistry.Token, 0, len(cats.Blacklist))
	blocked := make(map[string]struct{}, len(cats.Blacklist))
	for _, raw := range cats.Blacklist {
		t := raw.WithProvenance(tokenregistry.ProvenanceBlacklisted)
		if t.Address == "" || t.Address == native.Address {
			continue
		}
		if _, dup := blocked[t.Address]; dup {
			continue
		}
		blocked[t.Address] = struct{}{}
		blacklist = append(blacklist, t)
	}

	size := 1 + len(cats.Primary) + len(cats.Secondary) + len(supplemental)
	tokens := make([]tokenregistry.Token, 0, size)
	present := make(map[string]struct{}, size)

	tokens = append(tokens, native)
	present[native.Address] = struct{}{}

	pass := func(records []tokenregistry.Token, p tokenregistry.Provenance) {
		for _, raw := range records {
			t := raw.WithProvenance(p)
			if t.Address == "" {
				continue
			}
			if _, ok := blocked[t.Address]; ok {
				continue
			}
			if _, ok := present[t.Address]; ok {
				continue
			}
			present[t.Address] = struct{}{}
			tokens = append(tokens, t)
		}
	}

	pass(cats.Primary, tokenregistry.ProvenanceOfficial)
	pass(cats.Secondary, tokenregistry.ProvenanceSecondary)
	pass(supplemental, tokenregistry.ProvenanceSupplemental)

	return Merged{Tokens: tokens, Blacklist: blacklist}
}
