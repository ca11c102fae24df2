package tokenregistry

import "slices"

type TokenSystemDiff struct {
	Additions []Token  `json:"additions,omitempty"`
	Updates   []Token  `json:"updates,omitempty"`
	Deletions []string `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d TokenSystemDiff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

// Differ calculates the difference between two registry snapshots, keyed by address.
// Additions and updates follow the order of new, deletions the order of old.
func Differ(old, new []Token) TokenSystemDiff {
	oldTokensMap := make(map[string]Token, len(old))
	for _, token := range old {
		oldTokensMap[token.Address] = token
	}

	newAddresses := make(map[string]struct{}, len(new))
	var additions []Token
	var updates []Token
	var deletions []string

	for _, newToken := range new {
		newAddresses[newToken.Address] = struct{}{}
		oldToken, exists := oldTokensMap[newToken.Address]
		if !exists {
			additions = append(additions, newToken)
			continue
		}
		if changed(oldToken, newToken) {
			updates = append(updates, newToken)
		}
	}

	for _, oldToken := range old {
		if _, exists := newAddresses[oldToken.Address]; !exists {
			deletions = append(deletions, oldToken.Address)
		}
	}

	return TokenSystemDiff{
		Additions: additions,
		Updates:   updates,
		Deletions: deletions,
	}
}

// changed compares the fields a consumer can observe.
func changed(a, b Token) bool {
	if a.Decimals != b.Decimals ||
		a.Provenance != b.Provenance ||
		a.Priority != b.Priority ||
		a.ProgramID != b.ProgramID ||
		a.Symbol != b.Symbol ||
		a.Name != b.Name ||
		a.LogoURI != b.LogoURI ||
		a.ChainID != b.ChainID ||
		a.Extensions.CoingeckoID != b.Extensions.CoingeckoID {
		return true
	}
	if !slices.Equal(a.Tags, b.Tags) {
		return true
	}
	fa, fb := a.Extensions.FeeConfig, b.Extensions.FeeConfig
	if (fa == nil) != (fb == nil) {
		return true
	}
	return fa != nil && *fa != *fb
}
