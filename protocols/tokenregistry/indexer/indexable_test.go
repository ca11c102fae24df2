package indexer

import (
	"testing"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	rayMint  = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	scamMint = "ScamScamScamScamScamScamScamScamScamScamScam"
)

func tok(address, symbol string, p tokenregistry.Provenance) tokenregistry.Token {
	return tokenregistry.Token{
		Address:    address,
		Symbol:     symbol,
		Decimals:   6,
		Tags:       []string{"community"},
		Provenance: p,
		Priority:   p.Priority(),
	}
}

func TestIndexableTokenSystem(t *testing.T) {
	testTokens := []tokenregistry.Token{
		tokenregistry.NativeSOL,
		tok(usdcMint, "USDC", tokenregistry.ProvenanceOfficial),
		tok(rayMint, "RAY", tokenregistry.ProvenanceSecondary),
		tok(bonkMint, "BONK", tokenregistry.ProvenanceOnChainFallback),
		tok(scamMint, "SCAM", tokenregistry.ProvenanceSecondary),
	}
	blacklist := []tokenregistry.Token{tok(scamMint, "SCAM", tokenregistry.ProvenanceBlacklisted)}

	indexer := NewIndexableTokenSystem(testTokens, blacklist)
	require.NotNil(t, indexer)

	t.Run("Successful Lookups", func(t *testing.T) {
		usdc, found := indexer.GetByAddress(usdcMint)
		assert.True(t, found, "USDC should be found by its address")
		assert.Equal(t, "USDC", usdc.Symbol)

		sol, found := indexer.GetByAddress(tokenregistry.DefaultPublicKey)
		assert.True(t, found)
		assert.Equal(t, uint8(9), sol.Decimals)
	})

	t.Run("Not Found Lookups", func(t *testing.T) {
		_, found := indexer.GetByAddress("unknown")
		assert.False(t, found)
	})

	t.Run("blacklisted addresses never reach the live mapping", func(t *testing.T) {
		_, found := indexer.GetByAddress(scamMint)
		assert.False(t, found)
		assert.True(t, indexer.IsBlacklisted(scamMint))
		assert.Equal(t, 4, indexer.Len())
		assert.NotContains(t, indexer.Map(), scamMint)
		assert.Contains(t, indexer.Blacklist(), scamMint)
	})

	t.Run("All keeps insertion order", func(t *testing.T) {
		var got []string
		for _, tk := range indexer.All() {
			got = append(got, tk.Address)
		}
		assert.Equal(t, []string{tokenregistry.DefaultPublicKey, usdcMint, rayMint, bonkMint}, got)
	})

	t.Run("groups follow provenance", func(t *testing.T) {
		groups := indexer.Groups()
		assert.True(t, groups.Official.Contains(tokenregistry.DefaultPublicKey, usdcMint))
		assert.Equal(t, 2, groups.Official.Cardinality())
		assert.True(t, groups.Secondary.Contains(rayMint))
		assert.Equal(t, 1, groups.Secondary.Cardinality())
		assert.True(t, groups.Supplemental.Contains(bonkMint))
		assert.False(t, groups.Secondary.Contains(scamMint))
	})

	t.Run("accessors return copies", func(t *testing.T) {
		allTokens := indexer.All()
		allTokens[1].Symbol = "MODIFIED"
		allTokens[1].Tags[0] = "MODIFIED"

		m := indexer.Map()
		delete(m, usdcMint)

		groups := indexer.Groups()
		groups.Official.Remove(usdcMint)

		original, found := indexer.GetByAddress(usdcMint)
		require.True(t, found)
		assert.Equal(t, "USDC", original.Symbol)
		assert.Equal(t, []string{"community"}, original.Tags)
		assert.True(t, indexer.Groups().Official.Contains(usdcMint))
	})

	t.Run("a repeated address keeps its first occurrence", func(t *testing.T) {
		dup := NewIndexableTokenSystem([]tokenregistry.Token{
			tok(usdcMint, "USDC", tokenregistry.ProvenanceOfficial),
			tok(usdcMint, "FAKE", tokenregistry.ProvenanceSecondary),
		}, nil)
		assert.Equal(t, 1, dup.Len())
		got, _ := dup.GetByAddress(usdcMint)
		assert.Equal(t, "USDC", got.Symbol)
		assert.Equal(t, 0, dup.Groups().Secondary.Cardinality())
	})

	t.Run("Edge Case - Nil Slice", func(t *testing.T) {
		nilIndexer := New().Index(nil, nil)
		require.NotNil(t, nilIndexer)

		_, found := nilIndexer.GetByAddress(usdcMint)
		assert.False(t, found)

		allTokens := nilIndexer.All()
		assert.Len(t, allTokens, 0)
		assert.NotNil(t, allTokens, "All() should return an empty slice, not nil")
		assert.False(t, nilIndexer.IsBlacklisted(usdcMint))
	})
}
