package registry

import (
	"context"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Catalogues are the three raw lists a full rebuild consumes, passed in verbatim.
type Catalogues struct {
	Primary   []tokenregistry.Token
	Secondary []tokenregistry.Token
	Blacklist []tokenregistry.Token
}

// CatalogueFetcher returns the raw catalogues. force bypasses any caching in the fetcher.
type CatalogueFetcher interface {
	FetchAssetCatalogues(ctx context.Context, force bool) (Catalogues, error)
}

// MetadataFetcher looks up a single asset in a remote index.
// A nil token with a nil error means the index does not know the address.
type MetadataFetcher interface {
	FetchSingleAssetMetadata(ctx context.Context, address string) (*tokenregistry.Token, error)
}

// LedgerFetcher retrieves an on-ledger account. A nil account with a nil error means absent.
type LedgerFetcher interface {
	FetchLedgerAccount(ctx context.Context, address string) (*tokenregistry.LedgerAccount, error)
}

// MintDecoder decodes the minimal mint layout from raw account data.
type MintDecoder func(data []byte) (tokenregistry.MintLayout, error)

// SupplementalStore persists the supplemental list between sessions.
type SupplementalStore interface {
	Load(ctx context.Context) ([]tokenregistry.Token, error)
	Save(ctx context.Context, tokens []tokenregistry.Token) error
}

type LoadParams struct {
	// ForceUpdate bypasses catalogue caching in the fetcher.
	ForceUpdate bool
}
