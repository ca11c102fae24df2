package indexer

import (
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
)

// IndexedTokenSystem defines the methods for accessing an indexed registry snapshot.
type IndexedTokenSystem interface {
	GetByAddress(address string) (tokenregistry.Token, bool)
	All() []tokenregistry.Token
	Map() map[string]tokenregistry.Token
	Len() int
	IsBlacklisted(address string) bool
	Blacklist() map[string]tokenregistry.Token
	Groups() Groups
}
