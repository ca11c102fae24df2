package registry

import "errors"

var (
	// ErrAssetNotFound is returned when an address is absent from the registry and no fallback resolves it.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrLedgerAccountNotFound is returned when the on-ledger fallback finds no account.
	ErrLedgerAccountNotFound = errors.New("ledger account not found")
	// ErrNoStore is returned by SaveSupplemental when no store is configured.
	ErrNoStore = errors.New("no supplemental store configured")
)
