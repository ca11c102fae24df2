package tokenregistry

// LedgerAccount is the raw state of one on-ledger account.
type LedgerAccount struct {
	Owner    string
	Lamports uint64
	Data     []byte
}

// MintLayout is the decoded minimal mint account.
type MintLayout struct {
	MintAuthority   string
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority string
}
