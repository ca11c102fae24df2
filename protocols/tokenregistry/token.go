package tokenregistry

import (
	"fmt"
	"slices"
)

const (
	// DefaultPublicKey is the all-zero ledger key. The native asset is catalogued under it.
	DefaultPublicKey = "11111111111111111111111111111111"
	// NativeMint is the wrapped-native mint; resolving it yields the native descriptor.
	NativeMint = "So11111111111111111111111111111111111111112"

	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"

	TagHasFreeze      = "hasFreeze"
	TagHasTransferFee = "hasTransferFee"
)

// NativeSOL is the hard-coded descriptor of the ledger's gas unit.
var NativeSOL = Token{
	ChainID:    101,
	Address:    DefaultPublicKey,
	ProgramID:  TokenProgramID,
	LogoURI:    "https://img-v1.raydium.io/icon/So11111111111111111111111111111111111111112.png",
	Symbol:     "SOL",
	Name:       "solana",
	Decimals:   9,
	Tags:       []string{},
	Extensions: Extensions{CoingeckoID: "solana"},
	Provenance: ProvenanceOfficial,
	Priority:   ProvenanceOfficial.Priority(),
}

// Provenance records which source produced a descriptor. It decides merge precedence.
type Provenance uint8

const (
	ProvenanceUnknown Provenance = iota
	ProvenanceOfficial
	ProvenanceSecondary
	ProvenanceSupplemental
	ProvenanceOnChainFallback
	ProvenanceBlacklisted
)

var provenanceNames = map[Provenance]string{
	ProvenanceUnknown:         "unknown",
	ProvenanceOfficial:        "official",
	ProvenanceSecondary:       "secondary",
	ProvenanceSupplemental:    "supplemental",
	ProvenanceOnChainFallback: "onchain",
	ProvenanceBlacklisted:     "blacklisted",
}

// Priority is a pure function of the provenance.
func (p Provenance) Priority() int {
	switch p {
	case ProvenanceOfficial:
		return 2
	case ProvenanceSecondary, ProvenanceSupplemental:
		return 1
	case ProvenanceBlacklisted:
		return -1
	default:
		return 0
	}
}

func (p Provenance) String() string {
	if name, ok := provenanceNames[p]; ok {
		return name
	}
	return fmt.Sprintf("provenance(%d)", uint8(p))
}

func (p Provenance) MarshalText() ([]byte, error) {
	if _, ok := provenanceNames[p]; !ok {
		return nil, fmt.Errorf("unknown provenance %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes unrecognised labels as ProvenanceUnknown.
func (p *Provenance) UnmarshalText(text []byte) error {
	*p = ProvenanceUnknown
	for k, name := range provenanceNames {
		if name == string(text) {
			*p = k
			break
		}
	}
	return nil
}

// TransferFee is one epoch's fee schedule of a transfer-fee mint.
type TransferFee struct {
	Epoch                  string `json:"epoch"`
	MaximumFee             string `json:"maximumFee"`
	TransferFeeBasisPoints uint16 `json:"transferFeeBasisPoints"`
}

// TransferFeeConfig mirrors the transfer-fee extension of a mint.
type TransferFeeConfig struct {
	TransferFeeConfigAuthority string      `json:"transferFeeConfigAuthority"`
	WithdrawWithheldAuthority  string      `json:"withdrawWithheldAuthority"`
	WithheldAmount             string      `json:"withheldAmount"`
	OlderTransferFee           TransferFee `json:"olderTransferFee"`
	NewerTransferFee           TransferFee `json:"newerTransferFee"`
}

type Extensions struct {
	CoingeckoID string             `json:"coingeckoId,omitempty"`
	FeeConfig   *TransferFeeConfig `json:"feeConfig,omitempty"`
}

// Token describes one tradable asset. Within a published snapshot it is never mutated.
type Token struct {
	ChainID    int        `json:"chainId,omitempty"`
	Address    string     `json:"address"`
	ProgramID  string     `json:"programId"`
	LogoURI    string     `json:"logoURI"`
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Decimals   uint8      `json:"decimals"`
	Tags       []string   `json:"tags"`
	Extensions Extensions `json:"extensions"`
	Provenance Provenance `json:"type"`
	Priority   int        `json:"priority"`
}

// IsToken2022 reports whether the mint is owned by the Token-2022 program.
func (t Token) IsToken2022() bool {
	return t.ProgramID == Token2022ProgramID
}

// HasOracle reports whether the token carries a price-oracle identifier.
func (t Token) HasOracle() bool {
	return t.Extensions.CoingeckoID != ""
}

func (t Token) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// Clone returns a deep copy.
func (t Token) Clone() Token {
	c := t
	if t.Tags != nil {
		c.Tags = slices.Clone(t.Tags)
	}
	if t.Extensions.FeeConfig != nil {
		fc := *t.Extensions.FeeConfig
		c.Extensions.FeeConfig = &fc
	}
	return c
}

// WithProvenance returns a copy stamped with p and its priority, under the normalized address.
func (t Token) WithProvenance(p Provenance) Token {
	c := t.Clone()
	c.Address = NormalizeAddress(t.Address)
	c.Provenance = p
	c.Priority = p.Priority()
	return c
}
