// Package ledger retrieves raw ledger accounts over JSON-RPC and decodes mint layouts.
package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/blocto/solana-go-sdk/program/token"
)

const (
	GetAccountInfoMethod = "getAccountInfo"
	DefaultCommitment    = "confirmed"

	encodingBase64 = "base64"
)

var (
	// ErrUnsupportedEncoding is returned when the node answers with an encoding other than base64.
	ErrUnsupportedEncoding = errors.New("unsupported account data encoding")
	// ErrInvalidMintData is returned when account data cannot hold a mint.
	ErrInvalidMintData = errors.New("invalid mint account data")
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the configuration for the client.
type Config struct {
	URL        string
	Commitment string
	Logger     Logger
}

func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.Commitment == "" {
		c.Commitment = DefaultCommitment
	}
	return nil
}

type Client struct {
	rpc        *rpc.Client
	commitment string
	logger     Logger
}

// Dial connects to the node at cfg.URL.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger rpc: %w", err)
	}
	cfg.Logger.Info("Connected to ledger RPC", "url", cfg.URL)
	return NewClient(rpcClient, cfg.Commitment, cfg.Logger), nil
}

// NewClient wraps an established connection.
func NewClient(rpcClient *rpc.Client, commitment string, logger Logger) *Client {
	if commitment == "" {
		commitment = DefaultCommitment
	}
	return &Client{rpc: rpcClient, commitment: commitment, logger: logger}
}

type accountInfoResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value *accountInfo `json:"value"`
}

type accountInfo struct {
	Data       []string `json:"data"`
	Owner      string   `json:"owner"`
	Lamports   uint64   `json:"lamports"`
	Executable bool     `json:"executable"`
}

// FetchLedgerAccount returns the account at address, or nil, nil when it does not exist.
func (c *Client) FetchLedgerAccount(ctx context.Context, address string) (*tokenregistry.LedgerAccount, error) {
	var res accountInfoResult
	opts := map[string]string{
		"encoding":   encodingBase64,
		"commitment": c.commitment,
	}
	if err := c.rpc.CallContext(ctx, &res, GetAccountInfoMethod, address, opts); err != nil {
		return nil, fmt.Errorf("%s %s: %w", GetAccountInfoMethod, address, err)
	}
	if res.Value == nil {
		c.logger.Debug("Ledger account absent", "address", address, "slot", res.Context.Slot)
		return nil, nil
	}

	if len(res.Value.Data) != 2 || res.Value.Data[1] != encodingBase64 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, res.Value.Data)
	}
	data, err := base64.StdEncoding.DecodeString(res.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}

	return &tokenregistry.LedgerAccount{
		Owner:    res.Value.Owner,
		Lamports: res.Value.Lamports,
		Data:     data,
	}, nil
}

// DecodeMintLayout decodes the base mint layout. Token-2022 mints carry extensions after
// the base layout; they are ignored.
func DecodeMintLayout(data []byte) (tokenregistry.MintLayout, error) {
	if len(data) < token.MintAccountSize {
		return tokenregistry.MintLayout{}, fmt.Errorf("%w: %d bytes", ErrInvalidMintData, len(data))
	}
	mint, err := token.MintAccountFromData(data[:token.MintAccountSize])
	if err != nil {
		return tokenregistry.MintLayout{}, fmt.Errorf("%w: %w", ErrInvalidMintData, err)
	}

	layout := tokenregistry.MintLayout{
		Supply:        mint.Supply,
		Decimals:      mint.Decimals,
		IsInitialized: mint.IsInitialized,
	}
	if mint.MintAuthority != nil {
		layout.MintAuthority = mint.MintAuthority.ToBase58()
	}
	if mint.FreezeAuthority != nil {
		layout.FreezeAuthority = mint.FreezeAuthority.ToBase58()
	}
	return layout, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}
