// Package api fetches asset catalogues, primary-feed prices and single-asset metadata
// from the DEX catalogue HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/defistate/assetregistry-client-go/amount"
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/rational"
	"github.com/defistate/assetregistry-client-go/registry"
)

const (
	DefaultBaseURL = "https://api-v3.raydium.io"
	defaultTimeout = 10 * time.Second

	mintListPath  = "/mint/list"
	mintPricePath = "/mint/price"
	mintIDsPath   = "/mint/ids"
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrRequestFailed is returned when the API envelope reports success=false.
	ErrRequestFailed = errors.New("api request failed")
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	BaseURL string
	// SecondaryURL serves the broader, lower-trust token list as a bare JSON array.
	// Empty disables the secondary catalogue.
	SecondaryURL string
	// CacheTTL bounds how long fetched catalogues are reused. Zero disables caching.
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     Logger
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("config: invalid BaseURL: %w", err)
	}
	if c.CacheTTL < 0 {
		return errors.New("config: CacheTTL cannot be negative")
	}
	return nil
}

type cachedCatalogues struct {
	cats      registry.Catalogues
	fetchedAt time.Time
}

type Client struct {
	baseURL      string
	secondaryURL string
	cacheTTL     time.Duration
	http         *http.Client
	logger       Logger
	now          func() time.Time

	mu    sync.Mutex
	cache *cachedCatalogues
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		secondaryURL: cfg.SecondaryURL,
		cacheTTL:     cfg.CacheTTL,
		http:         httpClient,
		logger:       cfg.Logger,
		now:          time.Now,
	}, nil
}

// envelope is the API's standard response wrapper.
type envelope struct {
	ID      string          `json:"id"`
	Success bool            `json:"success"`
	Msg     string          `json:"msg,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type mintListData struct {
	MintList  []tokenregistry.Token `json:"mintList"`
	Blacklist []json.RawMessage     `json:"blacklist"`
}

// FetchAssetCatalogues returns the primary list, the secondary list and the blacklist.
// Results are cached for CacheTTL; force bypasses the cache. A failed fetch leaves the cache as is.
func (c *Client) FetchAssetCatalogues(ctx context.Context, force bool) (registry.Catalogues, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.cache != nil && c.cacheTTL > 0 && c.now().Sub(c.cache.fetchedAt) < c.cacheTTL {
		c.logger.Debug("Serving asset catalogues from cache", "age", c.now().Sub(c.cache.fetchedAt))
		return cloneCatalogues(c.cache.cats), nil
	}

	var list mintListData
	if err := c.getEnvelope(ctx, c.baseURL+mintListPath, &list); err != nil {
		return registry.Catalogues{}, fmt.Errorf("fetch mint list: %w", err)
	}

	blacklist := make([]tokenregistry.Token, 0, len(list.Blacklist))
	for _, raw := range list.Blacklist {
		t, err := decodeBlacklistEntry(raw)
		if err != nil {
			return registry.Catalogues{}, fmt.Errorf("decode blacklist entry: %w", err)
		}
		blacklist = append(blacklist, t)
	}

	var secondary []tokenregistry.Token
	if c.secondaryURL != "" {
		if err := c.getJSON(ctx, c.secondaryURL, &secondary); err != nil {
			return registry.Catalogues{}, fmt.Errorf("fetch secondary list: %w", err)
		}
	}

	cats := registry.Catalogues{
		Primary:   list.MintList,
		Secondary: secondary,
		Blacklist: blacklist,
	}
	c.cache = &cachedCatalogues{cats: cats, fetchedAt: c.now()}
	c.logger.Info("Fetched asset catalogues",
		"primary", len(cats.Primary),
		"secondary", len(cats.Secondary),
		"blacklist", len(cats.Blacklist),
		"forced", force,
	)
	return cloneCatalogues(cats), nil
}

// decodeBlacklistEntry accepts either a bare address string or a full token object.
func decodeBlacklistEntry(raw json.RawMessage) (tokenregistry.Token, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var addr string
		if err := json.Unmarshal(raw, &addr); err != nil {
			return tokenregistry.Token{}, err
		}
		return tokenregistry.Token{Address: addr}, nil
	}
	var t tokenregistry.Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return tokenregistry.Token{}, err
	}
	return t, nil
}

func cloneCatalogues(c registry.Catalogues) registry.Catalogues {
	return registry.Catalogues{
		Primary:   cloneTokens(c.Primary),
		Secondary: cloneTokens(c.Secondary),
		Blacklist: cloneTokens(c.Blacklist),
	}
}

func cloneTokens(in []tokenregistry.Token) []tokenregistry.Token {
	if in == nil {
		return nil
	}
	out := make([]tokenregistry.Token, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// FetchPrimaryFeedPrices returns USD prices keyed by asset address. The API encodes prices
// as strings or numbers, exponent forms included; both are converted to exact rationals.
func (c *Client) FetchPrimaryFeedPrices(ctx context.Context) (map[string]amount.Numberish, error) {
	var data map[string]json.RawMessage
	if err := c.getEnvelope(ctx, c.baseURL+mintPricePath, &data); err != nil {
		return nil, fmt.Errorf("fetch primary feed prices: %w", err)
	}

	out := make(map[string]amount.Numberish, len(data))
	for addr, raw := range data {
		lit, ok, err := priceLiteral(raw)
		if err != nil {
			c.logger.Warn("Skipping undecodable price", "address", addr, "error", err)
			continue
		}
		if !ok {
			continue
		}
		r, err := rational.ParseNumber(lit)
		if err != nil {
			c.logger.Warn("Skipping undecodable price", "address", addr, "error", err)
			continue
		}
		out[addr] = amount.Frac{Rational: r}
	}
	c.logger.Debug("Fetched primary feed prices", "count", len(out))
	return out, nil
}

func priceLiteral(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return "", false, nil
	case raw[0] == '"':
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return "", false, err
		}
		return s, s != "", nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false, err
		}
		return n.String(), true, nil
	}
}

// FetchSingleAssetMetadata looks address up in the API's mint index. It returns nil, nil
// when the index does not know the address.
func (c *Client) FetchSingleAssetMetadata(ctx context.Context, address string) (*tokenregistry.Token, error) {
	q := url.Values{}
	q.Set("mints", address)

	var data []*tokenregistry.Token
	if err := c.getEnvelope(ctx, c.baseURL+mintIDsPath+"?"+q.Encode(), &data); err != nil {
		return nil, fmt.Errorf("fetch mint info: %w", err)
	}
	for _, t := range data {
		if t != nil && t.Address == address {
			return t, nil
		}
	}
	return nil, nil
}

func (c *Client) getEnvelope(ctx context.Context, u string, out any) error {
	var env envelope
	if err := c.getJSON(ctx, u, &env); err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrRequestFailed, env.Msg)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
