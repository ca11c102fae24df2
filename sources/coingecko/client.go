// Package coingecko fetches oracle USD prices by CoinGecko coin id.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/defistate/assetregistry-client-go/amount"
	"github.com/defistate/assetregistry-client-go/prices"
	"github.com/defistate/assetregistry-client-go/rational"
)

const (
	DefaultBaseURL   = "https://api.coingecko.com/api/v3"
	defaultTimeout   = 10 * time.Second
	defaultChunkSize = 200
)

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrRateLimited      = errors.New("rate limit exceeded")
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
	// APIKey is sent as x_cg_pro_api_key when set.
	APIKey string
	// ChunkSize caps the ids per request.
	ChunkSize  int
	HTTPClient *http.Client
	Logger     Logger
}

type Client struct {
	baseURL   string
	apiKey    string
	chunkSize int
	http      *http.Client
	logger    Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, errors.New("config: Logger cannot be nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		chunkSize: cfg.ChunkSize,
		http:      cfg.HTTPClient,
		logger:    cfg.Logger,
	}, nil
}

// FetchOraclePrices returns the USD quote per id. Ids the oracle does not know are missing
// from the result; known ids without a USD price map to a quote with a nil USD.
func (c *Client) FetchOraclePrices(ctx context.Context, ids []string) (map[string]prices.OracleQuote, error) {
	out := make(map[string]prices.OracleQuote, len(ids))
	for start := 0; start < len(ids); start += c.chunkSize {
		end := min(start+c.chunkSize, len(ids))
		if err := c.fetchChunk(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	c.logger.Debug("Fetched oracle prices", "requested", len(ids), "received", len(out))
	return out, nil
}

func (c *Client) fetchChunk(ctx context.Context, ids []string, out map[string]prices.OracleQuote) error {
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	if c.apiKey != "" {
		q.Set("x_cg_pro_api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("CoinGecko rate limit exceeded", "status", resp.StatusCode, "has_api_key", c.apiKey != "")
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var data map[string]map[string]json.Number
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	for id, byCurrency := range data {
		var quote prices.OracleQuote
		if usd, ok := byCurrency["usd"]; ok && usd != "" {
			r, err := rational.ParseNumber(usd.String())
			if err != nil {
				c.logger.Warn("Skipping undecodable oracle price", "id", id, "error", err)
				continue
			}
			quote.USD = amount.Frac{Rational: r}
		}
		out[id] = quote
	}
	return nil
}
