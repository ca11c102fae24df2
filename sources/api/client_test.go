package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/defistate/assetregistry-client-go/amount"
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/rational"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mintListBody = `{
  "id": "list",
  "success": true,
  "data": {
    "mintList": [
      {
        "chainId": 101,
        "address": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
        "programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
        "logoURI": "https://img.example/usdc.png",
        "symbol": "USDC",
        "name": "USD Coin",
        "decimals": 6,
        "tags": ["hasFreeze"],
        "extensions": {"coingeckoId": "usd-coin"},
        "type": "raydium",
        "priority": 2
      },
      {
        "chainId": 101,
        "address": "2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo",
        "programId": "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb",
        "symbol": "PYUSD",
        "name": "PayPal USD",
        "decimals": 6,
        "tags": ["hasTransferFee"],
        "extensions": {
          "feeConfig": {
            "transferFeeConfigAuthority": "auth",
            "withdrawWithheldAuthority": "auth",
            "withheldAmount": "0",
            "olderTransferFee": {"epoch": "605", "maximumFee": "0", "transferFeeBasisPoints": 0},
            "newerTransferFee": {"epoch": "605", "maximumFee": "0", "transferFeeBasisPoints": 0}
          }
        }
      }
    ],
    "blacklist": ["ScamScamScamScamScamScamScamScamScamScamScam", {"address": "Rug1111111111111111111111111111111111111111"}]
  }
}`

const secondaryBody = `[
  {"chainId": 101, "address": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", "symbol": "Bonk", "name": "Bonk", "decimals": 5, "logoURI": "", "tags": ["community"], "extensions": {"coingeckoId": "bonk"}}
]`

type testServer struct {
	*httptest.Server
	mintListHits  atomic.Int32
	secondaryHits atomic.Int32
	failMintList  atomic.Bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/mint/list", func(w http.ResponseWriter, r *http.Request) {
		ts.mintListHits.Add(1)
		if ts.failMintList.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		io.WriteString(w, mintListBody)
	})
	mux.HandleFunc("/jup/strict", func(w http.ResponseWriter, r *http.Request) {
		ts.secondaryHits.Add(1)
		io.WriteString(w, secondaryBody)
	})
	mux.HandleFunc("/mint/price", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"p","success":true,"data":{
			"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "0.99985",
			"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": 0.0000231,
			"Empty111": "",
			"Null111": null
		}}`)
	})
	mux.HandleFunc("/mint/ids", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("mints") {
		case "2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo":
			io.WriteString(w, `{"id":"i","success":true,"data":[{"address":"2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo","symbol":"PYUSD","name":"PayPal USD","decimals":6}]}`)
		case "broken":
			io.WriteString(w, `{"id":"i","success":false,"msg":"invalid mint"}`)
		default:
			io.WriteString(w, `{"id":"i","success":true,"data":[null]}`)
		}
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, ts *testServer, ttl time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:      ts.URL,
		SecondaryURL: ts.URL + "/jup/strict",
		CacheTTL:     ttl,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return c
}

func TestFetchAssetCatalogues(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the three lists", func(t *testing.T) {
		ts := newTestServer(t)
		c := newTestClient(t, ts, 0)

		cats, err := c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)

		require.Len(t, cats.Primary, 2)
		usdc := cats.Primary[0]
		assert.Equal(t, "USDC", usdc.Symbol)
		assert.Equal(t, uint8(6), usdc.Decimals)
		assert.Equal(t, "usd-coin", usdc.Extensions.CoingeckoID)
		assert.Equal(t, tokenregistry.ProvenanceUnknown, usdc.Provenance, "foreign type labels are not trusted")

		pyusd := cats.Primary[1]
		assert.True(t, pyusd.IsToken2022())
		require.NotNil(t, pyusd.Extensions.FeeConfig)
		assert.Equal(t, "605", pyusd.Extensions.FeeConfig.NewerTransferFee.Epoch)

		require.Len(t, cats.Secondary, 1)
		assert.Equal(t, "bonk", cats.Secondary[0].Extensions.CoingeckoID)

		require.Len(t, cats.Blacklist, 2)
		assert.Equal(t, "ScamScamScamScamScamScamScamScamScamScamScam", cats.Blacklist[0].Address)
		assert.Equal(t, "Rug1111111111111111111111111111111111111111", cats.Blacklist[1].Address)
	})

	t.Run("serves from cache within the ttl and refetches when forced", func(t *testing.T) {
		ts := newTestServer(t)
		c := newTestClient(t, ts, time.Minute)
		now := time.Unix(1_700_000_000, 0)
		c.now = func() time.Time { return now }

		_, err := c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)
		cached, err := c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, int32(1), ts.mintListHits.Load())

		cached.Primary[0].Symbol = "MUTATED"
		again, err := c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, "USDC", again.Primary[0].Symbol, "callers must not share the cached lists")

		_, err = c.FetchAssetCatalogues(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, int32(2), ts.mintListHits.Load())

		now = now.Add(2 * time.Minute)
		_, err = c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, int32(3), ts.mintListHits.Load())
		assert.Equal(t, int32(3), ts.secondaryHits.Load())
	})

	t.Run("errors propagate and keep the cache", func(t *testing.T) {
		ts := newTestServer(t)
		c := newTestClient(t, ts, time.Minute)

		_, err := c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)

		ts.failMintList.Store(true)
		_, err = c.FetchAssetCatalogues(ctx, true)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)

		cats, err := c.FetchAssetCatalogues(ctx, false)
		require.NoError(t, err)
		assert.Len(t, cats.Primary, 2)
	})

	t.Run("a cancelled context fails the fetch", func(t *testing.T) {
		ts := newTestServer(t)
		c := newTestClient(t, ts, 0)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.FetchAssetCatalogues(cctx, false)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestFetchPrimaryFeedPrices(t *testing.T) {
	ts := newTestServer(t)
	c := newTestClient(t, ts, 0)

	got, err := c.FetchPrimaryFeedPrices(context.Background())
	require.NoError(t, err)

	want := map[string]string{
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "0.99985",
		"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "0.0000231",
		"Tiny111":    "0.00002345",
		"Kilo111":    "1000",
		"TinyStr111": "0.00002345",
	}
	require.Len(t, got, len(want), "empty, null and non-numeric prices are skipped")
	for addr, lit := range want {
		t.Run(addr, func(t *testing.T) {
			require.Contains(t, got, addr)
			r, err := amount.Parse(got[addr])
			require.NoError(t, err)
			expected, err := rational.ParseDecimal(lit)
			require.NoError(t, err)
			assert.True(t, r.Equal(expected), "want %s, got %s", lit, r)
		})
	}

	t.Run("exponent-form numbers keep their exact value", func(t *testing.T) {
		r, err := amount.Parse(got["Tiny111"])
		require.NoError(t, err)
		r = r.Reduce()
		assert.Equal(t, "469", r.Num().String())
		assert.Equal(t, "20000000", r.Den().String())
	})
}

func TestFetchSingleAssetMetadata(t *testing.T) {
	ts := newTestServer(t)
	c := newTestClient(t, ts, 0)
	ctx := context.Background()

	t.Run("known mint", func(t *testing.T) {
		tk, err := c.FetchSingleAssetMetadata(ctx, "2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo")
		require.NoError(t, err)
		require.NotNil(t, tk)
		assert.Equal(t, "PYUSD", tk.Symbol)
	})

	t.Run("unknown mint is absent, not an error", func(t *testing.T) {
		tk, err := c.FetchSingleAssetMetadata(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, tk)
	})

	t.Run("an unsuccessful envelope is an error", func(t *testing.T) {
		_, err := c.FetchSingleAssetMetadata(ctx, "broken")
		assert.ErrorIs(t, err, ErrRequestFailed)
	})
}
