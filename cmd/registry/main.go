package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/defistate/assetregistry-client-go/amount"
	"github.com/defistate/assetregistry-client-go/cmd/registry/config"
	"github.com/defistate/assetregistry-client-go/prices"
	tokenregistry "github.com/defistate/assetregistry-client-go/protocols/tokenregistry"
	"github.com/defistate/assetregistry-client-go/registry"
	"github.com/defistate/assetregistry-client-go/sources/api"
	"github.com/defistate/assetregistry-client-go/sources/coingecko"
	"github.com/defistate/assetregistry-client-go/streams/jsonrpc/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type flags struct {
	configPath string
	mint       string
	convert    string
	ui         string
	force      bool
}

// lookupResult is what the command prints for -mint.
type lookupResult struct {
	Address    string `json:"address"`
	Symbol     string `json:"symbol"`
	Decimals   uint8  `json:"decimals"`
	Provenance string `json:"provenance"`
	PriceUSD   string `json:"priceUsd,omitempty"`
	BaseUnits  string `json:"baseUnits,omitempty"`
	UiAmount   string `json:"uiAmount,omitempty"`
}

func main() {
	f := parseFlags()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	level, _ := config.ParseLevel(cfg.Logging.Level)
	rootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	prometheusRegistry := prometheus.DefaultRegisterer

	// Create a context that cancels when the OS sends an interrupt (Ctrl+C) or termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, rootLogger, prometheusRegistry); err != nil && !errors.Is(err, context.Canceled) {
		rootLogger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, f flags, rootLogger *slog.Logger, reg prometheus.Registerer) error {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout.ToDuration()}

	catalogueClient, err := api.NewClient(api.Config{
		BaseURL:      cfg.Catalogue.BaseURL,
		SecondaryURL: cfg.Catalogue.SecondaryURL,
		CacheTTL:     cfg.Catalogue.CacheTTL.ToDuration(),
		HTTPClient:   httpClient,
		Logger:       rootLogger.With("component", "catalogue-api"),
	})
	if err != nil {
		return err
	}

	oracleClient, err := coingecko.NewClient(coingecko.Config{
		BaseURL:    cfg.CoinGecko.BaseURL,
		APIKey:     cfg.CoinGecko.APIKey,
		ChunkSize:  cfg.CoinGecko.ChunkSize,
		HTTPClient: httpClient,
		Logger:     rootLogger.With("component", "coingecko"),
	})
	if err != nil {
		return err
	}

	ledgerClient, err := ledger.Dial(ctx, ledger.Config{
		URL:        cfg.Chain.RPCURL,
		Commitment: cfg.Chain.Commitment,
		Logger:     rootLogger.With("component", "ledger-rpc"),
	})
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	var store registry.SupplementalStore
	if cfg.Supplemental.Path != "" {
		store = &registry.FileStore{Path: cfg.Supplemental.Path}
	}

	assets, err := registry.New(&registry.Config{
		Catalogues: catalogueClient,
		Metadata:   catalogueClient,
		Ledger:     ledgerClient,
		DecodeMint: ledger.DecodeMintLayout,
		Store:      store,
		Registry:   reg,
		Logger:     rootLogger.With("component", "asset-registry"),
	})
	if err != nil {
		return err
	}
	if store != nil {
		if err := assets.LoadSupplemental(ctx); err != nil {
			return err
		}
	}

	aggregator, err := prices.New(&prices.Config{
		Registry:    assets,
		Oracle:      oracleClient,
		PrimaryFeed: catalogueClient,
		Metrics:     reg,
		Logger:      rootLogger.With("component", "price-aggregator"),
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		srv := serveMetrics(cfg.Metrics, rootLogger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := refresh(ctx, assets, aggregator, f.force, rootLogger); err != nil {
		return err
	}

	if f.mint != "" {
		if err := lookup(ctx, assets, aggregator, f); err != nil {
			return err
		}
	}

	if store != nil {
		if err := assets.SaveSupplemental(ctx); err != nil {
			return err
		}
	}

	if !cfg.Metrics.Enabled {
		return nil
	}

	// With metrics enabled the command keeps the registry and prices fresh until stopped.
	ticker := time.NewTicker(cfg.Catalogue.CacheTTL.ToDuration())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := refresh(ctx, assets, aggregator, false, rootLogger); err != nil {
				rootLogger.Warn("Refresh failed, keeping previous state", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func refresh(ctx context.Context, assets *registry.Registry, aggregator *prices.Aggregator, force bool, logger *slog.Logger) error {
	if _, err := assets.Load(ctx, registry.LoadParams{ForceUpdate: force}); err != nil {
		return err
	}
	priced, err := aggregator.Refresh(ctx, nil)
	if err != nil {
		return err
	}
	logger.Info("Registry ready",
		"generation", assets.Generation(),
		"assets", assets.Snapshot().Len(),
		"priced", len(priced),
	)
	return nil
}

func lookup(ctx context.Context, assets *registry.Registry, aggregator *prices.Aggregator, f flags) error {
	addr := tokenregistry.NormalizeAddress(f.mint)
	if !tokenregistry.IsBase58PublicKey(addr) && !common.IsHexAddress(addr) {
		return fmt.Errorf("-mint %q is not a ledger address", f.mint)
	}

	t, err := assets.ResolveAsset(ctx, addr)
	if err != nil {
		return err
	}

	res := lookupResult{
		Address:    t.Address,
		Symbol:     t.Symbol,
		Decimals:   t.Decimals,
		Provenance: t.Provenance.String(),
	}
	if p, ok := aggregator.Price(t.Address); ok {
		res.PriceUSD = p.UiValue()
	}

	conv := amount.NewConverter(assets)
	if f.convert != "" {
		base, err := conv.DecimalAmount(t.Address, amount.Str(f.convert))
		if err != nil {
			return err
		}
		res.BaseUnits = base.String()
	}
	if f.ui != "" {
		ui, err := conv.UiAmount(t.Address, amount.Str(f.ui))
		if err != nil {
			return err
		}
		res.UiAmount = ui
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func serveMetrics(cfg config.MetricsConfig, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", "addr", cfg.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()
	return srv
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "config.yaml", "Path to the configuration file.")
	flag.StringVar(&f.mint, "mint", "", "Asset address to resolve and print.")
	flag.StringVar(&f.convert, "convert", "", "Human-readable amount of -mint to convert to base units.")
	flag.StringVar(&f.ui, "ui", "", "Base-unit amount of -mint to render human-readable.")
	flag.BoolVar(&f.force, "force", false, "Bypass the catalogue cache on the first load.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", f.configPath)
	return f
}
