// Package config loads and validates the registry command's YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCatalogueBaseURL = "https://api-v3.raydium.io"
	DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	DefaultCommitment       = "confirmed"
	DefaultCacheTTL         = 5 * time.Minute
	DefaultHTTPTimeout      = 10 * time.Second
	DefaultMetricsAddr      = ":9091"
	DefaultMetricsPath      = "/metrics"
	DefaultLogLevel         = "info"
)

// Load reads the YAML file at path, expands ${ENV} references, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a configuration document.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Chain.Commitment == "" {
		cfg.Chain.Commitment = DefaultCommitment
	}
	if cfg.Catalogue.BaseURL == "" {
		cfg.Catalogue.BaseURL = DefaultCatalogueBaseURL
	}
	if cfg.Catalogue.CacheTTL == 0 {
		cfg.Catalogue.CacheTTL = Duration(DefaultCacheTTL)
	}
	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = DefaultCoinGeckoBaseURL
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = Duration(DefaultHTTPTimeout)
	}
}

// Validate checks configuration for errors.
func Validate(cfg *Config) error {
	if cfg.Chain.RPCURL == "" {
		return ErrRPCURLRequired
	}
	if err := validateURL("chain.rpcURL", cfg.Chain.RPCURL); err != nil {
		return err
	}
	switch cfg.Chain.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCommitment, cfg.Chain.Commitment)
	}

	if err := validateURL("catalogue.baseURL", cfg.Catalogue.BaseURL); err != nil {
		return err
	}
	if cfg.Catalogue.SecondaryURL != "" {
		if err := validateURL("catalogue.secondaryURL", cfg.Catalogue.SecondaryURL); err != nil {
			return err
		}
	}
	if cfg.Catalogue.CacheTTL < 0 {
		return fmt.Errorf("catalogue.cacheTTL: %w", ErrNegativeDuration)
	}

	if err := validateURL("coingecko.baseURL", cfg.CoinGecko.BaseURL); err != nil {
		return err
	}
	if cfg.CoinGecko.ChunkSize < 0 {
		return ErrInvalidChunkSize
	}

	if cfg.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout: %w", ErrNegativeDuration)
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return ErrInvalidMetricsPath
	}
	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", key, ErrInvalidURL, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s: %w: %q", key, ErrInvalidURL, raw)
	}
	return nil
}

// ParseLevel maps logging.level onto a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return l, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
	return l, nil
}
