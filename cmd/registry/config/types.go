package config

import "time"

// Config is the top-level configuration of the registry command.
type Config struct {
	Chain        ChainConfig        `yaml:"chain"`
	Catalogue    CatalogueConfig    `yaml:"catalogue"`
	CoinGecko    CoinGeckoConfig    `yaml:"coingecko"`
	Supplemental SupplementalConfig `yaml:"supplemental"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Logging      LoggingConfig      `yaml:"logging"`
	HTTP         HTTPConfig         `yaml:"http"`
}

// ChainConfig points at the ledger JSON-RPC node used for on-chain fallback.
type ChainConfig struct {
	RPCURL     string `yaml:"rpcURL"`
	Commitment string `yaml:"commitment"`
}

type CatalogueConfig struct {
	BaseURL      string   `yaml:"baseURL"`
	SecondaryURL string   `yaml:"secondaryURL"`
	CacheTTL     Duration `yaml:"cacheTTL"`
}

type CoinGeckoConfig struct {
	BaseURL   string `yaml:"baseURL"`
	APIKey    string `yaml:"apiKey"`
	ChunkSize int    `yaml:"chunkSize"`
}

// SupplementalConfig locates the file that persists on-demand resolved assets.
// An empty path disables persistence.
type SupplementalConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// Duration is a wrapper around time.Duration for YAML parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration.
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
