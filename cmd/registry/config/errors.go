package config

import "errors"

var (
	// ErrRPCURLRequired indicates that chain.rpcURL must be specified.
	ErrRPCURLRequired = errors.New("chain.rpcURL must be specified")
	// ErrInvalidURL indicates that a configured endpoint is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrNegativeDuration indicates that a duration setting is negative.
	ErrNegativeDuration = errors.New("duration cannot be negative")
	// ErrInvalidChunkSize indicates that coingecko.chunkSize is negative.
	ErrInvalidChunkSize = errors.New("coingecko.chunkSize cannot be negative")
	// ErrInvalidLogLevel indicates that logging.level is not a known level.
	ErrInvalidLogLevel = errors.New("invalid logging.level")
	// ErrInvalidMetricsPath indicates that metrics.path does not start with a slash.
	ErrInvalidMetricsPath = errors.New("metrics.path must start with /")
	// ErrInvalidCommitment indicates that chain.commitment is not a known commitment level.
	ErrInvalidCommitment = errors.New("invalid chain.commitment")
)
