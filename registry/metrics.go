package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"

	pathNative   = "native"
	pathCached   = "cached"
	pathMetadata = "metadata"
	pathLedger   = "ledger"
	pathNotFound = "not_found"
	pathError    = "error"
)

// Metrics holds the registry's prometheus collectors.
type Metrics struct {
	loadsTotal     *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	assets         *prometheus.GaugeVec
	blacklisted    prometheus.Gauge
	snapshotDiff   *prometheus.CounterVec
	resolvesTotal  *prometheus.CounterVec
	resolveLatency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetregistry_loads_total",
			Help: "Registry rebuilds by outcome.",
		}, []string{"outcome"}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetregistry_load_duration_seconds",
			Help:    "Duration of a full registry rebuild, fetch included.",
			Buckets: prometheus.DefBuckets,
		}),
		assets: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assetregistry_assets",
			Help: "Assets in the published snapshot by provenance.",
		}, []string{"provenance"}),
		blacklisted: f.NewGauge(prometheus.GaugeOpts{
			Name: "assetregistry_blacklisted_assets",
			Help: "Addresses in the published blacklist.",
		}),
		snapshotDiff: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetregistry_snapshot_changes_total",
			Help: "Changes between consecutive published snapshots by kind.",
		}, []string{"kind"}),
		resolvesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetregistry_resolves_total",
			Help: "Single-asset resolutions by the path that answered.",
		}, []string{"path"}),
		resolveLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetregistry_resolve_duration_seconds",
			Help:    "Duration of single-asset resolutions by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
}
