package prices

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type Metrics struct {
	refreshesTotal  *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	priced          *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		refreshesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assetregistry_price_refreshes_total",
			Help: "Price refreshes by outcome.",
		}, []string{"outcome"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "assetregistry_price_refresh_duration_seconds",
			Help:    "Duration of a price refresh, fetches included.",
			Buckets: prometheus.DefBuckets,
		}),
		priced: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assetregistry_priced_assets",
			Help: "Assets in the live price mapping by the source that priced them.",
		}, []string{"source"}),
	}
}
