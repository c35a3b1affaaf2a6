package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QuotesComputed   *prometheus.CounterVec
	QuoteTotal       prometheus.Histogram
	ProviderErrors   *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	QuotesSuperseded prometheus.Counter
	InFlightQuotes   prometheus.Gauge
	ActiveWorkers    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		QuotesComputed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "haulage_quotes_total",
			Help: "Total number of quote requests by outcome.",
		}, []string{"status"}),
		QuoteTotal: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "haulage_quote_total_cost",
			Help:    "Distribution of the total cost of successful quotes.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10),
		}),
		ProviderErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "haulage_provider_api_errors_total",
			Help: "Total number of errors received from the route provider.",
		}, []string{"operation"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haulage_provider_request_duration_seconds",
			Help:    "Duration of requests to the route provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "haulage_cache_lookups_total",
			Help: "Cache lookups by cache and result (hit, miss, error).",
		}, []string{"cache", "result"}),
		QuotesSuperseded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "haulage_quotes_superseded_total",
			Help: "Quotes discarded because a newer request arrived for the same session.",
		}),
		InFlightQuotes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "haulage_quotes_in_flight",
			Help: "Quotes currently being computed.",
		}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "haulage_batch_active_workers",
			Help: "Current number of workers resolving batch addresses.",
		}),
	}
}
