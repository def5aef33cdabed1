// Package stats exposes prometheus counters and histograms for the
// catalog's middle layer and the data proxy's S3 gate.
//
// Grounded on the teacher's stats/proxy_stats.go and
// stats/target_stats.go: the same naming convention (".n" for a count,
// ".μs" for a latency, ".size" for a byte size) carried over as metric
// name suffixes, generalized here from the teacher's own hand-rolled
// StatsD tracker (registerCommonStats/doAdd/copyCumulative) to
// prometheus/client_golang's CounterVec/HistogramVec, since the
// teacher's StatsD client is not a real go.mod dependency of this repo
// (its own go.mod already lists prometheus/client_golang for the
// purpose).
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Handler identifies one middle-layer or gate operation for metric
// labeling (e.g. "CreateObject", "CheckAccess").
type Handler = string

// Registry holds the counters/histograms shared across the catalog and
// data-proxy processes. Constructed once at daemon start and registered
// against the Registerer passed to NewRegistry (each daemon builds its
// own prometheus.Registry), mirroring spec.md §9's "only
// the cache and the pubkey ring are process-wide singletons" — Registry
// is a third, metrics-only singleton, constructed the same way.
type Registry struct {
	requestsTotal   *prometheus.CounterVec // handler.n
	requestErrors   *prometheus.CounterVec // handler.errors.n
	requestLatency  *prometheus.HistogramVec // handler.μs
	objectBytes     *prometheus.CounterVec // object.size
	replicationLag  *prometheus.GaugeVec     // replication.lag.μs
	cacheHighWater  prometheus.Gauge         // cache.hwm
}

func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "requests_total",
			Help:      "Total handler invocations, by handler name.",
		}, []string{"handler"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "request_errors_total",
			Help:      "Total handler failures, by handler name and error kind.",
		}, []string{"handler", "kind"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "catalog",
			Name:      "request_latency_microseconds",
			Help:      "Handler latency in microseconds, by handler name.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}, []string{"handler"}),
		objectBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxy",
			Name:      "object_bytes_total",
			Help:      "Bytes served through the S3 gate, by method.",
		}, []string{"method"}),
		replicationLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "catalog",
			Name:      "replication_lag_microseconds",
			Help:      "Time since a replication record last made progress.",
		}, []string{"endpoint"}),
		cacheHighWater: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "catalog",
			Name:      "cache_high_water_mark",
			Help:      "Highest notification-bus sequence number applied to the cache.",
		}),
	}
	reg.MustRegister(r.requestsTotal, r.requestErrors, r.requestLatency, r.objectBytes, r.replicationLag, r.cacheHighWater)
	return r
}

// Observe records one handler invocation's outcome and latency, the way
// the teacher's ProxyCoreStats.doAdd folded a ".n" count and a ".μs"
// latency sample into one call.
func (r *Registry) Observe(handler Handler, start time.Time, errKind string) {
	r.requestsTotal.WithLabelValues(handler).Inc()
	r.requestLatency.WithLabelValues(handler).Observe(float64(time.Since(start).Microseconds()))
	if errKind != "" {
		r.requestErrors.WithLabelValues(handler, errKind).Inc()
	}
}

func (r *Registry) AddObjectBytes(method string, n int64) {
	r.objectBytes.WithLabelValues(method).Add(float64(n))
}

func (r *Registry) SetReplicationLag(endpoint string, lag time.Duration) {
	r.replicationLag.WithLabelValues(endpoint).Set(float64(lag.Microseconds()))
}

func (r *Registry) SetCacheHighWater(hwm int64) {
	r.cacheHighWater.Set(float64(hwm))
}
