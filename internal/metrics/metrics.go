// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rpcLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floorbot_rpc_request_duration_seconds",
			Help:    "Latency of view and submit calls against the fullnode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "function"},
	)

	scanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floorbot_scan_duration_seconds",
			Help:    "Duration of a full collection scan per derived view",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"view"},
	)

	scanItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "floorbot_scan_items",
			Help: "Number of items produced by the last scan per derived view",
		},
		[]string{"view"},
	)

	probeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorbot_probe_failures_total",
			Help: "Per-item probe failures swallowed by the scan engine",
		},
		[]string{"stage"},
	)

	enumerationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "floorbot_enumeration_failures_total",
			Help: "Whole-scan enumeration failures degraded to empty results",
		},
	)

	transactionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorbot_transactions_total",
			Help: "Submitted transactions by action and outcome",
		},
		[]string{"status", "action"},
	)

	floorPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "floorbot_floor_price",
			Help: "Last observed floor price in the ledger's smallest unit",
		},
	)
)

// Collector owns the metric set and registers it on a prometheus registry.
type Collector struct{}

// NewCollector creates a collector with all metrics registered on the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	reg.MustRegister(
		rpcLatency,
		scanDuration,
		scanItems,
		probeFailures,
		enumerationFailures,
		transactionCounter,
		floorPrice,
	)
	return &Collector{}
}

// RecordRPCLatency records the latency of a single fullnode call.
func (c *Collector) RecordRPCLatency(method, function string, duration time.Duration) {
	rpcLatency.WithLabelValues(method, function).Observe(duration.Seconds())
}

// RecordScan records the outcome of a full scan for one derived view.
func (c *Collector) RecordScan(view string, items int, duration time.Duration) {
	scanDuration.WithLabelValues(view).Observe(duration.Seconds())
	scanItems.WithLabelValues(view).Set(float64(items))
}

// RecordProbeFailure counts a swallowed per-item failure at a pipeline stage.
func (c *Collector) RecordProbeFailure(stage string) {
	probeFailures.WithLabelValues(stage).Inc()
}

// RecordEnumerationFailure counts a whole-scan failure degraded to empty.
func (c *Collector) RecordEnumerationFailure() {
	enumerationFailures.Inc()
}

// RecordTransaction counts a submitted transaction outcome.
func (c *Collector) RecordTransaction(action string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	transactionCounter.WithLabelValues(status, action).Inc()
}

// RecordFloorPrice publishes the last observed floor price.
func (c *Collector) RecordFloorPrice(price uint64) {
	floorPrice.Set(float64(price))
}
