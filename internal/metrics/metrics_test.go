// internal/metrics/metrics_test.go
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordsMetrics(t *testing.T) {
	collector := NewCollector(prometheus.NewRegistry())

	collector.RecordRPCLatency("view", "supply", 10*time.Millisecond)
	collector.RecordScan("floor", 3, 250*time.Millisecond)
	collector.RecordProbeFailure("listing")
	collector.RecordEnumerationFailure()
	collector.RecordTransaction("buy", true)
	collector.RecordTransaction("buy", false)
	collector.RecordFloorPrice(500)

	assert.Equal(t, float64(3), testutil.ToFloat64(scanItems.WithLabelValues("floor")))
	assert.Equal(t, float64(1), testutil.ToFloat64(probeFailures.WithLabelValues("listing")))
	assert.Equal(t, float64(1), testutil.ToFloat64(transactionCounter.WithLabelValues("success", "buy")))
	assert.Equal(t, float64(1), testutil.ToFloat64(transactionCounter.WithLabelValues("failed", "buy")))
	assert.Equal(t, float64(500), testutil.ToFloat64(floorPrice))
}

func TestCollectorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { NewCollector(reg) })
	require.Panics(t, func() { NewCollector(reg) }, "double registration on one registry must fail loudly")
}
