// metrics.go - Metrics collection for the diploma daemon
package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Predefined metric names
const (
	MetricIssuedCount      = "credentials_issued"
	MetricVerifiedCount    = "credentials_verified"
	MetricRevokedCount     = "credentials_revoked"
	MetricErrorCount       = "error_count"
	MetricLedgerSize       = "ledger_size"
	MetricConfirmationTime = "confirmation_time_seconds"
	MetricActiveSessions   = "active_sessions"
)

// MetricsCollector tracks counters, gauges, and operation durations.
type MetricsCollector struct {
	mu        sync.RWMutex
	counters  map[string]int64
	gauges    map[string]float64
	durations map[string][]float64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:  make(map[string]int64),
		gauges:    make(map[string]float64),
		durations: make(map[string][]float64),
	}
}

// Increment adds one to a counter.
func (mc *MetricsCollector) Increment(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name]++
}

// SetGauge sets a gauge value.
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[name] = value
}

// RecordDuration records an operation duration. Keeps the last 1000 samples
// per metric.
func (mc *MetricsCollector) RecordDuration(name string, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	samples := append(mc.durations[name], d.Seconds())
	if len(samples) > 1000 {
		samples = samples[len(samples)-1000:]
	}
	mc.durations[name] = samples
}

// Counter returns the current value of a counter.
func (mc *MetricsCollector) Counter(name string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.counters[name]
}

// Summary returns a snapshot of all metrics, with count/min/max/avg for
// duration series.
func (mc *MetricsCollector) Summary() map[string]interface{} {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	counters := make(map[string]int64, len(mc.counters))
	for name, v := range mc.counters {
		counters[name] = v
	}
	gauges := make(map[string]float64, len(mc.gauges))
	for name, v := range mc.gauges {
		gauges[name] = v
	}
	durations := make(map[string]map[string]float64, len(mc.durations))
	for name, samples := range mc.durations {
		if len(samples) == 0 {
			continue
		}
		min, max, sum := samples[0], samples[0], 0.0
		for _, v := range samples {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
		}
		durations[name] = map[string]float64{
			"count": float64(len(samples)),
			"min":   min,
			"max":   max,
			"avg":   sum / float64(len(samples)),
		}
	}

	return map[string]interface{}{
		"counters":  counters,
		"gauges":    gauges,
		"durations": durations,
	}
}

// writeMetrics serves the metrics summary as JSON.
func writeMetrics(w http.ResponseWriter, summary map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// Reset clears all metrics.
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters = make(map[string]int64)
	mc.gauges = make(map[string]float64)
	mc.durations = make(map[string][]float64)
}
