package metrics

import (
	"sync/atomic"
	"time"
)

// Collector tracks request-level counters for the metrics endpoint.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	payCalculations uint64
	totalDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordPayCalculation() {
	atomic.AddUint64(&c.payCalculations, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	payCalcs := atomic.LoadUint64(&c.payCalculations)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          errs,
		"payCalculationsTotal": payCalcs,
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
	}
}
