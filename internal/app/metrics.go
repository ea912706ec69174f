package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks application-level preview activity.
type Metrics struct {
	// Scan timing
	scanCount   atomic.Uint64
	scanTotalNs atomic.Int64
	scanMinNs   atomic.Int64
	scanMaxNs   atomic.Int64
	lastScanNs  atomic.Int64

	// Edit activity
	changeCount atomic.Uint64

	// Configuration reloads observed at runtime
	reloadCount atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so the first scan will be smaller
	m.scanMinNs.Store(1<<63 - 1)
	return m
}

// RecordScan records the duration of one completed preview pass.
func (m *Metrics) RecordScan(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.scanCount.Add(1)
	m.scanTotalNs.Add(ns)
	m.lastScanNs.Store(ns)

	for {
		old := m.scanMinNs.Load()
		if ns >= old {
			break
		}
		if m.scanMinNs.CompareAndSwap(old, ns) {
			break
		}
	}

	for {
		old := m.scanMaxNs.Load()
		if ns <= old {
			break
		}
		if m.scanMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordChange records one content change notification.
func (m *Metrics) RecordChange() {
	m.changeCount.Add(1)
}

// RecordReload records one configuration reload.
func (m *Metrics) RecordReload() {
	m.reloadCount.Add(1)
}

// Snapshot returns a point-in-time view of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	scanCount := m.scanCount.Load()

	var avgScanNs int64
	if scanCount > 0 {
		avgScanNs = m.scanTotalNs.Load() / int64(scanCount)
	}

	minScanNs := m.scanMinNs.Load()
	if minScanNs == 1<<63-1 {
		minScanNs = 0
	}

	return MetricsSnapshot{
		Uptime:        time.Since(m.startTime),
		ScanCount:     scanCount,
		AvgScanTimeNs: avgScanNs,
		MinScanTimeNs: minScanNs,
		MaxScanTimeNs: m.scanMaxNs.Load(),
		LastScanNs:    m.lastScanNs.Load(),
		ChangeCount:   m.changeCount.Load(),
		ReloadCount:   m.reloadCount.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.scanCount.Store(0)
	m.scanTotalNs.Store(0)
	m.scanMinNs.Store(1<<63 - 1)
	m.scanMaxNs.Store(0)
	m.lastScanNs.Store(0)
	m.changeCount.Store(0)
	m.reloadCount.Store(0)
	m.startTime = time.Now()
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime        time.Duration
	ScanCount     uint64
	AvgScanTimeNs int64
	MinScanTimeNs int64
	MaxScanTimeNs int64
	LastScanNs    int64
	ChangeCount   uint64
	ReloadCount   uint64
}

// AvgScanMs returns the average scan time in milliseconds.
func (s MetricsSnapshot) AvgScanMs() float64 {
	return float64(s.AvgScanTimeNs) / 1e6
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Metrics returns the application's metrics instance.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
