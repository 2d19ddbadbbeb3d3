// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Poll counts (only for polled operations)
	TotalPolls int64
	MinPolls   int64
	MaxPolls   int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"totalTimeMs"`
	AvgTimeMs   float64 `json:"avgTimeMs"`
	MinTimeMs   int64   `json:"minTimeMs"`
	MaxTimeMs   int64   `json:"maxTimeMs"`

	// Poll stats (nil if not applicable)
	TotalPolls *int64   `json:"totalPolls,omitempty"`
	AvgPolls   *float64 `json:"avgPolls,omitempty"`
	MinPolls   *int64   `json:"minPolls,omitempty"`
	MaxPolls   *int64   `json:"maxPolls,omitempty"`
}

// Snapshot represents the full server statistics at a point in time.
// Statistics reset on process restart.
type Snapshot struct {
	UptimeSeconds  float64            `json:"uptimeSeconds"`
	GenieSend      *OperationSnapshot `json:"genieSend,omitempty"`
	WarehouseQuery *OperationSnapshot `json:"warehouseQuery,omitempty"`
	ChartData      *OperationSnapshot `json:"chartData,omitempty"`
	GenieProxy     *OperationSnapshot `json:"genieProxy,omitempty"`
}

// Operation names for the collector.
const (
	OpGenieSend      = "genie_send"
	OpWarehouseQuery = "warehouse_query"
	OpChartData      = "chart_data"
	OpGenieProxy     = "genie_proxy"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime:  time.Duration(math.MaxInt64),
			MinPolls: math.MaxInt64,
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordPolled records timing and the number of status polls for an
// operation that waits on a remote job.
func (c *Collector) RecordPolled(op string, duration time.Duration, polls int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}

	m.TotalPolls += polls
	if polls < m.MinPolls {
		m.MinPolls = polls
	}
	if polls > m.MaxPolls {
		m.MaxPolls = polls
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includePolls bool) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if includePolls && m.TotalPolls > 0 {
		total := m.TotalPolls
		avg := float64(m.TotalPolls) / float64(m.Count)
		minPolls := m.MinPolls
		maxPolls := m.MaxPolls

		// Reset sentinel values for display
		if minPolls == math.MaxInt64 {
			minPolls = 0
		}

		snap.TotalPolls = &total
		snap.AvgPolls = &avg
		snap.MinPolls = &minPolls
		snap.MaxPolls = &maxPolls
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds:  time.Since(c.startTime).Seconds(),
		GenieSend:      snapshotOp(c.ops[OpGenieSend], true),
		WarehouseQuery: snapshotOp(c.ops[OpWarehouseQuery], false),
		ChartData:      snapshotOp(c.ops[OpChartData], false),
		GenieProxy:     snapshotOp(c.ops[OpGenieProxy], false),
	}
}
