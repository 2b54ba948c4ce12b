package observability

import (
	"sync"
	"time"
)

type routeKey struct {
	Path   string
	Method string
}

type routeStats struct {
	Hits         int64
	Errors       int64
	TotalLatency time.Duration
}

// RouteSnapshot is an aggregated view of one route's traffic.
type RouteSnapshot struct {
	Path       string
	Method     string
	Hits       int64
	Errors     int64
	AvgLatency time.Duration
}

// Metrics keeps in-memory per-route request counters.
type Metrics struct {
	mu     sync.Mutex
	routes map[routeKey]*routeStats
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{routes: make(map[routeKey]*routeStats)}
}

// RecordRequest accounts a completed request. Statuses of 500 and above
// count as errors.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.route(path, method)
	stats.Hits++
	stats.TotalLatency += duration
	if status >= 500 {
		stats.Errors++
	}
}

// RecordError accounts a request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.route(path, method).Errors++
}

// Snapshot returns aggregated stats for every route seen so far.
func (m *Metrics) Snapshot() []RouteSnapshot {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RouteSnapshot, 0, len(m.routes))
	for key, stats := range m.routes {
		snap := RouteSnapshot{
			Path:   key.Path,
			Method: key.Method,
			Hits:   stats.Hits,
			Errors: stats.Errors,
		}
		if stats.Hits > 0 {
			snap.AvgLatency = stats.TotalLatency / time.Duration(stats.Hits)
		}
		out = append(out, snap)
	}
	return out
}

func (m *Metrics) route(path, method string) *routeStats {
	key := routeKey{Path: path, Method: method}
	stats, ok := m.routes[key]
	if !ok {
		stats = &routeStats{}
		m.routes[key] = stats
	}
	return stats
}
