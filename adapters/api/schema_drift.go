package api

import (
	"sync"

	"hyperleaf/domain/result"
	"hyperleaf/internal"
)

// SchemaDriftMonitor remembers which key generation each endpoint last
// answered with and logs when it changes. Drift is absorbed by the
// normalizer; this only makes it visible in debug logs.
type SchemaDriftMonitor struct {
	mu     sync.Mutex
	last   map[string]result.SchemaShape
	counts map[string]map[result.SchemaShape]int
	logger *internal.Logger
}

// NewSchemaDriftMonitor creates an empty monitor
func NewSchemaDriftMonitor(logger *internal.Logger) *SchemaDriftMonitor {
	return &SchemaDriftMonitor{
		last:   make(map[string]result.SchemaShape),
		counts: make(map[string]map[result.SchemaShape]int),
		logger: logger,
	}
}

// Observe records the shape of one payload from endpoint and returns it
func (m *SchemaDriftMonitor) Observe(endpoint string, raw result.RawResult) result.SchemaShape {
	shape := result.Normalize(raw).Schema
	if shape == result.SchemaEmpty {
		return shape
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.counts[endpoint] == nil {
		m.counts[endpoint] = make(map[result.SchemaShape]int)
	}
	m.counts[endpoint][shape]++

	prev, seen := m.last[endpoint]
	m.last[endpoint] = shape
	if seen && prev != shape {
		m.logger.Debug("[schema] %s payload shape changed %s -> %s", endpoint, prev, shape)
	}
	return shape
}

// Counts returns how often each shape was observed for endpoint
func (m *SchemaDriftMonitor) Counts(endpoint string) map[result.SchemaShape]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[result.SchemaShape]int, len(m.counts[endpoint]))
	for k, v := range m.counts[endpoint] {
		out[k] = v
	}
	return out
}
