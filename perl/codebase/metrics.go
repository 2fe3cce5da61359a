package codebase

import (
	"fmt"

	"github.com/dhamidi/perlls/perl/incremental"
)

// summaryInterval is the number of parses between performance summaries.
const summaryInterval = 100

// ServerMetrics aggregates the parse metrics of every document.
type ServerMetrics struct {
	TotalIncrementalParses int
	TotalFullParses        int
	AvgParseTimeMs         float64
	BestParseTimeMs        float64
	WorstParseTimeMs       float64
	TotalNodesReused       int
	TotalNodesReparsed     int
}

// Record folds in the metrics of one successful parse.
func (m *ServerMetrics) Record(pm incremental.Metrics, full bool) {
	if full {
		m.TotalFullParses++
	} else {
		m.TotalIncrementalParses++
	}
	total := m.TotalParses()
	m.AvgParseTimeMs = (m.AvgParseTimeMs*float64(total-1) + pm.LastParseTimeMs) / float64(total)
	if total == 1 || pm.LastParseTimeMs < m.BestParseTimeMs {
		m.BestParseTimeMs = pm.LastParseTimeMs
	}
	if pm.LastParseTimeMs > m.WorstParseTimeMs {
		m.WorstParseTimeMs = pm.LastParseTimeMs
	}
	m.TotalNodesReused += pm.NodesReused
	m.TotalNodesReparsed += pm.NodesReparsed
}

func (m ServerMetrics) TotalParses() int {
	return m.TotalIncrementalParses + m.TotalFullParses
}

// ReuseRate is the percentage of nodes taken from caches.
func (m ServerMetrics) ReuseRate() float64 {
	total := m.TotalNodesReused + m.TotalNodesReparsed
	if total == 0 {
		return 0
	}
	return 100 * float64(m.TotalNodesReused) / float64(total)
}

func (m ServerMetrics) String() string {
	return fmt.Sprintf("%d parses (incremental %d, full %d); avg=%.2fms best=%.2fms worst=%.2fms; %d reused, %d reparsed (%.1f%% reuse)",
		m.TotalParses(), m.TotalIncrementalParses, m.TotalFullParses,
		m.AvgParseTimeMs, m.BestParseTimeMs, m.WorstParseTimeMs,
		m.TotalNodesReused, m.TotalNodesReparsed, m.ReuseRate())
}
