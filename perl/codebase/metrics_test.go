package codebase

import (
	"testing"

	"github.com/dhamidi/perlls/perl/incremental"
)

func TestServerMetricsRecord(t *testing.T) {
	var m ServerMetrics
	m.Record(incremental.Metrics{NodesReparsed: 10, LastParseTimeMs: 2}, true)
	m.Record(incremental.Metrics{NodesReused: 9, NodesReparsed: 1, LastParseTimeMs: 1}, false)
	m.Record(incremental.Metrics{NodesReused: 5, NodesReparsed: 5, LastParseTimeMs: 3}, false)

	if m.TotalFullParses != 1 || m.TotalIncrementalParses != 2 || m.TotalParses() != 3 {
		t.Errorf("counts = %+v", m)
	}
	if m.AvgParseTimeMs != 2 || m.BestParseTimeMs != 1 || m.WorstParseTimeMs != 3 {
		t.Errorf("avg=%v best=%v worst=%v, want 2, 1, 3", m.AvgParseTimeMs, m.BestParseTimeMs, m.WorstParseTimeMs)
	}
	if m.TotalNodesReused != 14 || m.TotalNodesReparsed != 16 {
		t.Errorf("reused=%d reparsed=%d, want 14 and 16", m.TotalNodesReused, m.TotalNodesReparsed)
	}
	if got, want := m.ReuseRate(), 100*14.0/30.0; got != want {
		t.Errorf("ReuseRate() = %v, want %v", got, want)
	}
}

func TestServerMetricsEmpty(t *testing.T) {
	var m ServerMetrics
	if m.ReuseRate() != 0 {
		t.Errorf("ReuseRate() = %v, want 0", m.ReuseRate())
	}
	m.Record(incremental.Metrics{LastParseTimeMs: 0.5}, true)
	if m.BestParseTimeMs != 0.5 {
		t.Errorf("BestParseTimeMs = %v, want 0.5", m.BestParseTimeMs)
	}
}
