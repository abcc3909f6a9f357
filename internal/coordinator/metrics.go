package coordinator

import "sync/atomic"

// metrics holds the engine's monotonically increasing counters. Counters are
// atomic so pipeline goroutines and admin reads never contend on a lock.
type metrics struct {
	totalProcessed          atomic.Int64
	duplicatesSkipped       atomic.Int64
	raceConditionsPrevented atomic.Int64
	sourcePrioritySkips     atomic.Int64
	processingErrors        atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TotalProcessed          int64 `json:"total_processed"`
	DuplicatesSkipped       int64 `json:"duplicates_skipped"`
	RaceConditionsPrevented int64 `json:"race_conditions_prevented"`
	SourcePrioritySkips     int64 `json:"source_priority_skips"`
	ProcessingErrors        int64 `json:"processing_errors"`
}

func (m *metrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalProcessed:          m.totalProcessed.Load(),
		DuplicatesSkipped:       m.duplicatesSkipped.Load(),
		RaceConditionsPrevented: m.raceConditionsPrevented.Load(),
		SourcePrioritySkips:     m.sourcePrioritySkips.Load(),
		ProcessingErrors:        m.processingErrors.Load(),
	}
}

func (m *metrics) reset() {
	m.totalProcessed.Store(0)
	m.duplicatesSkipped.Store(0)
	m.raceConditionsPrevented.Store(0)
	m.sourcePrioritySkips.Store(0)
	m.processingErrors.Store(0)
}
