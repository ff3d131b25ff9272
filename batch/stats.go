package batch

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// StatsCollector receives metrics during batch processing. The engine calls
// every method except RecordItemRejected, which is for processors that write
// to a store that can acknowledge a batch but refuse individual items.
type StatsCollector interface {
	// RecordBatchStart is called when a batch is dispatched.
	RecordBatchStart(batchSize int)

	// RecordBatchComplete is called when a batch has been through every
	// processor.
	RecordBatchComplete(batchSize int, duration time.Duration)

	// RecordItemProcessed is called for each item without an error.
	RecordItemProcessed()

	// RecordItemError is called for each item with an error.
	RecordItemError()

	// RecordItemRejected is called by processors for an item the store
	// refused inside an otherwise successful write.
	RecordItemRejected()

	// RecordSourceError is called when the source reports an error.
	RecordSourceError()

	// RecordProcessorError is called when a processor fails a whole batch.
	RecordProcessorError()

	// GetStats returns a snapshot of the current statistics.
	GetStats() Stats
}

// Stats holds aggregated statistics about batch processing.
type Stats struct {
	BatchesStarted   uint64
	BatchesCompleted uint64
	ItemsProcessed   uint64
	ItemErrors       uint64
	ItemsRejected    uint64
	SourceErrors     uint64
	ProcessorErrors  uint64

	// TotalProcessingTime is the cumulative time spent processing all
	// batches. Batches overlap, so this can exceed the wall-clock time.
	TotalProcessingTime time.Duration
	MinBatchTime        time.Duration
	MaxBatchTime        time.Duration
	MinBatchSize        int
	MaxBatchSize        int

	StartTime      time.Time
	LastUpdateTime time.Time
}

// NoOpStatsCollector discards all metrics. It is the default.
type NoOpStatsCollector struct{}

// RecordBatchStart implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchStart(batchSize int) {}

// RecordBatchComplete implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordBatchComplete(batchSize int, duration time.Duration) {}

// RecordItemProcessed implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemProcessed() {}

// RecordItemError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemError() {}

// RecordItemRejected implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordItemRejected() {}

// RecordSourceError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordSourceError() {}

// RecordProcessorError implements the StatsCollector interface.
func (n *NoOpStatsCollector) RecordProcessorError() {}

// GetStats implements the StatsCollector interface. It always returns empty
// Stats.
func (n *NoOpStatsCollector) GetStats() Stats { return Stats{} }

// BasicStatsCollector is an in-memory StatsCollector. All operations are
// safe for concurrent use.
type BasicStatsCollector struct {
	mu    sync.RWMutex
	stats Stats

	batchesStarted   uint64
	batchesCompleted uint64
	itemsProcessed   uint64
	itemErrors       uint64
	itemsRejected    uint64
	sourceErrors     uint64
	processorErrors  uint64
}

// NewBasicStatsCollector creates a new BasicStatsCollector.
func NewBasicStatsCollector() *BasicStatsCollector {
	now := time.Now()
	return &BasicStatsCollector{
		stats: Stats{
			StartTime:      now,
			LastUpdateTime: now,
			MinBatchTime:   time.Duration(math.MaxInt64),
		},
	}
}

// RecordBatchStart implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchStart(batchSize int) {
	atomic.AddUint64(&b.batchesStarted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()
	if batchSize < b.stats.MinBatchSize || b.stats.MinBatchSize == 0 {
		b.stats.MinBatchSize = batchSize
	}
	if batchSize > b.stats.MaxBatchSize {
		b.stats.MaxBatchSize = batchSize
	}
}

// RecordBatchComplete implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordBatchComplete(batchSize int, duration time.Duration) {
	atomic.AddUint64(&b.batchesCompleted, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.LastUpdateTime = time.Now()
	b.stats.TotalProcessingTime += duration
	if duration < b.stats.MinBatchTime {
		b.stats.MinBatchTime = duration
	}
	if duration > b.stats.MaxBatchTime {
		b.stats.MaxBatchTime = duration
	}
}

// RecordItemProcessed implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemProcessed() {
	atomic.AddUint64(&b.itemsProcessed, 1)
}

// RecordItemError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemError() {
	atomic.AddUint64(&b.itemErrors, 1)
}

// RecordItemRejected implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordItemRejected() {
	atomic.AddUint64(&b.itemsRejected, 1)
}

// RecordSourceError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordSourceError() {
	atomic.AddUint64(&b.sourceErrors, 1)
}

// RecordProcessorError implements the StatsCollector interface.
func (b *BasicStatsCollector) RecordProcessorError() {
	atomic.AddUint64(&b.processorErrors, 1)
}

// GetStats implements the StatsCollector interface.
func (b *BasicStatsCollector) GetStats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := b.stats
	stats.BatchesStarted = atomic.LoadUint64(&b.batchesStarted)
	stats.BatchesCompleted = atomic.LoadUint64(&b.batchesCompleted)
	stats.ItemsProcessed = atomic.LoadUint64(&b.itemsProcessed)
	stats.ItemErrors = atomic.LoadUint64(&b.itemErrors)
	stats.ItemsRejected = atomic.LoadUint64(&b.itemsRejected)
	stats.SourceErrors = atomic.LoadUint64(&b.sourceErrors)
	stats.ProcessorErrors = atomic.LoadUint64(&b.processorErrors)

	if stats.BatchesCompleted == 0 {
		stats.MinBatchTime = 0
	}

	return stats
}

// AverageBatchSize returns the average size of completed batches.
func (s *Stats) AverageBatchSize() float64 {
	if s.BatchesCompleted == 0 {
		return 0
	}
	return float64(s.ItemsProcessed+s.ItemErrors) / float64(s.BatchesCompleted)
}

// Duration returns the time between the start of collection and the last
// update.
func (s *Stats) Duration() time.Duration {
	return s.LastUpdateTime.Sub(s.StartTime)
}
