package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/MasterOfBinary/tripload/batch"
)

func TestBasicStatsCollector(t *testing.T) {
	stats := NewBasicStatsCollector()
	b := New(FixedSize(4)).WithStats(stats)

	itemErr := errors.New("bad")
	proc := processorFunc(func(ctx context.Context, items []*Item) ([]*Item, error) {
		for _, item := range items {
			if item.ID == 9 {
				item.Error = itemErr
			}
		}
		return items, nil
	})

	err := b.Wait(b.Go(context.Background(), &sliceSource{Items: numbers(10)}, proc))
	require.True(t, errors.Is(err, itemErr))

	s := stats.GetStats()
	assert.Equal(t, uint64(3), s.BatchesStarted)
	assert.Equal(t, uint64(3), s.BatchesCompleted)
	assert.Equal(t, uint64(9), s.ItemsProcessed)
	assert.Equal(t, uint64(1), s.ItemErrors)
	assert.Equal(t, 2, s.MinBatchSize)
	assert.Equal(t, 4, s.MaxBatchSize)
	assert.InDelta(t, 10.0/3.0, s.AverageBatchSize(), 0.001)
	assert.True(t, s.MaxBatchTime >= s.MinBatchTime)
	assert.True(t, s.Duration() >= 0)
}

func TestBasicStatsCollector_Empty(t *testing.T) {
	s := NewBasicStatsCollector().GetStats()
	assert.Equal(t, time.Duration(0), s.MinBatchTime)
	assert.Equal(t, 0.0, s.AverageBatchSize())
}

func TestPrometheusStatsCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats, err := NewPrometheusStatsCollector(reg)
	require.NoError(t, err)

	srcErr := errors.New("read failed")
	b := New(FixedSize(2)).WithStats(stats)
	procErr := errors.New("write failed")
	proc := processorFunc(func(ctx context.Context, items []*Item) ([]*Item, error) {
		if items[0].ID == 0 {
			return items, procErr
		}
		return items, nil
	})

	b.Wait(b.Go(context.Background(), &sliceSource{Items: numbers(5), WithErr: srcErr}, proc))
	stats.RecordItemRejected()

	s := stats.GetStats()
	assert.Equal(t, uint64(3), s.BatchesCompleted)
	assert.Equal(t, uint64(1), s.SourceErrors)
	assert.Equal(t, uint64(1), s.ProcessorErrors)
	assert.Equal(t, uint64(1), s.ItemsRejected)
	assert.Equal(t, uint64(3), s.ItemsProcessed, "items of the failed batch are not processed")
	assert.Equal(t, uint64(2), s.ItemErrors)

	series := seriesByName(t, reg)
	assert.Equal(t, 1, series["tripload_batch_duration_seconds"])
	assert.Equal(t, 1, series["tripload_batch_size"])
	assert.Equal(t, 2, series["tripload_batches_total"])
	assert.Equal(t, 3, series["tripload_items_total"])
	assert.Equal(t, 2, series["tripload_errors_total"])

	_, err = NewPrometheusStatsCollector(reg)
	assert.Error(t, err, "metrics can only be registered once per registry")
}

// seriesByName gathers reg and counts the series of each metric family.
func seriesByName(t *testing.T, reg *prometheus.Registry) map[string]int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	series := make(map[string]int)
	for _, f := range families {
		series[f.GetName()] = len(f.GetMetric())
	}
	return series
}

func TestNoOpStatsCollector(t *testing.T) {
	var stats StatsCollector = &NoOpStatsCollector{}
	b := New(FixedSize(2)).WithStats(stats)
	require.NoError(t, b.Wait(b.Go(context.Background(), &sliceSource{Items: numbers(3)}, &recordProcessor{})))

	stats.RecordItemRejected()
	assert.Equal(t, Stats{}, stats.GetStats())
}
