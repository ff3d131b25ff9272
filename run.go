package tripload

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/MasterOfBinary/tripload/batch"
	"github.com/MasterOfBinary/tripload/processor"
	"github.com/MasterOfBinary/tripload/source"
	"github.com/MasterOfBinary/tripload/store"
)

// Result is what a successful Run produced.
type Result struct {
	// Stats describes the ingestion.
	Stats batch.Stats
	// Report is the station activity aggregation.
	Report *store.StationReport
}

// Run loads cfg.File into the index and queries station activity. See the
// package documentation for the steps.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.File == "" {
		return nil, errors.New("no trips file given")
	}
	cfg = cfg.withDefaults()

	log := zerolog.Nop()
	if cfg.Log != nil {
		log = *cfg.Log
	}

	src, err := source.OpenTripFile(cfg.File)
	if err != nil {
		return nil, err
	}
	// Read closes the file when it finishes; this covers early returns.
	defer src.Close()

	client, err := store.New(store.Config{
		URL:   cfg.URL,
		Index: cfg.Index,
		Log:   &log,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Recreate(ctx); err != nil {
		return nil, err
	}

	stats, err := newStats(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	b := batch.New(batch.FixedSize(cfg.BatchSize)).
		WithLogger(log).
		WithStats(stats)

	log.Info().
		Str("file", src.Name()).
		Uint64("batch_size", cfg.BatchSize).
		Msg("indexing trips")

	bulk := &processor.Bulk{
		Indexer: client,
		Stats:   stats,
		Log:     &log,
	}
	if err := b.Wait(b.Go(ctx, src, bulk)); err != nil {
		return nil, errors.Wrapf(err, "loading %s", src.Name())
	}

	st := stats.GetStats()
	log.Info().
		Uint64("documents", st.ItemsProcessed).
		Uint64("rejected", st.ItemsRejected).
		Uint64("batches", st.BatchesCompleted).
		Dur("took", st.Duration()).
		Msg("done indexing")

	if err := client.Refresh(ctx); err != nil {
		return nil, err
	}
	report, err := client.StationActivity(ctx, cfg.Stations)
	if err != nil {
		return nil, err
	}

	return &Result{Stats: st, Report: report}, nil
}

// newStats exports metrics when reg is set and only counts in memory
// otherwise.
func newStats(reg prometheus.Registerer) (batch.StatsCollector, error) {
	if reg == nil {
		return batch.NewBasicStatsCollector(), nil
	}
	stats, err := batch.NewPrometheusStatsCollector(reg)
	if err != nil {
		return nil, errors.Wrap(err, "registering metrics")
	}
	return stats, nil
}
