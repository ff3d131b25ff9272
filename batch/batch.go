package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// closedDone is a pre-closed channel returned by Done when Go has not been
// called yet. This prevents callers from blocking on a nil channel.
var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Batch reads items from a Source, groups them into batches according to its
// Config and runs every batch through the Processors in its own goroutine.
// Errors are wrapped in either a SourceError or a ProcessorError, so the
// caller can determine where they came from.
//
// If Config is nil, every item is dispatched on its own.
//
// Batch runs asynchronously after Go is called. When processing is complete
// the error channel returned from Go is closed, and then the channel returned
// from Done is closed.
//
//	errs := b.Go(ctx, s, p)
//	for err := range errs {
//		log.Print(err)
//	}
//	// Now batch processing is done
type Batch struct {
	config     Config
	log        zerolog.Logger
	hasLog     bool
	stats      StatsCollector
	src        Source
	processors []Processor
	items      chan *Item
	done       chan struct{}

	mu      sync.Mutex
	running bool
	errs    chan error
}

// New creates a new Batch using the provided config. If config is nil,
// a default configuration is used.
func New(config Config) *Batch {
	return &Batch{
		config: config,
	}
}

// WithLogger sets the logger used for progress and error reporting. Without
// one nothing is logged.
//
// Panics if called after Go() has started.
func (b *Batch) WithLogger(log zerolog.Logger) *Batch {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		panic("batch: WithLogger cannot be called after Go() has started")
	}

	b.log = log
	b.hasLog = true
	return b
}

// WithStats sets a stats collector for the Batch. If not set, no statistics
// are collected.
//
// Panics if called after Go() has started.
func (b *Batch) WithStats(stats StatsCollector) *Batch {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		panic("batch: WithStats cannot be called after Go() has started")
	}

	b.stats = stats
	return b
}

// Item represents a single data item flowing through the batch pipeline.
type Item struct {
	// ID is the zero-based position of the item in the order it was read
	// from the Source. It must not be modified by processors.
	ID uint64

	// Data holds the payload being processed.
	Data interface{}

	// Error is set by processors to indicate a failure specific to this item.
	Error error
}

// Source reads items that are to be batch processed.
type Source interface {
	// Read starts reading and returns two channels: one for items and one
	// for errors.
	//
	// Read must create both channels (never return nil channels), and must
	// close them when reading is finished or when ctx is canceled.
	Read(ctx context.Context) (<-chan interface{}, <-chan error)
}

// Processor processes one batch of items. Processors can be chained; each one
// receives the output of the previous one.
type Processor interface {
	// Process applies operations to a batch of items. It may modify item
	// data or set item.Error on individual items, and returns the resulting
	// items and a batch-wide error, if any.
	Process(ctx context.Context, items []*Item) ([]*Item, error)
}

// Go starts batch processing asynchronously and returns an error channel.
//
//   - Items are read from the Source and numbered from zero.
//   - Items are grouped into batches based on the Config.
//   - Each batch is processed through the Processors in its own goroutine,
//     without waiting for earlier batches.
//
// Go must only be called once at a time. Calling Go again while a batch is
// already running panics.
//
// Canceling ctx stops reading, but batches that were already dispatched are
// still processed with the same ctx.
func (b *Batch) Go(ctx context.Context, s Source, procs ...Processor) <-chan error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		panic("batch: concurrent calls to Batch.Go are not allowed")
	}

	if b.config == nil {
		b.config = NewConstantConfig(nil)
	}
	if !b.hasLog {
		b.log = zerolog.Nop()
	}
	if b.stats == nil {
		b.stats = &NoOpStatsCollector{}
	}

	b.running = true

	if s == nil {
		b.errs = make(chan error, 1)
		b.done = make(chan struct{})
		b.errs <- errors.New("source cannot be nil")
		close(b.errs)
		close(b.done)
		b.running = false
		return b.errs
	}

	b.src = s

	b.processors = make([]Processor, 0, len(procs))
	for _, p := range procs {
		if p != nil {
			b.processors = append(b.processors, p)
		}
	}

	b.items = make(chan *Item, DefaultItemBufferSize)
	b.errs = make(chan error, DefaultErrorBufferSize)
	b.done = make(chan struct{})

	b.log.Debug().Int("processors", len(b.processors)).Msg("starting batch processing")

	go b.doReader(ctx)
	go b.doProcessors(ctx)

	return b.errs
}

// Done returns a channel that is closed when batch processing is complete,
// that is, after every dispatched batch has finished.
func (b *Batch) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done == nil {
		return closedDone
	}
	return b.done
}

// doReader reads items from the Source, numbers them and forwards them to the
// collector. Source errors are wrapped in SourceError.
//
// When both Source channels are closed, it closes the items channel to signal
// that no more data will be produced.
func (b *Batch) doReader(ctx context.Context) {
	out, errs := b.src.Read(ctx)

	if out == nil || errs == nil {
		b.log.Error().Msg("invalid source implementation: returned nil channel(s)")
		b.errs <- errors.New("invalid source implementation: returned nil channel(s)")
		close(b.items)
		return
	}

	var outClosed, errsClosed bool
	var id uint64
	for !outClosed || !errsClosed {
		select {
		case data, ok := <-out:
			if !ok {
				outClosed = true
				continue
			}
			b.items <- &Item{
				ID:   id,
				Data: data,
			}
			id++

		case err, ok := <-errs:
			if !ok {
				errsClosed = true
				continue
			}
			b.log.Error().Err(err).Msg("source error")
			b.stats.RecordSourceError()
			b.errs <- &SourceError{Err: err}
		}
	}

	b.log.Debug().Uint64("items", id).Msg("source reading complete")
	close(b.items)
}

// doProcessors cuts batches from the items channel and starts one goroutine
// per batch. After the source is exhausted it waits for every batch, then
// closes the error and done channels.
func (b *Batch) doProcessors(ctx context.Context) {
	var wg sync.WaitGroup
	var batchCount, dispatched uint64

	for {
		config := fixConfig(b.config.Get())
		batch := b.waitForItems(config)

		if len(batch) == 0 {
			break
		}

		batchCount++
		dispatched += uint64(len(batch))
		b.stats.RecordBatchStart(len(batch))
		// Logged once per dispatched batch; an exhausted source sends no
		// empty trailing batch, so there is no extra line for it.
		b.log.Info().Uint64("documents", dispatched).Msgf("progress: indexing %d documents", dispatched)

		wg.Add(1)
		go func(items []*Item, batchNum uint64) {
			defer wg.Done()
			b.process(ctx, items, batchNum)
		}(batch, batchCount)
	}

	wg.Wait()
	b.log.Debug().Uint64("batches", batchCount).Uint64("items", dispatched).Msg("batch processing complete")

	b.mu.Lock()
	close(b.errs)
	close(b.done)
	b.running = false
	b.mu.Unlock()
}

// process runs one batch through the processor chain and reports its errors.
func (b *Batch) process(ctx context.Context, items []*Item, batchNum uint64) {
	startTime := time.Now()
	log := b.log.With().Uint64("batch", batchNum).Logger()

	var failed bool
	for i, proc := range b.processors {
		var err error
		items, err = proc.Process(ctx, items)
		if err != nil {
			failed = true
			log.Error().Err(err).Int("processor", i+1).Msg("processor failed")
			b.stats.RecordProcessorError()
			b.errs <- &ProcessorError{Batch: batchNum, Err: err}
		}
	}

	// After a batch-wide failure no item counts as processed. The failure
	// has already been reported once.
	var successCount, errorCount int
	for _, item := range items {
		switch {
		case item.Error != nil:
			errorCount++
			b.stats.RecordItemError()
			b.errs <- &ProcessorError{Batch: batchNum, Err: item.Error}
		case failed:
			errorCount++
			b.stats.RecordItemError()
		default:
			successCount++
			b.stats.RecordItemProcessed()
		}
	}

	duration := time.Since(startTime)
	b.stats.RecordBatchComplete(len(items), duration)
	log.Debug().
		Int("successful", successCount).
		Int("errors", errorCount).
		Dur("duration", duration).
		Msg("batch complete")
}

// waitForItems collects items until the batch holds config.Size items or the
// items channel is closed. An empty result means the input is exhausted.
func (b *Batch) waitForItems(config ConfigValues) []*Item {
	batch := make([]*Item, 0, config.Size)
	for item := range b.items {
		batch = append(batch, item)
		if uint64(len(batch)) >= config.Size {
			return batch
		}
	}
	return batch
}
