// Package batch contains the batching engine used to drive documents into
// the index. The main type is Batch, which can be created using New. It reads
// from a Source and hands fixed-size groups of items to one or more
// Processors.
//
// Every batch is processed in its own goroutine as soon as it is full, so the
// reader never waits for earlier batches to finish and any number of batches
// may be in flight at once. When the Source is exhausted the remaining partial
// batch is dispatched, and Done is closed only after every batch has
// returned. Wait combines both steps for callers that only care about the
// first error:
//
//	b := batch.New(batch.FixedSize(300)).WithLogger(log)
//	if err := b.Wait(b.Go(ctx, src, bulk)); err != nil {
//		return err
//	}
//
// Processors can be chained. Each processor receives the output items of the
// previous one:
//
//	b.Go(ctx, source, processor1, processor2, processor3)
//
// The configuration is reloaded before each batch is collected.
package batch
