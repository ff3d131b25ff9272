// Package processor contains the batch.Processor that writes trip documents
// to the store.
//
// Bulk turns one batch into one bulk request. A failed request fails the
// whole batch, which surfaces from batch.Wait; documents the store refuses
// individually inside an acknowledged request are only logged and counted.
package processor
