package processor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/MasterOfBinary/tripload/batch"
	"github.com/MasterOfBinary/tripload/store"
	"github.com/MasterOfBinary/tripload/trip"
)

// Indexer writes a group of documents in a single request.
type Indexer interface {
	Bulk(ctx context.Context, docs []*trip.Document) (store.BulkResult, error)
}

// Bulk is a processor that submits each batch to an Indexer as one bulk
// write.
type Bulk struct {
	// Indexer receives the documents. If nil, the processor does nothing.
	Indexer Indexer

	// Stats, if set, records every document refused by the store.
	Stats batch.StatsCollector

	// Log, if set, receives a warning for batches with refused documents.
	Log *zerolog.Logger
}

// Process implements the batch.Processor interface.
//
// Items that already carry an error are skipped. Items whose Data is not a
// *trip.Document are marked with an error and not sent. Documents the store
// refuses are left out of the returned items, so they are counted as rejected
// and not as processed.
func (p *Bulk) Process(ctx context.Context, items []*batch.Item) ([]*batch.Item, error) {
	if len(items) == 0 || p.Indexer == nil {
		return items, nil
	}

	docs := make([]*trip.Document, 0, len(items))
	for _, item := range items {
		if item.Error != nil {
			continue
		}
		doc, ok := item.Data.(*trip.Document)
		if !ok {
			item.Error = errors.Errorf("item %d: expected *trip.Document, got %T", item.ID, item.Data)
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return items, nil
	}

	res, err := p.Indexer.Bulk(ctx, docs)
	if err != nil {
		return items, err
	}

	if len(res.Failed) > 0 {
		if p.Stats != nil {
			for range res.Failed {
				p.Stats.RecordItemRejected()
			}
		}
		if p.Log != nil {
			ev := p.Log.Warn().
				Int("rejected", len(res.Failed)).
				Int("indexed", res.Indexed)
			for id, reason := range res.Failed {
				// One example is enough to diagnose a mapping problem.
				ev = ev.Str("example_id", id).Str("example_reason", reason)
				break
			}
			ev.Msg("store rejected documents")
		}
		items = withoutRejected(items, res.Failed)
	}

	return items, nil
}

func withoutRejected(items []*batch.Item, failed map[string]string) []*batch.Item {
	kept := make([]*batch.Item, 0, len(items))
	for _, item := range items {
		if doc, ok := item.Data.(*trip.Document); ok && item.Error == nil {
			if _, rejected := failed[doc.DocID()]; rejected {
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept
}
