package processor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/tripload/batch"
	. "github.com/MasterOfBinary/tripload/processor"
	"github.com/MasterOfBinary/tripload/store"
	"github.com/MasterOfBinary/tripload/trip"
)

// memIndexer keeps every bulk call in memory.
type memIndexer struct {
	mu     sync.Mutex
	calls  [][]*trip.Document
	err    error
	reject map[string]string
}

func (m *memIndexer) Bulk(_ context.Context, docs []*trip.Document) (store.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return store.BulkResult{}, m.err
	}
	m.calls = append(m.calls, docs)
	return store.BulkResult{Indexed: len(docs) - len(m.reject), Failed: m.reject}, nil
}

func items(n int) []*batch.Item {
	out := make([]*batch.Item, n)
	for i := range out {
		out[i] = &batch.Item{ID: uint64(i), Data: &trip.Document{ID: uint64(i), BikeID: fmt.Sprint(i)}}
	}
	return out
}

func TestBulk_Process(t *testing.T) {
	idx := &memIndexer{}
	p := &Bulk{Indexer: idx}

	in := items(3)
	out, err := p.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.Len(t, idx.calls, 1)
	require.Len(t, idx.calls[0], 3)
	for i, doc := range idx.calls[0] {
		assert.Equal(t, uint64(i), doc.ID)
	}
}

func TestBulk_SkipsErroredAndForeignItems(t *testing.T) {
	idx := &memIndexer{}
	p := &Bulk{Indexer: idx}

	in := items(3)
	in[0].Error = errors.New("earlier failure")
	in[1].Data = "not a document"

	out, err := p.Process(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, idx.calls, 1)
	require.Len(t, idx.calls[0], 1)
	assert.Equal(t, uint64(2), idx.calls[0][0].ID)

	require.Error(t, out[1].Error)
	assert.Contains(t, out[1].Error.Error(), "string")
}

func TestBulk_NothingToSend(t *testing.T) {
	idx := &memIndexer{}

	out, err := (&Bulk{Indexer: idx}).Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	in := items(1)
	in[0].Error = errors.New("failed")
	_, err = (&Bulk{Indexer: idx}).Process(context.Background(), in)
	require.NoError(t, err)

	_, err = (&Bulk{}).Process(context.Background(), items(2))
	require.NoError(t, err)

	assert.Empty(t, idx.calls)
}

func TestBulk_RequestFailure(t *testing.T) {
	writeErr := errors.New("connection refused")
	p := &Bulk{Indexer: &memIndexer{err: writeErr}}

	_, err := p.Process(context.Background(), items(2))
	assert.Equal(t, writeErr, err)
}

func TestBulk_RejectedDocuments(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf)
	stats := batch.NewBasicStatsCollector()

	p := &Bulk{
		Indexer: &memIndexer{reject: map[string]string{"1": "mapper_parsing_exception: bad date"}},
		Stats:   stats,
		Log:     &log,
	}

	out, err := p.Process(context.Background(), items(3))
	require.NoError(t, err)
	require.Len(t, out, 2, "refused documents are left out")
	for _, item := range out {
		assert.NoError(t, item.Error, "refused documents do not fail the batch")
		assert.NotEqual(t, uint64(1), item.ID)
	}

	assert.Equal(t, uint64(1), stats.GetStats().ItemsRejected)
	assert.Contains(t, buf.String(), "store rejected documents")
	assert.Contains(t, buf.String(), `"rejected":1`)
	assert.Contains(t, buf.String(), "bad date")
}

func TestBulk_InBatchPipeline(t *testing.T) {
	idx := &memIndexer{}
	src := &docSource{n: 301}

	b := batch.New(batch.FixedSize(300))
	require.NoError(t, b.Wait(b.Go(context.Background(), src, &Bulk{Indexer: idx})))

	require.Len(t, idx.calls, 2)
	total := 0
	for _, call := range idx.calls {
		total += len(call)
	}
	assert.Equal(t, 301, total)
}

// docSource emits n documents.
type docSource struct {
	n int
}

func (s *docSource) Read(ctx context.Context) (<-chan interface{}, <-chan error) {
	out := make(chan interface{})
	errs := make(chan error)
	go func() {
		defer close(out)
		defer close(errs)
		for i := 0; i < s.n; i++ {
			select {
			case <-ctx.Done():
				return
			case out <- &trip.Document{ID: uint64(i)}:
			}
		}
	}()
	return out, errs
}
