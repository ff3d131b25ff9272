package batch_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/MasterOfBinary/tripload/batch"
)

// sliceSource emits Items in order, optionally followed by an error.
type sliceSource struct {
	Items   []interface{}
	Delay   time.Duration
	WithErr error
}

func (s *sliceSource) Read(ctx context.Context) (<-chan interface{}, <-chan error) {
	out := make(chan interface{})
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, item := range s.Items {
			if s.Delay > 0 {
				time.Sleep(s.Delay)
			}
			select {
			case <-ctx.Done():
				return
			case out <- item:
			}
		}
		if s.WithErr != nil {
			errs <- s.WithErr
		}
	}()
	return out, errs
}

func numbers(n int) []interface{} {
	items := make([]interface{}, n)
	for i := range items {
		items[i] = i
	}
	return items
}

// recordProcessor remembers every batch it sees.
type recordProcessor struct {
	mu      sync.Mutex
	batches [][]*Item
	count   uint64
	delay   time.Duration
	err     error
}

func (p *recordProcessor) Process(_ context.Context, items []*Item) ([]*Item, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	cp := make([]*Item, len(items))
	copy(cp, items)
	p.batches = append(p.batches, cp)
	p.mu.Unlock()
	atomic.AddUint64(&p.count, uint64(len(items)))
	return items, p.err
}

func (p *recordProcessor) sizes() map[int]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	sizes := make(map[int]int)
	for _, b := range p.batches {
		sizes[len(b)]++
	}
	return sizes
}

func (p *recordProcessor) ids() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []uint64
	for _, b := range p.batches {
		for _, item := range b {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// processorFunc adapts a function to the Processor interface.
type processorFunc func(ctx context.Context, items []*Item) ([]*Item, error)

func (f processorFunc) Process(ctx context.Context, items []*Item) ([]*Item, error) {
	return f(ctx, items)
}

// sourceFunc adapts a function to the Source interface.
type sourceFunc func(ctx context.Context) (<-chan interface{}, <-chan error)

func (f sourceFunc) Read(ctx context.Context) (<-chan interface{}, <-chan error) {
	return f(ctx)
}
