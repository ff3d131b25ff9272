package batch

// Wait drains errs until batch processing is complete and returns the first
// error received, or nil. It is the completion barrier for a Go call:
//
//	if err := b.Wait(b.Go(ctx, src, proc)); err != nil {
//		// at least one batch or the source failed
//	}
//
// Every error is consumed so that no batch goroutine blocks on a full error
// channel; only the first one is returned.
func (b *Batch) Wait(errs <-chan error) error {
	var first error
	for err := range errs {
		if first == nil {
			first = err
		}
	}
	<-b.Done()
	return first
}
