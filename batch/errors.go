package batch

import "fmt"

// ProcessorError is returned when a processor fails a batch or marks an item
// as failed.
type ProcessorError struct {
	// Batch is the 1-based sequence number of the failed batch.
	Batch uint64
	Err   error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error in batch %d: %v", e.Batch, e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

// SourceError is returned when a source fails.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
