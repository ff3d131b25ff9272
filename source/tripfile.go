package source

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/MasterOfBinary/tripload/trip"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// ErrAlreadyRead is reported when Read is called more than once on a
// TripFile.
var ErrAlreadyRead = errors.New("trip file has already been read")

// TripFile is a batch.Source producing *trip.Document values from a trip CSV
// stream. It can be read only once.
type TripFile struct {
	r    io.ReadCloser
	name string

	mu   sync.Mutex
	read bool
}

// OpenTripFile opens the file at path. It fails right away if the file
// cannot be opened, before anything is read.
func OpenTripFile(path string) (*TripFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening trip file")
	}
	return &TripFile{r: f, name: path}, nil
}

// NewTripReader returns a TripFile reading from r. r is closed when reading
// stops.
func NewTripReader(r io.ReadCloser, name string) *TripFile {
	return &TripFile{r: r, name: name}
}

// Name returns the path or name the TripFile was created with.
func (s *TripFile) Name() string {
	return s.name
}

// Close releases the underlying reader. It is only needed if Read is never
// called.
func (s *TripFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.read {
		return nil
	}
	s.read = true
	return s.r.Close()
}

// Read implements the batch.Source interface.
func (s *TripFile) Read(ctx context.Context) (<-chan interface{}, <-chan error) {
	out := make(chan interface{})
	errs := make(chan error, 1)

	s.mu.Lock()
	alreadyRead := s.read
	s.read = true
	s.mu.Unlock()

	if alreadyRead {
		errs <- ErrAlreadyRead
		close(out)
		close(errs)
		return out, errs
	}

	go func() {
		defer close(errs)
		defer close(out)
		defer s.r.Close()

		if err := s.scan(ctx, out); err != nil {
			errs <- err
		}
	}()

	return out, errs
}

// scan reads lines until EOF, the first error, or ctx is done.
func (s *TripFile) scan(ctx context.Context, out chan<- interface{}) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// Header.
	if !scanner.Scan() {
		return errors.Wrapf(scanner.Err(), "reading header of %s", s.name)
	}

	var id uint64
	for scanner.Scan() {
		doc, err := trip.ParseLine(scanner.Text(), id)
		if err != nil {
			return err
		}
		id++

		select {
		case <-ctx.Done():
			return nil
		case out <- doc:
		}
	}

	return errors.Wrapf(scanner.Err(), "reading %s", s.name)
}
