// Package source contains the batch.Source that loads trip documents from a
// CSV file.
//
// The first line of the file is always treated as a header and discarded.
// Every other line becomes one *trip.Document, numbered from zero in file
// order:
//
//	src, err := source.OpenTripFile("trips.csv")
//	if err != nil {
//		return err // missing or unreadable file
//	}
//	errs := b.Go(ctx, src, processors...)
//
// Reading stops at the first malformed line; the *trip.MalformedRecordError
// is sent on the error channel and documents read before it are still
// delivered.
package source
