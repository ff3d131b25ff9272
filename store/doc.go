// Package store wraps the Elasticsearch client used to hold trip documents.
//
// A Client is bound to one index. Recreate drops and re-creates the index
// with the embedded trips schema, Bulk writes one batch of documents in a
// single bulk request, and StationActivity runs the per-station, per-2-hour
// aggregation over everything indexed.
package store
