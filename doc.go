// Package tripload loads a CSV file of bike trips into an Elasticsearch index
// and reports how many trips started at each station, in 2-hour windows.
//
// Run does the whole job:
//
//  1. the trips file is opened (a missing file fails before anything else),
//  2. the index is deleted if it exists and created from the embedded schema,
//  3. the file is read line by line and every data line becomes a
//     trip.Document,
//  4. documents are grouped in fixed-size batches; each batch is written in
//     one bulk request from its own goroutine, without waiting for earlier
//     batches,
//  5. once every batch has finished, the index is refreshed and the station
//     activity aggregation is run.
//
// Any failure of the file, the index setup or a bulk request ends the run
// with an error and no query is made. Documents the store refuses one by one
// are counted and logged, but do not fail the run.
package tripload
